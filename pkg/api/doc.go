// Package api is the transport adapter for the gonode REST API.
//
// Every call accepts an optional bearer token; when non-empty it is sent as
// an "Authorization: Bearer <token>" header. Responses are normalised into
// the types of the model package and failures into *TransportError.
//
// # Endpoints
//
//   - POST /login - form login, returns a signed token (403 on rejection)
//   - GET /nodes?per_page=&page= - node listing
//   - GET /nodes/{uuid} - node document
//   - POST /nodes - node creation
//   - GET /nodes/{uuid}/revisions - revision listing
//   - GET /nodes/{uuid}/revisions/{rev} - a single revision
//   - GET /hello - liveness
//
// # Usage
//
//	client := api.NewClient("http://localhost:2405", &http.Client{Timeout: 15 * time.Second})
//	res, err := client.Login(ctx, "admin", "admin")
//	if err != nil {
//	    // network failure or unexpected status
//	}
//	if res.Rejected {
//	    // credentials denied, res.Body describes why
//	}
//	nodes, err := client.ListNodes(ctx, api.PageOptions{PerPage: 10}, res.Token)
package api
