// Package cache is the client-side resource cache of the explorer.
//
// Every fetchable resource is addressed by a Key made of a Kind and an
// identifier (the pagination options of a listing, a node uuid, ...). For
// each key the store tracks a Status:
//
//	absent -> loading -> present
//	                  \-> errored -> loading -> ...
//
// EnsureFetched is the only way an entry leaves absent or errored. While an
// entry is loading every caller shares the same in-flight Call, so mounting
// several views on the same resource issues one request. Errored entries are
// not retried automatically; the next EnsureFetched retries.
//
// Invalidate and Reset detach in-flight calls: their waiters still receive
// the result, but it is not written back to the store.
//
// # Usage
//
//	key := cache.Key{Kind: "node", ID: id.String()}
//	call := cache.Ensure(ctx, store, key, func(ctx context.Context) (*model.NodeDetail, error) {
//	    return client.GetNode(ctx, id, token)
//	})
//	node, err := cache.Wait[*model.NodeDetail](ctx, call)
//
//	switch entry := store.Peek(key); entry.Status {
//	case cache.StatusLoading:
//	    // render a loading indicator
//	case cache.StatusErrored:
//	    // render entry.Err
//	}
package cache
