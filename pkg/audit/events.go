package audit

import "fmt"

// Outcome of a login attempt
type Outcome string

const (
	OutcomeAuthenticated Outcome = "authenticated"
	OutcomeRejected      Outcome = "rejected"
	OutcomeFailed        Outcome = "failed"
)

// LoginEvent records a login attempt
type LoginEvent struct {
	User    string
	Server  string
	Outcome Outcome

	ErrorMessage string
}

func (e LoginEvent) MessageID() string {
	return "login"
}

func (e LoginEvent) Message() string {
	switch e.Outcome {
	case OutcomeAuthenticated:
		return fmt.Sprintf("%s successfully authenticated", e.User)
	case OutcomeRejected:
		return fmt.Sprintf("%s was rejected: %s", e.User, e.ErrorMessage)
	default:
		return fmt.Sprintf("%s failed to authenticate: %s", e.User, e.ErrorMessage)
	}
}

func (e LoginEvent) Severity() Severity {
	if e.Outcome == OutcomeAuthenticated {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e LoginEvent) Facility() int {
	return FacilityAuthPriv
}

func (e LoginEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user":    e.User,
			"outcome": string(e.Outcome),
		},
		SDIDClient: {
			"server": e.Server,
		},
	}
}

// LogoutEvent records the end of a session
type LogoutEvent struct {
	User   string
	Server string
}

func (e LogoutEvent) MessageID() string {
	return "logout"
}

func (e LogoutEvent) Message() string {
	if e.User == "" {
		return "anonymous session logged out"
	}
	return fmt.Sprintf("%s logged out", e.User)
}

func (e LogoutEvent) Severity() Severity {
	return SeverityInfo
}

func (e LogoutEvent) Facility() int {
	return FacilityAuthPriv
}

func (e LogoutEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth:   {"user": e.User},
		SDIDClient: {"server": e.Server},
	}
}

// CreateNodeEvent records a node creation
type CreateNodeEvent struct {
	User     string
	NodeType string
	NodeName string
	NodeUUID string
	Success  bool
	Error    string
}

func (e CreateNodeEvent) MessageID() string {
	return "create"
}

func (e CreateNodeEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s created %s node %s (%s)", e.User, e.NodeType, e.NodeUUID, e.NodeName)
	}
	return fmt.Sprintf("%s failed to create %s node %q: %s", e.User, e.NodeType, e.NodeName, e.Error)
}

func (e CreateNodeEvent) Severity() Severity {
	if e.Success {
		return SeverityNotice
	}
	return SeverityWarning
}

func (e CreateNodeEvent) Facility() int {
	return FacilityUser
}

func (e CreateNodeEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDSubject: {"type": e.NodeType, "name": e.NodeName},
		SDIDAuth:    {"user": e.User},
		SDIDAction:  {"operation": "create", "result": result(e.Success)},
	}
	if e.NodeUUID != "" {
		sd[SDIDSubject]["uuid"] = e.NodeUUID
	}
	return sd
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
