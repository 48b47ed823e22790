package handler

import (
	"jiran/internal/signup/wizard"
)

// sessionResponse is the uniform wizard response body: the session view
// plus any inline field feedback from the last draft update.
type sessionResponse struct {
	wizard.View
	Issues []wizard.FieldIssue `json:"issues,omitempty"`
}

func renderSession(session *wizard.Session) sessionResponse {
	return sessionResponse{View: session.View()}
}
