// Package advisor translates sign-in gate codes into display advice:
// what to tell the applicant, whether trying again can help, and whether
// the community administrator needs to get involved.
package advisor

import (
	"errors"

	"jiran/internal/identity/models"
)

// Advice is the rendering contract for one blocked sign-in.
type Advice struct {
	Status             string `json:"status"`
	RetryAllowed       bool   `json:"retry_allowed"`
	ContactAdminAction bool   `json:"contact_admin_action"`
	Message            string `json:"message"`
}

// For maps a gate code to its advice. Unknown codes get the generic
// advice rather than being swallowed; the table is pure and total.
func For(code models.GateCode) Advice {
	switch code {
	case models.GateAccountInactive:
		return Advice{
			Status:             "inactive",
			ContactAdminAction: true,
			Message:            "Your account has been deactivated. Contact your community administrator to restore access.",
		}
	case models.GateAccountPending:
		return Advice{
			Status:       "pending",
			RetryAllowed: true,
			Message:      "Your registration is awaiting approval. Try signing in again once your account has been reviewed.",
		}
	case models.GateAccountRejected:
		return Advice{
			Status:             "rejected",
			ContactAdminAction: true,
			Message:            "Your registration was not approved. Contact your community administrator for details.",
		}
	case models.GateAccountSuspended:
		return Advice{
			Status:             "suspended",
			ContactAdminAction: true,
			Message:            "Your account has been suspended. Contact your community administrator to resolve this.",
		}
	case models.GateAccountNotApproved:
		return Advice{
			Status:             "not_approved",
			RetryAllowed:       true,
			ContactAdminAction: true,
			Message:            "Your account is not approved for sign-in yet. Try again later or contact your community administrator.",
		}
	default:
		return Advice{
			Status:             "unknown",
			ContactAdminAction: true,
			Message:            "Your account cannot be signed in right now. Contact your community administrator.",
		}
	}
}

// FromError extracts the gate code from a blocked sign-in error chain
// and returns its advice. The second return reports whether the error
// actually carried a gate code.
func FromError(err error) (Advice, bool) {
	var gateErr *models.GateError
	if !errors.As(err, &gateErr) {
		return Advice{}, false
	}
	return For(gateErr.Code), true
}
