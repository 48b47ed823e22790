package models

import "fmt"

// GateCode is the closed set of account-state failures the identity
// service reports when a sign-in is blocked by approval state rather
// than bad credentials. AccountStatusAdvisor translates these into
// display advice.
type GateCode string

const (
	GateAccountInactive    GateCode = "ACCOUNT_INACTIVE"
	GateAccountPending     GateCode = "ACCOUNT_PENDING"
	GateAccountRejected    GateCode = "ACCOUNT_REJECTED"
	GateAccountSuspended   GateCode = "ACCOUNT_SUSPENDED"
	GateAccountNotApproved GateCode = "ACCOUNT_NOT_APPROVED"
)

// GateError carries a GateCode through the error chain.
type GateError struct {
	Code GateCode
}

func (e *GateError) Error() string {
	return fmt.Sprintf("sign-in blocked: %s", e.Code)
}

// NewGateError wraps a gate code as an error.
func NewGateError(code GateCode) error {
	return &GateError{Code: code}
}
