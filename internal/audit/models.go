// Package audit captures structured events emitted by the registration
// workflow. Events flow through an in-process worker; when Kafka is
// configured they are additionally published to the audit topic.
package audit

import (
	"context"
	"time"
)

// Actions emitted by the signup flow.
const (
	ActionRegistrationStarted   = "registration_started"
	ActionDuplicatePhoneBlocked = "duplicate_phone_blocked"
	ActionIdentityCreated       = "identity_created"
	ActionDocumentUploaded      = "document_uploaded"
	ActionRegistrationFailed    = "registration_failed"
	ActionRoleAssigned          = "role_assigned"
	ActionRegistrationCompleted = "registration_completed"
	ActionSignInBlocked         = "sign_in_blocked"
)

// Event is one audit record. UserID and SessionID are strings rather
// than typed IDs because some events fire before any identity exists.
type Event struct {
	Action    string            `json:"action"`
	UserID    string            `json:"user_id,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	Email     string            `json:"email,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
	Device    string            `json:"device,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Sink persists or forwards audit events.
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// Publisher is the emit side handed to services. Emit must never block
// the caller's request path.
type Publisher interface {
	Emit(ctx context.Context, event Event)
}
