package audit

import (
	"time"

	id "facegate/pkg/domain"
)

// Actions recorded by the protocol. One event per state transition or decision.
const (
	EventIdentityRegistered  = "identity_registered"
	EventIdentityLogin       = "identity_login"
	EventFaceEnrolled        = "face_enrolled"
	EventFaceReEnrolled      = "face_re_enrolled"
	EventVerificationAccept  = "verification_accepted"
	EventVerificationReject  = "verification_rejected"
	EventDuplicateRegistered = "duplicate_registration_rejected"
)

// Event is one structured audit record. PhoneNumber is the partition key so
// all events for one identity stay ordered.
type Event struct {
	IdentityID  id.IdentityID `json:"identity_id,omitempty"`
	PhoneNumber string        `json:"phone_number"`
	Action      string        `json:"action"`
	RequestID   string        `json:"request_id,omitempty"`
	Detail      string        `json:"detail,omitempty"`
	OccurredAt  time.Time     `json:"occurred_at"`
}
