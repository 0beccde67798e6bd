package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered         EventType = "user_registered"
	EventGuestInvited           EventType = "guest_invited"
	EventPasswordResetRequested EventType = "password_reset_requested"
	EventDeliveryNoteSigned     EventType = "delivery_note_signed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload carries the verification code for a new account.
type UserRegisteredPayload struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// GuestInvitedPayload carries the credentials sent to an invited guest.
type GuestInvitedPayload struct {
	Email             string `json:"email"`
	Code              string `json:"code"`
	TemporaryPassword string `json:"-"`
	CompanyID         string `json:"company_id"`
}

// PasswordResetRequestedPayload carries a one-time reset code.
type PasswordResetRequestedPayload struct {
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DeliveryNoteSignedPayload payload.
type DeliveryNoteSignedPayload struct {
	ProjectID    string `json:"project_id"`
	SignatureURL string `json:"signature_url"`
	Resigned     bool   `json:"resigned"`
}
