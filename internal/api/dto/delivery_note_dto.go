package dto

import (
	"time"

	"github.com/spec-kit/deliverynote-service/internal/domain"
)

// DeliveryNoteRequest payload for delivery note create and update.
type DeliveryNoteRequest struct {
	Type      string                 `json:"type"`
	ProjectID string                 `json:"project"`
	Hours     []domain.HourEntry     `json:"hours"`
	Materials []domain.MaterialEntry `json:"materials"`
}

// DeliveryNoteResponse is the public view of a delivery note.
type DeliveryNoteResponse struct {
	ID           string                 `json:"id"`
	Type         string                 `json:"type"`
	ProjectID    string                 `json:"project"`
	CreatedBy    string                 `json:"created_by"`
	Company      string                 `json:"company"`
	Hours        []domain.HourEntry     `json:"hours"`
	Materials    []domain.MaterialEntry `json:"materials"`
	Signed       bool                   `json:"signed"`
	SignatureURL string                 `json:"signature_url,omitempty"`
	PDFURL       string                 `json:"pdf_url,omitempty"`
	Archived     bool                   `json:"archived"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}
