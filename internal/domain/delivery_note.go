package domain

import "time"

// DeliveryNoteType differentiates hours and materials notes.
type DeliveryNoteType string

const (
	DeliveryNoteHours     DeliveryNoteType = "hours"
	DeliveryNoteMaterials DeliveryNoteType = "materials"
)

// Valid reports whether t is a known note type.
func (t DeliveryNoteType) Valid() bool {
	return t == DeliveryNoteHours || t == DeliveryNoteMaterials
}

// HourEntry records time worked by a person.
type HourEntry struct {
	Person      string     `json:"person"`
	Description string     `json:"description"`
	HoursWorked float64    `json:"hoursWorked"`
	Date        *time.Time `json:"date,omitempty"`
}

// MaterialEntry records material delivered.
type MaterialEntry struct {
	Material string     `json:"material"`
	Quantity float64    `json:"quantity"`
	Unit     string     `json:"unit"`
	Date     *time.Time `json:"date,omitempty"`
}

// DeliveryNote is the unit of work record. Once signed it can no longer be deleted.
type DeliveryNote struct {
	ID        string
	Type      DeliveryNoteType
	ProjectID string
	Ownership
	Hours        []HourEntry
	Materials    []MaterialEntry
	Signed       bool
	SignatureURL string
	PDFURL       string
	Archived     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
