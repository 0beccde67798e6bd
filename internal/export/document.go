// Package export turns a resolved delivery note into a printable document.
package export

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spec-kit/deliverynote-service/internal/domain"
)

// ErrIncompleteNote is returned when a referenced project, client or creator is missing.
var ErrIncompleteNote = errors.New("delivery note references are incomplete")

const documentTitle = "Delivery note"

// Document is the renderer-facing view of a delivery note.
type Document struct {
	NoteID       string
	Title        string
	CreatorEmail string
	ClientName   string
	ProjectName  string
	Type         domain.DeliveryNoteType
	Hours        []domain.HourEntry
	Materials    []domain.MaterialEntry
	Signed       bool
	SignatureURL string
}

// BuildDocument resolves the view for note. All references must be present.
func BuildDocument(note *domain.DeliveryNote, project *domain.Project, client *domain.Client, creator *domain.User) (*Document, error) {
	switch {
	case note == nil:
		return nil, fmt.Errorf("%w: note", ErrIncompleteNote)
	case project == nil:
		return nil, fmt.Errorf("%w: project", ErrIncompleteNote)
	case client == nil:
		return nil, fmt.Errorf("%w: client", ErrIncompleteNote)
	case creator == nil:
		return nil, fmt.Errorf("%w: creator", ErrIncompleteNote)
	}
	if project.ID != note.ProjectID || client.ID != project.ClientID {
		return nil, fmt.Errorf("%w: mismatched references", ErrIncompleteNote)
	}

	return &Document{
		NoteID:       note.ID,
		Title:        documentTitle,
		CreatorEmail: creator.Email,
		ClientName:   client.Name,
		ProjectName:  project.Name,
		Type:         note.Type,
		Hours:        append([]domain.HourEntry(nil), note.Hours...),
		Materials:    append([]domain.MaterialEntry(nil), note.Materials...),
		Signed:       note.Signed,
		SignatureURL: note.SignatureURL,
	}, nil
}

// Lines returns the document as linear text, title first. Empty strings mark
// paragraph breaks. Item sections only appear when they have entries.
func (d *Document) Lines() []string {
	lines := []string{
		d.Title,
		"User: " + d.CreatorEmail,
		"Client: " + d.ClientName,
		"Project: " + d.ProjectName,
		"Type: " + string(d.Type),
		"",
	}

	if len(d.Hours) > 0 {
		lines = append(lines, "Hours:")
		for _, h := range d.Hours {
			lines = append(lines, fmt.Sprintf("- %s (%s hours): %s", h.Person, formatNumber(h.HoursWorked), h.Description))
		}
	}
	if len(d.Materials) > 0 {
		lines = append(lines, "Materials:")
		for _, m := range d.Materials {
			lines = append(lines, fmt.Sprintf("- %s (%s %s)", m.Material, formatNumber(m.Quantity), m.Unit))
		}
	}

	lines = append(lines, "")
	if d.Signed {
		lines = append(lines, "Signed: yes")
		if d.SignatureURL != "" {
			lines = append(lines, "Signature: "+d.SignatureURL)
		}
	} else {
		lines = append(lines, "Signed: no")
	}
	return lines
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
