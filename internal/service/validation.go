package service

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/spec-kit/deliverynote-service/internal/domain"
	apperrors "github.com/spec-kit/deliverynote-service/pkg/util"
)

var codePattern = regexp.MustCompile(`^[0-9]{6}$`)

// fieldErrors collects per-field validation failures.
type fieldErrors map[string]any

func (f fieldErrors) add(field, problem string) {
	if _, exists := f[field]; !exists {
		f[field] = problem
	}
}

func (f fieldErrors) err(message string) error {
	if len(f) == 0 {
		return nil
	}
	return apperrors.NewValidationError(message, map[string]any(f))
}

func (f fieldErrors) email(field, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		f.add(field, "required")
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value || !strings.Contains(value[strings.LastIndex(value, "@"):], ".") {
		f.add(field, "must be a valid email")
	}
}

func (f fieldErrors) optionalEmail(field, value string) {
	if strings.TrimSpace(value) != "" {
		f.email(field, value)
	}
}

func (f fieldErrors) length(field, value string, lo, hi int) {
	n := utf8.RuneCountInString(value)
	if n < lo || n > hi {
		f.add(field, fmt.Sprintf("must be between %d and %d characters", lo, hi))
	}
}

func (f fieldErrors) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		f.add(field, "required")
	}
}

func (f fieldErrors) optionalNonEmpty(field string, value *string) {
	if value != nil && strings.TrimSpace(*value) == "" {
		f.add(field, "must not be empty")
	}
}

func (f fieldErrors) code(field, value string) {
	if !codePattern.MatchString(value) {
		f.add(field, "must be a 6 digit code")
	}
}

func (f fieldErrors) id(field, value string) {
	if _, err := uuid.Parse(value); err != nil {
		f.add(field, "must be a valid id")
	}
}

// ValidateID rejects malformed record identifiers.
func ValidateID(field, value string) error {
	errs := fieldErrors{}
	errs.id(field, value)
	return errs.err("invalid identifier")
}

func validateEntries(errs fieldErrors, noteType domain.DeliveryNoteType, hours []domain.HourEntry, materials []domain.MaterialEntry) {
	if !noteType.Valid() {
		errs.add("type", "must be hours or materials")
		return
	}
	switch noteType {
	case domain.DeliveryNoteHours:
		if len(materials) > 0 {
			errs.add("materials", "not allowed on an hours note")
		}
	case domain.DeliveryNoteMaterials:
		if len(hours) > 0 {
			errs.add("hours", "not allowed on a materials note")
		}
	}
	for i, h := range hours {
		if strings.TrimSpace(h.Person) == "" {
			errs.add(fmt.Sprintf("hours[%d].person", i), "required")
		}
		if h.HoursWorked <= 0 {
			errs.add(fmt.Sprintf("hours[%d].hoursWorked", i), "must be positive")
		}
	}
	for i, m := range materials {
		if strings.TrimSpace(m.Material) == "" {
			errs.add(fmt.Sprintf("materials[%d].material", i), "required")
		}
		if m.Quantity <= 0 {
			errs.add(fmt.Sprintf("materials[%d].quantity", i), "must be positive")
		}
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
