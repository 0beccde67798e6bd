package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/deliverynote-service/internal/domain"
)

var (
	// ErrNotFound is returned when no record matches.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a storage-level uniqueness constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
)

const uniqueViolation = "23505"

// ScopeFilter selects records visible to a principal. CreatedBy and Company are
// combined with OR; the remaining set fields are combined with AND.
type ScopeFilter struct {
	ID        *string
	CreatedBy string
	Company   string
	Archived  *bool
	ClientID  *string
	ProjectID *string
}

// Matches evaluates the filter in memory against a record's ownership and state.
func (f ScopeFilter) Matches(id string, owner domain.Ownership, archived bool) bool {
	if f.ID != nil && *f.ID != id {
		return false
	}
	if f.Archived != nil && *f.Archived != archived {
		return false
	}
	if f.CreatedBy == "" && f.Company == "" {
		return true
	}
	return (f.CreatedBy != "" && owner.CreatedBy == f.CreatedBy) ||
		(f.Company != "" && owner.Company == f.Company)
}

// where renders the filter as a SQL predicate with positional arguments.
func (f ScopeFilter) where() (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if f.ID != nil {
		args = append(args, *f.ID)
		clauses = append(clauses, fmt.Sprintf("id=$%d", len(args)))
	}
	switch {
	case f.CreatedBy != "" && f.Company != "":
		args = append(args, f.CreatedBy, f.Company)
		clauses = append(clauses, fmt.Sprintf("(created_by=$%d OR company_id=$%d)", len(args)-1, len(args)))
	case f.CreatedBy != "":
		args = append(args, f.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("created_by=$%d", len(args)))
	case f.Company != "":
		args = append(args, f.Company)
		clauses = append(clauses, fmt.Sprintf("company_id=$%d", len(args)))
	}
	if f.Archived != nil {
		args = append(args, *f.Archived)
		clauses = append(clauses, fmt.Sprintf("archived=$%d", len(args)))
	}
	if f.ClientID != nil {
		args = append(args, *f.ClientID)
		clauses = append(clauses, fmt.Sprintf("client_id=$%d", len(args)))
	}
	if f.ProjectID != nil {
		args = append(args, *f.ProjectID)
		clauses = append(clauses, fmt.Sprintf("project_id=$%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

// Bool returns a pointer to b, for filter literals.
func Bool(b bool) *bool {
	return &b
}

// String returns a pointer to s, for filter literals.
func String(s string) *string {
	return &s
}

func translate(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}
