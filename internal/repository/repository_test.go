package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/deliverynote-service/internal/domain"
)

func TestScopeFilterWhere(t *testing.T) {
	tests := []struct {
		name   string
		filter ScopeFilter
		want   string
		args   []any
	}{
		{
			name:   "empty",
			filter: ScopeFilter{},
			want:   "1=1",
			args:   []any{},
		},
		{
			name:   "id only",
			filter: ScopeFilter{ID: String("n-1")},
			want:   "1=1 AND id=$1",
			args:   []any{"n-1"},
		},
		{
			name:   "creator or company",
			filter: ScopeFilter{CreatedBy: "u-1", Company: "c-1"},
			want:   "1=1 AND (created_by=$1 OR company_id=$2)",
			args:   []any{"u-1", "c-1"},
		},
		{
			name:   "creator only",
			filter: ScopeFilter{CreatedBy: "u-1"},
			want:   "1=1 AND created_by=$1",
			args:   []any{"u-1"},
		},
		{
			name:   "company only",
			filter: ScopeFilter{Company: "c-1"},
			want:   "1=1 AND company_id=$1",
			args:   []any{"c-1"},
		},
		{
			name:   "archived",
			filter: ScopeFilter{Archived: Bool(true)},
			want:   "1=1 AND archived=$1",
			args:   []any{true},
		},
		{
			name:   "client",
			filter: ScopeFilter{ClientID: String("cl-1")},
			want:   "1=1 AND client_id=$1",
			args:   []any{"cl-1"},
		},
		{
			name:   "project",
			filter: ScopeFilter{ProjectID: String("p-1")},
			want:   "1=1 AND project_id=$1",
			args:   []any{"p-1"},
		},
		{
			name: "all fields",
			filter: ScopeFilter{
				ID:        String("n-1"),
				CreatedBy: "u-1",
				Company:   "c-1",
				Archived:  Bool(false),
				ClientID:  String("cl-1"),
				ProjectID: String("p-1"),
			},
			want: "1=1 AND id=$1 AND (created_by=$2 OR company_id=$3) AND archived=$4 AND client_id=$5 AND project_id=$6",
			args: []any{"n-1", "u-1", "c-1", false, "cl-1", "p-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := tt.filter.where()
			assert.Equal(t, tt.want, where)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestScopeFilterMatches(t *testing.T) {
	owner := domain.Ownership{CreatedBy: "u-1", Company: "c-1"}

	assert.True(t, ScopeFilter{}.Matches("n-1", owner, false))
	assert.True(t, ScopeFilter{CreatedBy: "u-1", Company: "other"}.Matches("n-1", owner, false))
	assert.True(t, ScopeFilter{CreatedBy: "other", Company: "c-1"}.Matches("n-1", owner, false))
	assert.False(t, ScopeFilter{CreatedBy: "other", Company: "other"}.Matches("n-1", owner, false))
	assert.False(t, ScopeFilter{ID: String("n-2")}.Matches("n-1", owner, false))
	assert.False(t, ScopeFilter{Archived: Bool(false)}.Matches("n-1", owner, true))
}

func TestTranslate(t *testing.T) {
	assert.ErrorIs(t, translate(fmt.Errorf("scan: %w", pgx.ErrNoRows)), ErrNotFound)
	assert.ErrorIs(t, translate(&pgconn.PgError{Code: uniqueViolation}), ErrDuplicate)

	other := errors.New("connection reset")
	assert.Equal(t, other, translate(other))
}
