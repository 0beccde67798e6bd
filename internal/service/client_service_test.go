package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/deliverynote-service/internal/auth"
	"github.com/spec-kit/deliverynote-service/internal/domain"
	apperrors "github.com/spec-kit/deliverynote-service/pkg/util"
)

func TestClientAcmeScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com", domain.RoleUser, "")

	acme, err := f.clients.Create(ctx, a, ClientInput{Name: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, a.ID(), acme.CreatedBy)
	assert.Equal(t, a.ID(), acme.Company)

	_, err = f.clients.Create(ctx, a, ClientInput{Name: "Acme"})
	requireCode(t, err, apperrors.CodeConflict)

	archived, err := f.clients.Archive(ctx, a, acme.ID)
	require.NoError(t, err)
	assert.True(t, archived.Archived)

	restored, err := f.clients.Restore(ctx, a, acme.ID)
	require.NoError(t, err)
	assert.False(t, restored.Archived)
	assert.Equal(t, "Acme", restored.Name)
}

func TestClientDuplicateNameIsPerScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com", domain.RoleUser, "")
	b := f.user(t, "b@example.com", domain.RoleUser, "")

	f.client(t, a, "Acme")
	_, err := f.clients.Create(ctx, b, ClientInput{Name: "Acme"})
	require.NoError(t, err)

	member := f.user(t, "m@example.com", domain.RoleUser, a.ID())
	_, err = f.clients.Create(ctx, member, ClientInput{Name: "Acme"})
	requireCode(t, err, apperrors.CodeConflict)
}

func TestClientNameFreedByArchive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com", domain.RoleUser, "")

	acme := f.client(t, a, "Acme")
	_, err := f.clients.Archive(ctx, a, acme.ID)
	require.NoError(t, err)

	_, err = f.clients.Create(ctx, a, ClientInput{Name: "Acme"})
	require.NoError(t, err)
}

func TestClientRestoreRejectsActiveNameClash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com", domain.RoleUser, "")
	first := f.client(t, a, "Acme")
	_, err := f.clients.Archive(ctx, a, first.ID)
	require.NoError(t, err)
	f.client(t, a, "Acme")

	_, err = f.clients.Restore(ctx, a, first.ID)
	requireCode(t, err, apperrors.CodeConflict)

	active, err := f.clients.List(ctx, a)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestClientArchiveRestoreRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com", domain.RoleUser, "")

	original, err := f.clients.Create(ctx, a, ClientInput{
		Name:         "Acme",
		ContactEmail: "ops@acme.test",
		Phone:        "555-0100",
		Address:      "1 Main St",
	})
	require.NoError(t, err)

	_, err = f.clients.Archive(ctx, a, original.ID)
	require.NoError(t, err)
	restored, err := f.clients.Restore(ctx, a, original.ID)
	require.NoError(t, err)

	want := *original
	want.UpdatedAt = restored.UpdatedAt
	assert.Equal(t, want, *restored)
}

func TestClientInvalidTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com", domain.RoleUser, "")
	acme := f.client(t, a, "Acme")

	_, err := f.clients.Restore(ctx, a, acme.ID)
	requireCode(t, err, apperrors.CodeState)

	_, err = f.clients.Archive(ctx, a, acme.ID)
	require.NoError(t, err)
	_, err = f.clients.Archive(ctx, a, acme.ID)
	requireCode(t, err, apperrors.CodeState)

	require.NoError(t, f.clients.Delete(ctx, a, acme.ID))
	_, err = f.clients.Get(ctx, a, acme.ID)
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestClientVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	holder := f.user(t, "holder@example.com", domain.RoleAdmin, "")
	member := f.user(t, "member@example.com", domain.RoleGuest, holder.ID())
	outsider := f.user(t, "out@example.com", domain.RoleUser, "")

	byHolder := f.client(t, holder, "Holder Co")
	byMember := f.client(t, member, "Member Co")
	byOutsider := f.client(t, outsider, "Outsider Co")

	principals := []*auth.Principal{holder, member, outsider}
	records := []*domain.Client{byHolder, byMember, byOutsider}
	for _, p := range principals {
		listed, err := f.clients.List(ctx, p)
		require.NoError(t, err)
		ids := map[string]bool{}
		for _, c := range listed {
			ids[c.ID] = true
		}

		for _, r := range records {
			want := r.CreatedBy == p.ID() || r.Company == auth.ScopeOf(p.User)
			assert.Equal(t, want, auth.Visible(p, r.Ownership), "%s on %s", p.User.Email, r.Name)
			assert.Equal(t, want, ids[r.ID], "list %s on %s", p.User.Email, r.Name)

			_, err := f.clients.Get(ctx, p, r.ID)
			if want {
				assert.NoError(t, err)
			} else {
				requireCode(t, err, apperrors.CodeNotFound)
			}
		}
	}
}

func TestClientMutationPolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	holder := f.user(t, "holder@example.com", domain.RoleUser, "")
	guest := f.user(t, "guest@example.com", domain.RoleGuest, holder.ID())
	admin := f.user(t, "admin@example.com", domain.RoleAdmin, holder.ID())

	byGuest := f.client(t, guest, "Guest Co")
	byHolder := f.client(t, holder, "Holder Co")

	_, err := f.clients.Update(ctx, guest, byHolder.ID, ClientInput{Name: "Renamed"})
	requireCode(t, err, apperrors.CodeForbidden)
	err = f.clients.Delete(ctx, guest, byHolder.ID)
	requireCode(t, err, apperrors.CodeForbidden)

	updated, err := f.clients.Update(ctx, holder, byGuest.ID, ClientInput{Name: "Guest Co", Phone: "1"})
	require.NoError(t, err)
	assert.Equal(t, "1", updated.Phone)

	_, err = f.clients.Archive(ctx, admin, byHolder.ID)
	require.NoError(t, err)
}

func TestClientUpdateRenameConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com", domain.RoleUser, "")
	f.client(t, a, "Acme")
	other := f.client(t, a, "Globex")

	_, err := f.clients.Update(ctx, a, other.ID, ClientInput{Name: "Acme"})
	requireCode(t, err, apperrors.CodeConflict)

	renamed, err := f.clients.Update(ctx, a, other.ID, ClientInput{Name: "Initech"})
	require.NoError(t, err)
	assert.Equal(t, "Initech", renamed.Name)
}

func TestClientValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com", domain.RoleUser, "")

	_, err := f.clients.Create(ctx, a, ClientInput{Name: "  "})
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.clients.Create(ctx, a, ClientInput{Name: "Acme", ContactEmail: "not-an-email"})
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.clients.Get(ctx, a, "not-a-uuid")
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.clients.List(ctx, nil)
	requireCode(t, err, apperrors.CodeUnauthorized)
}

func TestClientListsSplitByArchiveState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com", domain.RoleUser, "")
	active := f.client(t, a, "Active")
	old := f.client(t, a, "Old")
	_, err := f.clients.Archive(ctx, a, old.ID)
	require.NoError(t, err)

	listed, err := f.clients.List(ctx, a)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, active.ID, listed[0].ID)

	archived, err := f.clients.ListArchived(ctx, a)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, old.ID, archived[0].ID)
}
