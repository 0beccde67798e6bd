package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/deliverynote-service/internal/domain"
	"github.com/spec-kit/deliverynote-service/internal/events"
	apperrors "github.com/spec-kit/deliverynote-service/pkg/util"
)

func TestDeliveryNoteEntriesMustMatchType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com", domain.RoleUser, "")
	project := f.project(t, a, f.client(t, a, "Acme").ID, "Warehouse")

	cases := map[string]DeliveryNoteInput{
		"unknown type": {Type: "days", ProjectID: project.ID},
		"materials on hours note": {
			Type:      domain.DeliveryNoteHours,
			ProjectID: project.ID,
			Materials: []domain.MaterialEntry{{Material: "cement", Quantity: 1}},
		},
		"hour entry without person": {
			Type:      domain.DeliveryNoteHours,
			ProjectID: project.ID,
			Hours:     []domain.HourEntry{{HoursWorked: 2}},
		},
		"non positive quantity": {
			Type:      domain.DeliveryNoteMaterials,
			ProjectID: project.ID,
			Materials: []domain.MaterialEntry{{Material: "cement", Quantity: 0}},
		},
		"bad project id": {Type: domain.DeliveryNoteHours, ProjectID: "x"},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.notes.Create(ctx, a, input)
			requireCode(t, err, apperrors.CodeValidation)
		})
	}
}

func TestDeliveryNoteCreateCapturesScope(t *testing.T) {
	f := newFixture(t)
	holder := f.user(t, "holder@example.com", domain.RoleUser, "")
	member := f.user(t, "member@example.com", domain.RoleGuest, holder.ID())
	project := f.project(t, holder, f.client(t, holder, "Acme").ID, "Warehouse")

	note := f.hoursNote(t, member, project.ID)
	assert.Equal(t, member.ID(), note.CreatedBy)
	assert.Equal(t, holder.ID(), note.Company)
	assert.False(t, note.Signed)

	_, err := f.notes.Get(context.Background(), holder, note.ID)
	require.NoError(t, err)
}

func TestSignedNoteCannotBeDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com", domain.RoleUser, "")
	project := f.project(t, a, f.client(t, a, "Acme").ID, "Warehouse")
	note := f.hoursNote(t, a, project.ID)

	signed, err := f.notes.Sign(ctx, a, note.ID, []byte("sig"), "sig.png")
	require.NoError(t, err)
	assert.True(t, signed.Signed)
	assert.Equal(t, "https://gateway.test/ipfs/sig.png", signed.SignatureURL)

	for i := 0; i < 3; i++ {
		err := f.notes.Delete(ctx, a, note.ID)
		requireCode(t, err, apperrors.CodeState)
		assert.Contains(t, err.Error(), "cannot delete signed delivery note")
	}

	_, err = f.notes.Archive(ctx, a, note.ID)
	require.NoError(t, err)
	requireCode(t, f.notes.Delete(ctx, a, note.ID), apperrors.CodeState)

	stored, err := f.notes.Get(ctx, a, note.ID)
	require.NoError(t, err)
	assert.True(t, stored.Signed)

	require.Len(t, f.events.ofType(events.EventDeliveryNoteSigned), 1)
}

func TestResignOverwritesSignature(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com", domain.RoleUser, "")
	project := f.project(t, a, f.client(t, a, "Acme").ID, "Warehouse")
	note := f.hoursNote(t, a, project.ID)

	_, err := f.notes.Sign(ctx, a, note.ID, []byte("first"), "first.png")
	require.NoError(t, err)
	second, err := f.notes.Sign(ctx, a, note.ID, []byte("second"), "second.png")
	require.NoError(t, err)
	assert.Equal(t, "https://gateway.test/ipfs/second.png", second.SignatureURL)

	signedEvents := f.events.ofType(events.EventDeliveryNoteSigned)
	require.Len(t, signedEvents, 2)
	assert.True(t, signedEvents[1].Payload.(events.DeliveryNoteSignedPayload).Resigned)
}

func TestSignRejectsBadAssets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com", domain.RoleUser, "")
	project := f.project(t, a, f.client(t, a, "Acme").ID, "Warehouse")
	note := f.hoursNote(t, a, project.ID)

	_, err := f.notes.Sign(ctx, a, note.ID, nil, "sig.png")
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.notes.Sign(ctx, a, note.ID, bytes.Repeat([]byte("x"), 65), "sig.png")
	requireCode(t, err, apperrors.CodeValidation)
	assert.Zero(t, f.uploader.calls)

	f.uploader.err = errors.New("pinata down")
	_, err = f.notes.Sign(ctx, a, note.ID, []byte("sig"), "sig.png")
	requireCode(t, err, apperrors.CodeUpstream)
	assert.NotContains(t, apperrors.ToDomainError(err).Message, "pinata down")

	stored, err := f.notes.Get(ctx, a, note.ID)
	require.NoError(t, err)
	assert.False(t, stored.Signed)

	require.NoError(t, f.notes.Delete(ctx, a, note.ID))
}

func TestDeliveryNoteArchiveRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com", domain.RoleUser, "")
	project := f.project(t, a, f.client(t, a, "Acme").ID, "Warehouse")
	note := f.hoursNote(t, a, project.ID)

	_, err := f.notes.Archive(ctx, a, note.ID)
	require.NoError(t, err)
	active, err := f.notes.List(ctx, a, "")
	require.NoError(t, err)
	assert.Empty(t, active)
	archived, err := f.notes.ListArchived(ctx, a)
	require.NoError(t, err)
	assert.Len(t, archived, 1)

	restored, err := f.notes.Restore(ctx, a, note.ID)
	require.NoError(t, err)
	assert.False(t, restored.Archived)
	assert.Equal(t, note.Hours, restored.Hours)

	_, err = f.notes.Restore(ctx, a, note.ID)
	requireCode(t, err, apperrors.CodeState)
}

func TestExportHoursNote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com", domain.RoleUser, "")
	project := f.project(t, a, f.client(t, a, "Acme").ID, "Warehouse")
	note := f.hoursNote(t, a, project.ID)

	result, err := f.notes.Export(ctx, a, note.ID)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.exportDir, "deliverynote-"+note.ID+".pdf"), result.Path)
	assert.Equal(t, "deliverynote-"+note.ID+".pdf", result.FileName)

	data, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	stored, err := f.notes.Get(ctx, a, note.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Path, stored.PDFURL)
}

func TestExportFailsOnMissingReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com", domain.RoleUser, "")
	acme := f.client(t, a, "Acme")
	project := f.project(t, a, acme.ID, "Warehouse")
	note := f.hoursNote(t, a, project.ID)

	require.NoError(t, f.clients.Delete(ctx, a, acme.ID))
	_, err := f.notes.Export(ctx, a, note.ID)
	requireCode(t, err, apperrors.CodeState)

	entries, err := os.ReadDir(f.exportDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDeliveryNoteUpdateKeepsSignature(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com", domain.RoleUser, "")
	project := f.project(t, a, f.client(t, a, "Acme").ID, "Warehouse")
	note := f.hoursNote(t, a, project.ID)
	_, err := f.notes.Sign(ctx, a, note.ID, []byte("sig"), "sig.png")
	require.NoError(t, err)

	updated, err := f.notes.Update(ctx, a, note.ID, DeliveryNoteInput{
		Hours: []domain.HourEntry{{Person: "Jane", HoursWorked: 4, Description: "setup"}},
	})
	require.NoError(t, err)
	assert.True(t, updated.Signed)
	assert.Equal(t, 4.0, updated.Hours[0].HoursWorked)
	assert.Equal(t, domain.DeliveryNoteHours, updated.Type)
}

func TestDeliveryNoteMutationRequiresRights(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	holder := f.user(t, "holder@example.com", domain.RoleUser, "")
	guest := f.user(t, "guest@example.com", domain.RoleGuest, holder.ID())
	outsider := f.user(t, "out@example.com", domain.RoleUser, "")
	project := f.project(t, holder, f.client(t, holder, "Acme").ID, "Warehouse")
	note := f.hoursNote(t, holder, project.ID)

	_, err := f.notes.Sign(ctx, guest, note.ID, []byte("sig"), "sig.png")
	requireCode(t, err, apperrors.CodeForbidden)

	err = f.notes.Delete(ctx, outsider, note.ID)
	requireCode(t, err, apperrors.CodeNotFound)
}
