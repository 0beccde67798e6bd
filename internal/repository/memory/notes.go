package memory

import (
	"context"
	"time"

	"github.com/spec-kit/deliverynote-service/internal/domain"
	"github.com/spec-kit/deliverynote-service/internal/repository"
)

type noteRepo struct{ s *Store }

func (r *noteRepo) Create(_ context.Context, note *domain.DeliveryNote) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	note.ID = r.s.newID()
	note.CreatedAt, note.UpdatedAt = now, now
	r.s.notes[note.ID] = copyNote(*note)
	return nil
}

func (r *noteRepo) Update(_ context.Context, note *domain.DeliveryNote) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.notes[note.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Type = note.Type
	existing.ProjectID = note.ProjectID
	existing.Hours = note.Hours
	existing.Materials = note.Materials
	existing.Signed = note.Signed
	existing.SignatureURL = note.SignatureURL
	existing.PDFURL = note.PDFURL
	existing.UpdatedAt = r.s.now()
	r.s.notes[note.ID] = copyNote(existing)
	*note = copyNote(existing)
	return nil
}

func (r *noteRepo) GetByID(ctx context.Context, id string) (*domain.DeliveryNote, error) {
	return r.FindOne(ctx, repository.ScopeFilter{ID: &id})
}

func (r *noteRepo) FindOne(ctx context.Context, filter repository.ScopeFilter) (*domain.DeliveryNote, error) {
	items, err := r.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, repository.ErrNotFound
	}
	return &items[0], nil
}

func (r *noteRepo) List(_ context.Context, filter repository.ScopeFilter) ([]domain.DeliveryNote, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := []domain.DeliveryNote{}
	for _, note := range r.s.notes {
		if filter.ProjectID != nil && *filter.ProjectID != note.ProjectID {
			continue
		}
		if filter.Matches(note.ID, note.Ownership, note.Archived) {
			result = append(result, copyNote(note))
		}
	}
	sortByCreated(result, func(n domain.DeliveryNote) time.Time { return n.CreatedAt })
	return result, nil
}

func (r *noteRepo) SetArchived(_ context.Context, id string, archived bool) (*domain.DeliveryNote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	note, ok := r.s.notes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	note.Archived = archived
	note.UpdatedAt = r.s.now()
	r.s.notes[id] = note
	out := copyNote(note)
	return &out, nil
}

func (r *noteRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	note, ok := r.s.notes[id]
	if !ok || note.Signed {
		return repository.ErrNotFound
	}
	delete(r.s.notes, id)
	return nil
}

func copyNote(n domain.DeliveryNote) domain.DeliveryNote {
	n.Hours = append([]domain.HourEntry(nil), n.Hours...)
	n.Materials = append([]domain.MaterialEntry(nil), n.Materials...)
	return n
}
