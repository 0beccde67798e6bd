package memory

import (
	"context"

	"github.com/spec-kit/deliverynote-service/internal/domain"
	"github.com/spec-kit/deliverynote-service/internal/repository"
)

type resetRepo struct{ s *Store }

func (r *resetRepo) Create(_ context.Context, reset *domain.PasswordReset) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reset.ID = r.s.newID()
	reset.CreatedAt = r.s.now()
	r.s.resets[reset.ID] = *reset
	return nil
}

func (r *resetRepo) GetActive(_ context.Context, userID, code string) (*domain.PasswordReset, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var found *domain.PasswordReset
	for _, reset := range r.s.resets {
		if reset.UserID != userID || reset.Code != code || reset.UsedAt != nil {
			continue
		}
		if found == nil || reset.CreatedAt.After(found.CreatedAt) {
			candidate := reset
			found = &candidate
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func (r *resetRepo) MarkUsed(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reset, ok := r.s.resets[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := r.s.now()
	reset.UsedAt = &now
	r.s.resets[id] = reset
	return nil
}
