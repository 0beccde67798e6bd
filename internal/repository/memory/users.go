package memory

import (
	"context"

	"github.com/spec-kit/deliverynote-service/internal/domain"
	"github.com/spec-kit/deliverynote-service/internal/repository"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	now := r.s.now()
	user.ID = r.s.newID()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = copyUser(*user)
	return nil
}

func (r *userRepo) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = r.s.now()
	r.s.users[user.ID] = copyUser(*user)
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := copyUser(user)
	return &out, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, user := range r.s.users {
		if user.Email == email {
			out := copyUser(user)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Delete removes the user, detaches its company members and drops its reset codes.
func (r *userRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.users, id)
	for memberID, member := range r.s.users {
		if member.CompanyID != nil && *member.CompanyID == id {
			member.CompanyID = nil
			r.s.users[memberID] = member
		}
	}
	for resetID, reset := range r.s.resets {
		if reset.UserID == id {
			delete(r.s.resets, resetID)
		}
	}
	return nil
}

func copyUser(u domain.User) domain.User {
	if u.Company != nil {
		c := *u.Company
		u.Company = &c
	}
	if u.CompanyID != nil {
		id := *u.CompanyID
		u.CompanyID = &id
	}
	return u
}
