package memory

import (
	"context"
	"time"

	"github.com/spec-kit/deliverynote-service/internal/domain"
	"github.com/spec-kit/deliverynote-service/internal/repository"
)

type clientRepo struct{ s *Store }

func (r *clientRepo) Create(_ context.Context, client *domain.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	client.ID = r.s.newID()
	client.CreatedAt, client.UpdatedAt = now, now
	r.s.clients[client.ID] = *client
	return nil
}

func (r *clientRepo) Update(_ context.Context, client *domain.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.clients[client.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Name = client.Name
	existing.ContactEmail = client.ContactEmail
	existing.Phone = client.Phone
	existing.Address = client.Address
	existing.UpdatedAt = r.s.now()
	r.s.clients[client.ID] = existing
	*client = existing
	return nil
}

func (r *clientRepo) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	return r.FindOne(ctx, repository.ScopeFilter{ID: &id})
}

func (r *clientRepo) FindOne(ctx context.Context, filter repository.ScopeFilter) (*domain.Client, error) {
	items, err := r.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, repository.ErrNotFound
	}
	return &items[0], nil
}

func (r *clientRepo) List(_ context.Context, filter repository.ScopeFilter) ([]domain.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := []domain.Client{}
	for _, client := range r.s.clients {
		if filter.Matches(client.ID, client.Ownership, client.Archived) {
			result = append(result, client)
		}
	}
	sortByCreated(result, func(c domain.Client) time.Time { return c.CreatedAt })
	return result, nil
}

func (r *clientRepo) ExistsByName(_ context.Context, name, company string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, client := range r.s.clients {
		if client.Name == name && client.Company == company && !client.Archived {
			return true, nil
		}
	}
	return false, nil
}

func (r *clientRepo) SetArchived(_ context.Context, id string, archived bool) (*domain.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	client, ok := r.s.clients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	client.Archived = archived
	client.UpdatedAt = r.s.now()
	r.s.clients[id] = client
	return &client, nil
}

func (r *clientRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.clients[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.clients, id)
	return nil
}
