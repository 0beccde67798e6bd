package memory

import (
	"context"
	"time"

	"github.com/spec-kit/deliverynote-service/internal/domain"
	"github.com/spec-kit/deliverynote-service/internal/repository"
)

type projectRepo struct{ s *Store }

func (r *projectRepo) Create(_ context.Context, project *domain.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	project.ID = r.s.newID()
	project.CreatedAt, project.UpdatedAt = now, now
	r.s.projects[project.ID] = *project
	return nil
}

func (r *projectRepo) Update(_ context.Context, project *domain.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.projects[project.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Name = project.Name
	existing.Description = project.Description
	existing.ClientID = project.ClientID
	existing.UpdatedAt = r.s.now()
	r.s.projects[project.ID] = existing
	*project = existing
	return nil
}

func (r *projectRepo) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	return r.FindOne(ctx, repository.ScopeFilter{ID: &id})
}

func (r *projectRepo) FindOne(ctx context.Context, filter repository.ScopeFilter) (*domain.Project, error) {
	items, err := r.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, repository.ErrNotFound
	}
	return &items[0], nil
}

func (r *projectRepo) List(_ context.Context, filter repository.ScopeFilter) ([]domain.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := []domain.Project{}
	for _, project := range r.s.projects {
		if filter.ClientID != nil && *filter.ClientID != project.ClientID {
			continue
		}
		if filter.Matches(project.ID, project.Ownership, project.Archived) {
			result = append(result, project)
		}
	}
	sortByCreated(result, func(p domain.Project) time.Time { return p.CreatedAt })
	return result, nil
}

func (r *projectRepo) ExistsByName(_ context.Context, name, clientID, company string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, project := range r.s.projects {
		if project.Name == name && project.ClientID == clientID && project.Company == company && !project.Archived {
			return true, nil
		}
	}
	return false, nil
}

func (r *projectRepo) SetArchived(_ context.Context, id string, archived bool) (*domain.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	project, ok := r.s.projects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	project.Archived = archived
	project.UpdatedAt = r.s.now()
	r.s.projects[id] = project
	return &project, nil
}

func (r *projectRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.projects, id)
	return nil
}
