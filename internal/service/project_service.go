package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/deliverynote-service/internal/auth"
	"github.com/spec-kit/deliverynote-service/internal/domain"
	"github.com/spec-kit/deliverynote-service/internal/lifecycle"
	"github.com/spec-kit/deliverynote-service/internal/observability"
	"github.com/spec-kit/deliverynote-service/internal/repository"
	apperrors "github.com/spec-kit/deliverynote-service/pkg/util"
)

const resourceProject = "project"

// ProjectService manages projects belonging to clients.
type ProjectService struct {
	projects repository.ProjectRepository
	clients  repository.ClientRepository
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// ProjectDependencies bundles collaborators for the project service.
type ProjectDependencies struct {
	ProjectRepo repository.ProjectRepository
	ClientRepo  repository.ClientRepository
	Logger      *zap.Logger
	Metrics     *observability.Metrics
}

// ProjectInput describes project creation and update payloads.
type ProjectInput struct {
	Name        string
	Description string
	ClientID    string
}

// NewProjectService constructs the service.
func NewProjectService(deps ProjectDependencies) *ProjectService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{
		projects: deps.ProjectRepo,
		clients:  deps.ClientRepo,
		logger:   logger,
		metrics:  deps.Metrics,
	}
}

func (in ProjectInput) normalized() ProjectInput {
	return ProjectInput{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		ClientID:    strings.TrimSpace(in.ClientID),
	}
}

func (in ProjectInput) validate() error {
	errs := fieldErrors{}
	errs.required("name", in.Name)
	errs.id("client", in.ClientID)
	return errs.err("invalid project")
}

// Create adds a project for a client visible to the caller. Names are unique per
// client among the scope's active projects.
func (s *ProjectService) Create(ctx context.Context, p *auth.Principal, input ProjectInput) (*domain.Project, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	input = input.normalized()
	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := s.requireActiveClient(ctx, p, input.ClientID); err != nil {
		return nil, err
	}

	exists, err := s.projects.ExistsByName(ctx, input.Name, input.ClientID, p.Scope)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if exists {
		return nil, apperrors.NewConflict("project already exists", map[string]any{"name": input.Name, "client": input.ClientID})
	}

	project := &domain.Project{
		Name:        input.Name,
		Description: input.Description,
		ClientID:    input.ClientID,
		Ownership:   ownershipFor(p),
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, repoError(err, resourceProject, map[string]any{"name": input.Name})
	}
	s.metrics.RecordCreated(resourceProject)
	return project, nil
}

// Update replaces the editable fields of a project.
func (s *ProjectService) Update(ctx context.Context, p *auth.Principal, id string, input ProjectInput) (*domain.Project, error) {
	project, err := s.loadMutable(ctx, p, id)
	if err != nil {
		return nil, err
	}
	input = input.normalized()
	if input.ClientID == "" {
		input.ClientID = project.ClientID
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	if input.ClientID != project.ClientID {
		if err := s.requireActiveClient(ctx, p, input.ClientID); err != nil {
			return nil, err
		}
	}

	if (input.Name != project.Name || input.ClientID != project.ClientID) && !project.Archived {
		exists, err := s.projects.ExistsByName(ctx, input.Name, input.ClientID, project.Company)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		if exists {
			return nil, apperrors.NewConflict("project already exists", map[string]any{"name": input.Name, "client": input.ClientID})
		}
	}

	project.Name = input.Name
	project.Description = input.Description
	project.ClientID = input.ClientID
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, repoError(err, resourceProject, map[string]any{"id": id})
	}
	return project, nil
}

// Get returns a visible project, archived or not.
func (s *ProjectService) Get(ctx context.Context, p *auth.Principal, id string) (*domain.Project, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if err := ValidateID("id", id); err != nil {
		return nil, err
	}
	project, err := s.projects.FindOne(ctx, visibleFilter(p, id))
	if err != nil {
		return nil, repoError(err, resourceProject, map[string]any{"id": id})
	}
	return project, nil
}

// List returns visible active projects, optionally for a single client.
func (s *ProjectService) List(ctx context.Context, p *auth.Principal, clientID string) ([]domain.Project, error) {
	return s.list(ctx, p, false, clientID)
}

// ListArchived returns visible archived projects.
func (s *ProjectService) ListArchived(ctx context.Context, p *auth.Principal) ([]domain.Project, error) {
	return s.list(ctx, p, true, "")
}

func (s *ProjectService) list(ctx context.Context, p *auth.Principal, archived bool, clientID string) ([]domain.Project, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	filter := listFilter(p, archived)
	if clientID != "" {
		if err := ValidateID("client", clientID); err != nil {
			return nil, err
		}
		filter.ClientID = &clientID
	}
	projects, err := s.projects.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return projects, nil
}

// Archive hides a project from normal listings.
func (s *ProjectService) Archive(ctx context.Context, p *auth.Principal, id string) (*domain.Project, error) {
	return s.transition(ctx, p, id, lifecycle.ActionArchive)
}

// Restore returns an archived project to normal listings. It conflicts when an
// active project of the same client already carries its name.
func (s *ProjectService) Restore(ctx context.Context, p *auth.Principal, id string) (*domain.Project, error) {
	return s.transition(ctx, p, id, lifecycle.ActionRestore)
}

// Delete removes a project permanently. Its delivery notes are left in place.
func (s *ProjectService) Delete(ctx context.Context, p *auth.Principal, id string) error {
	project, err := s.loadMutable(ctx, p, id)
	if err != nil {
		return err
	}
	if _, err := lifecycle.Next(lifecycle.StateOf(project.Archived), lifecycle.ActionHardDelete); err != nil {
		return lifecycleError(err, resourceProject, id)
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		return repoError(err, resourceProject, map[string]any{"id": id})
	}
	s.metrics.RecordTransition(resourceProject, string(lifecycle.ActionHardDelete))
	s.logger.Info("project deleted", zap.String("project_id", id), zap.String("by", p.ID()))
	return nil
}

func (s *ProjectService) transition(ctx context.Context, p *auth.Principal, id string, action lifecycle.Action) (*domain.Project, error) {
	project, err := s.loadMutable(ctx, p, id)
	if err != nil {
		return nil, err
	}
	archived, err := lifecycle.Archived(project.Archived, action)
	if err != nil {
		return nil, lifecycleError(err, resourceProject, id)
	}
	if !archived && project.Archived {
		exists, err := s.projects.ExistsByName(ctx, project.Name, project.ClientID, project.Company)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		if exists {
			return nil, apperrors.NewConflict("project already exists", map[string]any{"name": project.Name})
		}
	}
	updated, err := s.projects.SetArchived(ctx, id, archived)
	if err != nil {
		return nil, repoError(err, resourceProject, map[string]any{"id": id})
	}
	s.metrics.RecordTransition(resourceProject, string(action))
	return updated, nil
}

func (s *ProjectService) loadMutable(ctx context.Context, p *auth.Principal, id string) (*domain.Project, error) {
	project, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeMutation(p, project.Ownership, resourceProject); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) requireActiveClient(ctx context.Context, p *auth.Principal, clientID string) error {
	client, err := s.clients.FindOne(ctx, visibleFilter(p, clientID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound(resourceClient, map[string]any{"id": clientID})
		}
		return apperrors.NewInternalError(err)
	}
	if client.Archived {
		return apperrors.NewStateError("client is archived", map[string]any{"client": clientID})
	}
	return nil
}
