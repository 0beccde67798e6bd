package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/deliverynote-service/internal/auth"
	"github.com/spec-kit/deliverynote-service/internal/domain"
	"github.com/spec-kit/deliverynote-service/internal/lifecycle"
	"github.com/spec-kit/deliverynote-service/internal/observability"
	"github.com/spec-kit/deliverynote-service/internal/repository"
	apperrors "github.com/spec-kit/deliverynote-service/pkg/util"
)

const resourceClient = "client"

// ClientService manages customers within a scope.
type ClientService struct {
	clients repository.ClientRepository
	logger  *zap.Logger
	metrics *observability.Metrics
}

// ClientDependencies bundles collaborators for the client service.
type ClientDependencies struct {
	ClientRepo repository.ClientRepository
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// ClientInput describes client creation and update payloads.
type ClientInput struct {
	Name         string
	ContactEmail string
	Phone        string
	Address      string
}

// NewClientService constructs the service.
func NewClientService(deps ClientDependencies) *ClientService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientService{clients: deps.ClientRepo, logger: logger, metrics: deps.Metrics}
}

func (in ClientInput) validate() error {
	errs := fieldErrors{}
	errs.required("name", in.Name)
	errs.optionalEmail("email", in.ContactEmail)
	return errs.err("invalid client")
}

func (in ClientInput) normalized() ClientInput {
	return ClientInput{
		Name:         strings.TrimSpace(in.Name),
		ContactEmail: normalizeEmail(in.ContactEmail),
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
	}
}

// Create adds a client to the caller's scope. Names are unique among the
// scope's active clients; the check is best effort and not atomic with the insert.
func (s *ClientService) Create(ctx context.Context, p *auth.Principal, input ClientInput) (*domain.Client, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	input = input.normalized()
	if err := input.validate(); err != nil {
		return nil, err
	}

	exists, err := s.clients.ExistsByName(ctx, input.Name, p.Scope)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if exists {
		return nil, apperrors.NewConflict("client already exists", map[string]any{"name": input.Name})
	}

	client := &domain.Client{
		Name:         input.Name,
		ContactEmail: input.ContactEmail,
		Phone:        input.Phone,
		Address:      input.Address,
		Ownership:    ownershipFor(p),
	}
	if err := s.clients.Create(ctx, client); err != nil {
		return nil, repoError(err, resourceClient, map[string]any{"name": input.Name})
	}
	s.metrics.RecordCreated(resourceClient)
	return client, nil
}

// Update replaces the editable fields of a client.
func (s *ClientService) Update(ctx context.Context, p *auth.Principal, id string, input ClientInput) (*domain.Client, error) {
	client, err := s.loadMutable(ctx, p, id)
	if err != nil {
		return nil, err
	}
	input = input.normalized()
	if err := input.validate(); err != nil {
		return nil, err
	}

	if input.Name != client.Name && !client.Archived {
		exists, err := s.clients.ExistsByName(ctx, input.Name, client.Company)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		if exists {
			return nil, apperrors.NewConflict("client already exists", map[string]any{"name": input.Name})
		}
	}

	client.Name = input.Name
	client.ContactEmail = input.ContactEmail
	client.Phone = input.Phone
	client.Address = input.Address
	if err := s.clients.Update(ctx, client); err != nil {
		return nil, repoError(err, resourceClient, map[string]any{"id": id})
	}
	return client, nil
}

// Get returns a visible client, archived or not.
func (s *ClientService) Get(ctx context.Context, p *auth.Principal, id string) (*domain.Client, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if err := ValidateID("id", id); err != nil {
		return nil, err
	}
	client, err := s.clients.FindOne(ctx, visibleFilter(p, id))
	if err != nil {
		return nil, repoError(err, resourceClient, map[string]any{"id": id})
	}
	return client, nil
}

// List returns the caller's visible active clients.
func (s *ClientService) List(ctx context.Context, p *auth.Principal) ([]domain.Client, error) {
	return s.list(ctx, p, false)
}

// ListArchived returns the caller's visible archived clients.
func (s *ClientService) ListArchived(ctx context.Context, p *auth.Principal) ([]domain.Client, error) {
	return s.list(ctx, p, true)
}

func (s *ClientService) list(ctx context.Context, p *auth.Principal, archived bool) ([]domain.Client, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	clients, err := s.clients.List(ctx, listFilter(p, archived))
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return clients, nil
}

// Archive hides a client from normal listings.
func (s *ClientService) Archive(ctx context.Context, p *auth.Principal, id string) (*domain.Client, error) {
	return s.transition(ctx, p, id, lifecycle.ActionArchive)
}

// Restore returns an archived client to normal listings. It conflicts when an
// active client in the same scope already carries its name.
func (s *ClientService) Restore(ctx context.Context, p *auth.Principal, id string) (*domain.Client, error) {
	return s.transition(ctx, p, id, lifecycle.ActionRestore)
}

// Delete removes a client permanently. Its projects are left in place.
func (s *ClientService) Delete(ctx context.Context, p *auth.Principal, id string) error {
	client, err := s.loadMutable(ctx, p, id)
	if err != nil {
		return err
	}
	if _, err := lifecycle.Next(lifecycle.StateOf(client.Archived), lifecycle.ActionHardDelete); err != nil {
		return lifecycleError(err, resourceClient, id)
	}
	if err := s.clients.Delete(ctx, id); err != nil {
		return repoError(err, resourceClient, map[string]any{"id": id})
	}
	s.metrics.RecordTransition(resourceClient, string(lifecycle.ActionHardDelete))
	s.logger.Info("client deleted", zap.String("client_id", id), zap.String("by", p.ID()))
	return nil
}

func (s *ClientService) transition(ctx context.Context, p *auth.Principal, id string, action lifecycle.Action) (*domain.Client, error) {
	client, err := s.loadMutable(ctx, p, id)
	if err != nil {
		return nil, err
	}
	archived, err := lifecycle.Archived(client.Archived, action)
	if err != nil {
		return nil, lifecycleError(err, resourceClient, id)
	}
	if !archived && client.Archived {
		exists, err := s.clients.ExistsByName(ctx, client.Name, client.Company)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		if exists {
			return nil, apperrors.NewConflict("client already exists", map[string]any{"name": client.Name})
		}
	}
	updated, err := s.clients.SetArchived(ctx, id, archived)
	if err != nil {
		return nil, repoError(err, resourceClient, map[string]any{"id": id})
	}
	s.metrics.RecordTransition(resourceClient, string(action))
	return updated, nil
}

func (s *ClientService) loadMutable(ctx context.Context, p *auth.Principal, id string) (*domain.Client, error) {
	client, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeMutation(p, client.Ownership, resourceClient); err != nil {
		return nil, err
	}
	return client, nil
}
