package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/deliverynote-service/internal/auth"
	"github.com/spec-kit/deliverynote-service/internal/domain"
	"github.com/spec-kit/deliverynote-service/internal/events"
	"github.com/spec-kit/deliverynote-service/internal/lifecycle"
	"github.com/spec-kit/deliverynote-service/internal/observability"
	"github.com/spec-kit/deliverynote-service/internal/repository"
	apperrors "github.com/spec-kit/deliverynote-service/pkg/util"
)

// repoError maps repository sentinel errors to domain errors for resource.
func repoError(err error, resource string, details map[string]any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, details)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict(resource+" already exists", details)
	default:
		return apperrors.NewInternalError(err)
	}
}

// lifecycleError maps lifecycle rejections to state errors.
func lifecycleError(err error, resource, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, lifecycle.ErrInvalidTransition) || errors.Is(err, lifecycle.ErrSignedNote) {
		return apperrors.NewStateError(err.Error(), map[string]any{"resource": resource, "id": id})
	}
	if errors.Is(err, lifecycle.ErrMissingSignature) {
		return apperrors.NewValidationError(err.Error(), map[string]any{"signature": "required"})
	}
	return apperrors.NewInternalError(err)
}

// authorizeMutation resolves the visible-but-not-mutable case to Forbidden.
func authorizeMutation(p *auth.Principal, owner domain.Ownership, resource string) error {
	if !auth.CanMutate(p, owner) {
		return apperrors.NewForbidden("not allowed to modify this " + resource)
	}
	return nil
}

// ownershipFor stamps a new record with the caller's identity and scope.
func ownershipFor(p *auth.Principal) domain.Ownership {
	return domain.Ownership{CreatedBy: p.ID(), Company: p.Scope}
}

func visibleFilter(p *auth.Principal, id string) repository.ScopeFilter {
	filter := p.Filter()
	filter.ID = &id
	return filter
}

func listFilter(p *auth.Principal, archived bool) repository.ScopeFilter {
	filter := p.Filter()
	filter.Archived = repository.Bool(archived)
	return filter
}

// publish emits event. Handler failures are logged and never undo the request.
func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("subject_id", event.SubjectID),
			zap.Error(err))
	}
}

// upstreamFailure records a failed collaborator call and hides its cause from the caller.
func upstreamFailure(logger *zap.Logger, metrics *observability.Metrics, service string, err error) error {
	metrics.RecordUpstreamFailure(service)
	logger.Error("upstream call failed", zap.String("service", service), zap.Error(err))
	return apperrors.NewUpstreamError(service, err)
}

func requirePrincipal(p *auth.Principal) error {
	if p == nil || p.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	return nil
}
