package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/deliverynote-service/internal/auth"
	"github.com/spec-kit/deliverynote-service/internal/domain"
	"github.com/spec-kit/deliverynote-service/internal/events"
	"github.com/spec-kit/deliverynote-service/internal/export"
	"github.com/spec-kit/deliverynote-service/internal/lifecycle"
	"github.com/spec-kit/deliverynote-service/internal/observability"
	"github.com/spec-kit/deliverynote-service/internal/repository"
	"github.com/spec-kit/deliverynote-service/internal/storage"
	apperrors "github.com/spec-kit/deliverynote-service/pkg/util"
)

const resourceNote = "delivery note"

// DocumentExporter renders a document to retrievable storage.
type DocumentExporter interface {
	Export(ctx context.Context, doc *export.Document) (string, error)
	FileName(noteID string) string
}

// DeliveryNoteService coordinates delivery note workflows.
type DeliveryNoteService struct {
	notes      repository.DeliveryNoteRepository
	projects   repository.ProjectRepository
	clients    repository.ClientRepository
	users      repository.UserRepository
	uploader   storage.Uploader
	exporter   DocumentExporter
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	maxUpload  int64
}

// DeliveryNoteDependencies bundles collaborators for the delivery note service.
type DeliveryNoteDependencies struct {
	NoteRepo       repository.DeliveryNoteRepository
	ProjectRepo    repository.ProjectRepository
	ClientRepo     repository.ClientRepository
	UserRepo       repository.UserRepository
	Uploader       storage.Uploader
	Exporter       DocumentExporter
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	Metrics        *observability.Metrics
	MaxUploadBytes int64
}

// DeliveryNoteInput describes delivery note creation and update payloads.
type DeliveryNoteInput struct {
	Type      domain.DeliveryNoteType
	ProjectID string
	Hours     []domain.HourEntry
	Materials []domain.MaterialEntry
}

// ExportResult locates a rendered document.
type ExportResult struct {
	Path     string
	FileName string
	Note     *domain.DeliveryNote
}

// NewDeliveryNoteService constructs the service.
func NewDeliveryNoteService(deps DeliveryNoteDependencies) *DeliveryNoteService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeliveryNoteService{
		notes:      deps.NoteRepo,
		projects:   deps.ProjectRepo,
		clients:    deps.ClientRepo,
		users:      deps.UserRepo,
		uploader:   deps.Uploader,
		exporter:   deps.Exporter,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
		maxUpload:  deps.MaxUploadBytes,
	}
}

func (in DeliveryNoteInput) validate() error {
	errs := fieldErrors{}
	errs.id("project", in.ProjectID)
	validateEntries(errs, in.Type, in.Hours, in.Materials)
	return errs.err("invalid delivery note")
}

// Create records a delivery note against a project visible to the caller.
func (s *DeliveryNoteService) Create(ctx context.Context, p *auth.Principal, input DeliveryNoteInput) (*domain.DeliveryNote, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := s.requireActiveProject(ctx, p, input.ProjectID); err != nil {
		return nil, err
	}

	note := &domain.DeliveryNote{
		Type:      input.Type,
		ProjectID: input.ProjectID,
		Ownership: ownershipFor(p),
		Hours:     input.Hours,
		Materials: input.Materials,
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, repoError(err, resourceNote, nil)
	}
	s.metrics.RecordCreated("delivery_note")
	return note, nil
}

// Update replaces type, project and entries. Signed notes stay editable.
func (s *DeliveryNoteService) Update(ctx context.Context, p *auth.Principal, id string, input DeliveryNoteInput) (*domain.DeliveryNote, error) {
	note, err := s.loadMutable(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if input.ProjectID == "" {
		input.ProjectID = note.ProjectID
	}
	if input.Type == "" {
		input.Type = note.Type
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	if input.ProjectID != note.ProjectID {
		if err := s.requireActiveProject(ctx, p, input.ProjectID); err != nil {
			return nil, err
		}
	}

	note.Type = input.Type
	note.ProjectID = input.ProjectID
	note.Hours = input.Hours
	note.Materials = input.Materials
	if err := s.notes.Update(ctx, note); err != nil {
		return nil, repoError(err, resourceNote, map[string]any{"id": id})
	}
	return note, nil
}

// Get returns a visible delivery note, archived or not.
func (s *DeliveryNoteService) Get(ctx context.Context, p *auth.Principal, id string) (*domain.DeliveryNote, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if err := ValidateID("id", id); err != nil {
		return nil, err
	}
	note, err := s.notes.FindOne(ctx, visibleFilter(p, id))
	if err != nil {
		return nil, repoError(err, resourceNote, map[string]any{"id": id})
	}
	return note, nil
}

// List returns visible active delivery notes, optionally for a single project.
func (s *DeliveryNoteService) List(ctx context.Context, p *auth.Principal, projectID string) ([]domain.DeliveryNote, error) {
	return s.list(ctx, p, false, projectID)
}

// ListArchived returns visible archived delivery notes.
func (s *DeliveryNoteService) ListArchived(ctx context.Context, p *auth.Principal) ([]domain.DeliveryNote, error) {
	return s.list(ctx, p, true, "")
}

func (s *DeliveryNoteService) list(ctx context.Context, p *auth.Principal, archived bool, projectID string) ([]domain.DeliveryNote, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	filter := listFilter(p, archived)
	if projectID != "" {
		if err := ValidateID("project", projectID); err != nil {
			return nil, err
		}
		filter.ProjectID = &projectID
	}
	notes, err := s.notes.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return notes, nil
}

// Archive hides a delivery note from normal listings.
func (s *DeliveryNoteService) Archive(ctx context.Context, p *auth.Principal, id string) (*domain.DeliveryNote, error) {
	return s.transition(ctx, p, id, lifecycle.ActionArchive)
}

// Restore returns an archived delivery note to normal listings.
func (s *DeliveryNoteService) Restore(ctx context.Context, p *auth.Principal, id string) (*domain.DeliveryNote, error) {
	return s.transition(ctx, p, id, lifecycle.ActionRestore)
}

// Delete removes an unsigned delivery note. Signed notes are always rejected.
func (s *DeliveryNoteService) Delete(ctx context.Context, p *auth.Principal, id string) error {
	note, err := s.loadMutable(ctx, p, id)
	if err != nil {
		return err
	}
	if err := lifecycle.CheckNoteDelete(note.Signed); err != nil {
		return lifecycleError(err, resourceNote, id)
	}
	if _, err := lifecycle.Next(lifecycle.StateOf(note.Archived), lifecycle.ActionHardDelete); err != nil {
		return lifecycleError(err, resourceNote, id)
	}

	if err := s.notes.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// signed concurrently: the store refuses signed rows
			if current, getErr := s.notes.GetByID(ctx, id); getErr == nil && current.Signed {
				return lifecycleError(lifecycle.ErrSignedNote, resourceNote, id)
			}
		}
		return repoError(err, resourceNote, map[string]any{"id": id})
	}
	s.metrics.RecordTransition("delivery_note", string(lifecycle.ActionHardDelete))
	s.logger.Info("delivery note deleted", zap.String("note_id", id), zap.String("by", p.ID()))
	return nil
}

// Sign pins the signature asset and marks the note signed. Signing again replaces
// the previous signature.
func (s *DeliveryNoteService) Sign(ctx context.Context, p *auth.Principal, id string, data []byte, filename string) (*domain.DeliveryNote, error) {
	note, err := s.loadMutable(ctx, p, id)
	if err != nil {
		return nil, err
	}
	resigned, err := lifecycle.CheckSign(note.Signed, len(data))
	if err != nil {
		return nil, lifecycleError(err, resourceNote, id)
	}
	if err := checkUpload("signature", data, s.maxUpload); err != nil {
		return nil, err
	}

	url, err := s.uploader.Upload(ctx, data, filename)
	if err != nil {
		return nil, upstreamFailure(s.logger, s.metrics, "asset storage", err)
	}

	previous := note.SignatureURL
	note.Signed = true
	note.SignatureURL = url
	if err := s.notes.Update(ctx, note); err != nil {
		return nil, repoError(err, resourceNote, map[string]any{"id": id})
	}
	if resigned {
		s.logger.Warn("delivery note re-signed",
			zap.String("note_id", id),
			zap.String("previous_signature", previous),
			zap.String("by", p.ID()))
	}
	s.metrics.RecordSigned()

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventDeliveryNoteSigned,
		SubjectID: note.ID,
		ActorID:   p.ID(),
		Payload: events.DeliveryNoteSignedPayload{
			ProjectID:    note.ProjectID,
			SignatureURL: url,
			Resigned:     resigned,
		},
	})
	return note, nil
}

// Export renders a visible note with its project, client and creator and records
// the document location on the note.
func (s *DeliveryNoteService) Export(ctx context.Context, p *auth.Principal, id string) (*ExportResult, error) {
	note, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}

	project, err := optional(s.projects.GetByID(ctx, note.ProjectID))
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	var client *domain.Client
	if project != nil {
		if client, err = optional(s.clients.GetByID(ctx, project.ClientID)); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}
	creator, err := optional(s.users.GetByID(ctx, note.CreatedBy))
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	doc, err := export.BuildDocument(note, project, client, creator)
	if err != nil {
		if errors.Is(err, export.ErrIncompleteNote) {
			return nil, apperrors.NewStateError(err.Error(), map[string]any{"id": id})
		}
		return nil, apperrors.NewInternalError(err)
	}

	path, err := s.exporter.Export(ctx, doc)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.metrics.RecordExport()

	if note.PDFURL != path {
		note.PDFURL = path
		if err := s.notes.Update(ctx, note); err != nil {
			return nil, repoError(err, resourceNote, map[string]any{"id": id})
		}
	}
	return &ExportResult{Path: path, FileName: s.exporter.FileName(note.ID), Note: note}, nil
}

func (s *DeliveryNoteService) transition(ctx context.Context, p *auth.Principal, id string, action lifecycle.Action) (*domain.DeliveryNote, error) {
	note, err := s.loadMutable(ctx, p, id)
	if err != nil {
		return nil, err
	}
	archived, err := lifecycle.Archived(note.Archived, action)
	if err != nil {
		return nil, lifecycleError(err, resourceNote, id)
	}
	updated, err := s.notes.SetArchived(ctx, id, archived)
	if err != nil {
		return nil, repoError(err, resourceNote, map[string]any{"id": id})
	}
	s.metrics.RecordTransition("delivery_note", string(action))
	return updated, nil
}

func (s *DeliveryNoteService) loadMutable(ctx context.Context, p *auth.Principal, id string) (*domain.DeliveryNote, error) {
	note, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeMutation(p, note.Ownership, resourceNote); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *DeliveryNoteService) requireActiveProject(ctx context.Context, p *auth.Principal, projectID string) error {
	project, err := s.projects.FindOne(ctx, visibleFilter(p, projectID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound(resourceProject, map[string]any{"id": projectID})
		}
		return apperrors.NewInternalError(err)
	}
	if project.Archived {
		return apperrors.NewStateError("project is archived", map[string]any{"project": projectID})
	}
	return nil
}

// optional turns a not-found lookup into a nil record.
func optional[T any](record *T, err error) (*T, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}
