package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/deliverynote-service/internal/auth"
	"github.com/spec-kit/deliverynote-service/internal/config"
	"github.com/spec-kit/deliverynote-service/internal/domain"
	"github.com/spec-kit/deliverynote-service/internal/events"
	"github.com/spec-kit/deliverynote-service/internal/export"
	"github.com/spec-kit/deliverynote-service/internal/repository/memory"
	apperrors "github.com/spec-kit/deliverynote-service/pkg/util"
)

type stubUploader struct {
	mu    sync.Mutex
	url   string
	err   error
	calls int
}

func (u *stubUploader) Upload(_ context.Context, _ []byte, filename string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	if u.err != nil {
		return "", u.err
	}
	if u.url != "" {
		return u.url, nil
	}
	return "https://gateway.test/ipfs/" + filename, nil
}

// eventLog records every published event of the subscribed types.
type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func (l *eventLog) handler(_ context.Context, e events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return nil
}

func (l *eventLog) ofType(t events.EventType) []events.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []events.Event
	for _, e := range l.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func newEventLog(d events.Dispatcher) *eventLog {
	log := &eventLog{}
	for _, t := range []events.EventType{
		events.EventUserRegistered,
		events.EventGuestInvited,
		events.EventPasswordResetRequested,
		events.EventDeliveryNoteSigned,
	} {
		d.Subscribe(t, log.handler)
	}
	return log
}

func testConfig() config.Config {
	var cfg config.Config
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AccessTokenTTLMinutes = 60
	cfg.Auth.PasswordResetTTLMinutes = 30
	cfg.Auth.BcryptCost = 4
	cfg.Assets.MaxUploadBytes = 64
	return cfg
}

type fixture struct {
	store      *memory.Store
	dispatcher events.Dispatcher
	events     *eventLog
	uploader   *stubUploader
	auth       *AuthService
	clients    *ClientService
	projects   *ProjectService
	notes      *DeliveryNoteService
	exportDir  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	dispatcher := events.NewInMemoryDispatcher()
	uploader := &stubUploader{}
	cfg := testConfig()
	dir := t.TempDir()

	f := &fixture{
		store:      store,
		dispatcher: dispatcher,
		events:     newEventLog(dispatcher),
		uploader:   uploader,
		exportDir:  dir,
	}
	f.auth = NewAuthService(cfg, AuthDependencies{
		UserRepo:          store.Users(),
		PasswordResetRepo: store.PasswordResets(),
		Uploader:          uploader,
		Dispatcher:        dispatcher,
	})
	f.clients = NewClientService(ClientDependencies{ClientRepo: store.Clients()})
	f.projects = NewProjectService(ProjectDependencies{ProjectRepo: store.Projects(), ClientRepo: store.Clients()})
	f.notes = NewDeliveryNoteService(DeliveryNoteDependencies{
		NoteRepo:       store.DeliveryNotes(),
		ProjectRepo:    store.Projects(),
		ClientRepo:     store.Clients(),
		UserRepo:       store.Users(),
		Uploader:       uploader,
		Exporter:       export.NewExporter(dir, export.NewPDFRenderer()),
		Dispatcher:     dispatcher,
		MaxUploadBytes: cfg.Assets.MaxUploadBytes,
	})
	return f
}

// user stores an account and returns its principal. A non-empty company makes the
// user a member of that company holder's scope.
func (f *fixture) user(t *testing.T, email string, role domain.Role, company string) *auth.Principal {
	t.Helper()
	u := &domain.User{
		Email:    email,
		Status:   domain.UserStatusValidated,
		Role:     role,
		Attempts: domain.DefaultVerificationAttempts,
	}
	if company != "" {
		u.CompanyID = &company
	}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return auth.NewPrincipal(u)
}

func (f *fixture) client(t *testing.T, p *auth.Principal, name string) *domain.Client {
	t.Helper()
	c, err := f.clients.Create(context.Background(), p, ClientInput{Name: name})
	require.NoError(t, err)
	return c
}

func (f *fixture) project(t *testing.T, p *auth.Principal, clientID, name string) *domain.Project {
	t.Helper()
	pr, err := f.projects.Create(context.Background(), p, ProjectInput{Name: name, ClientID: clientID})
	require.NoError(t, err)
	return pr
}

func (f *fixture) hoursNote(t *testing.T, p *auth.Principal, projectID string) *domain.DeliveryNote {
	t.Helper()
	n, err := f.notes.Create(context.Background(), p, DeliveryNoteInput{
		Type:      domain.DeliveryNoteHours,
		ProjectID: projectID,
		Hours:     []domain.HourEntry{{Person: "Jane", HoursWorked: 3, Description: "setup"}},
	})
	require.NoError(t, err)
	return n
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr), "expected DomainError, got %T: %v", err, err)
	require.Equal(t, code, domainErr.Code, domainErr.Message)
}
