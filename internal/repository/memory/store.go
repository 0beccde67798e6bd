// Package memory provides mutex-guarded in-memory implementations of the
// repository interfaces. It backs the service when no database is configured
// and is the store used by service tests.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/deliverynote-service/internal/domain"
	"github.com/spec-kit/deliverynote-service/internal/repository"
)

// Store bundles the in-memory repositories sharing one lock.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	users    map[string]domain.User
	clients  map[string]domain.Client
	projects map[string]domain.Project
	notes    map[string]domain.DeliveryNote
	resets   map[string]domain.PasswordReset
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		now:      time.Now,
		users:    make(map[string]domain.User),
		clients:  make(map[string]domain.Client),
		projects: make(map[string]domain.Project),
		notes:    make(map[string]domain.DeliveryNote),
		resets:   make(map[string]domain.PasswordReset),
	}
}

// Users returns the user repository view of the store.
func (s *Store) Users() repository.UserRepository { return &userRepo{s} }

// Clients returns the client repository view of the store.
func (s *Store) Clients() repository.ClientRepository { return &clientRepo{s} }

// Projects returns the project repository view of the store.
func (s *Store) Projects() repository.ProjectRepository { return &projectRepo{s} }

// DeliveryNotes returns the delivery note repository view of the store.
func (s *Store) DeliveryNotes() repository.DeliveryNoteRepository { return &noteRepo{s} }

// PasswordResets returns the password reset repository view of the store.
func (s *Store) PasswordResets() repository.PasswordResetRepository { return &resetRepo{s} }

// WithClock overrides the timestamp source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) newID() string {
	return uuid.NewString()
}

// sortByCreated orders newest first, matching the SQL repositories.
func sortByCreated[T any](items []T, created func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return created(items[i]).After(created(items[j]))
	})
}
