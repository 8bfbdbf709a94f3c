// Package catalog stores the generated applications shown as desktop icons.
package catalog

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"webos/pkg/appschema"
)

// ErrNotFound is returned when no application has the requested id.
var ErrNotFound = errors.New("app not found")

// DefaultIcon is the icon of generated applications.
const DefaultIcon = "activity"

// App is a generated application. Its schema never changes after creation.
type App struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Icon        string               `json:"icon"`
	Schema      *appschema.AppSchema `json:"schema"`
	CreatedAt   time.Time            `json:"created_at"`
}

// NewApp creates an application from a validated schema.
func NewApp(schema *appschema.AppSchema) App {
	return App{
		ID:          uuid.NewString(),
		Title:       schema.Title,
		Description: schema.Description,
		Icon:        DefaultIcon,
		Schema:      schema,
		CreatedAt:   time.Now().UTC(),
	}
}

// Store is the interface for reading and writing applications. List
// returns applications in the order they were added.
type Store interface {
	Add(ctx context.Context, app App) error
	Get(ctx context.Context, id string) (App, error)
	List(ctx context.Context) ([]App, error)
	// Delete removes an application. Deleting an unknown id returns
	// ErrNotFound.
	Delete(ctx context.Context, id string) error
	Close() error
}

// MemoryStore keeps applications in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	apps []App
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Add appends an application, replacing any with the same id.
func (s *MemoryStore) Add(_ context.Context, app App) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps = slices.DeleteFunc(s.apps, func(a App) bool { return a.ID == app.ID })
	s.apps = append(s.apps, app)
	return nil
}

// Get returns the application with the given id.
func (s *MemoryStore) Get(_ context.Context, id string) (App, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.apps {
		if a.ID == id {
			return a, nil
		}
	}
	return App{}, ErrNotFound
}

// List returns all applications.
func (s *MemoryStore) List(_ context.Context) ([]App, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.apps), nil
}

// Delete removes an application.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.apps)
	s.apps = slices.DeleteFunc(s.apps, func(a App) bool { return a.ID == id })
	if len(s.apps) == n {
		return ErrNotFound
	}
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
