package spackle

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage keeps every template version in process memory. Useful for
// tests, development and short-lived CLI runs; nothing survives Close.
type MemoryStorage struct {
	mu      sync.RWMutex
	history map[string][]*StoredTemplate // oldest first; version == index+1
	closed  bool
}

// MemoryStorageDriver opens MemoryStorage instances.
type MemoryStorageDriver struct{}

func init() {
	RegisterStorageDriver(StorageDriverNameMemory, &MemoryStorageDriver{})
}

// Open ignores the connection string.
func (d *MemoryStorageDriver) Open(_ string) (TemplateStorage, error) {
	return NewMemoryStorage(), nil
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{history: make(map[string][]*StoredTemplate)}
}

// enter checks ctx, takes the lock and fails on closed storage. The returned
// func releases the lock.
func (s *MemoryStorage) enter(ctx context.Context, write bool) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	release := s.mu.RUnlock
	if write {
		s.mu.Lock()
		release = s.mu.Unlock
	} else {
		s.mu.RLock()
	}
	if s.closed {
		release()
		return nil, NewStorageClosedError()
	}
	return release, nil
}

// Get returns the newest version of name.
func (s *MemoryStorage) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	release, err := s.enter(ctx, false)
	if err != nil {
		return nil, err
	}
	defer release()

	versions := s.history[name]
	if len(versions) == 0 {
		return nil, NewStorageTemplateNotFoundError(name)
	}
	return copyStoredTemplate(versions[len(versions)-1]), nil
}

// GetVersion returns one version of name.
func (s *MemoryStorage) GetVersion(ctx context.Context, name string, version int) (*StoredTemplate, error) {
	release, err := s.enter(ctx, false)
	if err != nil {
		return nil, err
	}
	defer release()

	versions := s.history[name]
	if version < 1 || version > len(versions) {
		return nil, NewStorageVersionNotFoundError(name, version)
	}
	return copyStoredTemplate(versions[version-1]), nil
}

// Save appends tmpl as the next version of its name and writes the assigned
// ID, version and timestamps back to tmpl.
func (s *MemoryStorage) Save(ctx context.Context, tmpl *StoredTemplate) error {
	if tmpl.Name == "" {
		return &StorageError{Message: ErrMsgInvalidTemplateName}
	}
	release, err := s.enter(ctx, true)
	if err != nil {
		return err
	}
	defer release()

	stampNewVersion(tmpl, len(s.history[tmpl.Name])+1, time.Now())
	s.history[tmpl.Name] = append(s.history[tmpl.Name], copyStoredTemplate(tmpl))
	return nil
}

// Delete drops every version of name.
func (s *MemoryStorage) Delete(ctx context.Context, name string) error {
	release, err := s.enter(ctx, true)
	if err != nil {
		return err
	}
	defer release()

	if len(s.history[name]) == 0 {
		return NewStorageTemplateNotFoundError(name)
	}
	delete(s.history, name)
	return nil
}

// List returns the versions matching query.
func (s *MemoryStorage) List(ctx context.Context, query *TemplateQuery) ([]*StoredTemplate, error) {
	query, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}
	release, err := s.enter(ctx, false)
	if err != nil {
		return nil, err
	}
	defer release()

	var found []*StoredTemplate
	for _, versions := range s.history {
		for _, tmpl := range candidateVersions(versions, query) {
			if matchesQuery(tmpl, query) {
				found = append(found, copyStoredTemplate(tmpl))
			}
		}
	}
	return sortAndPage(found, query), nil
}

// Exists reports whether name has at least one version.
func (s *MemoryStorage) Exists(ctx context.Context, name string) (bool, error) {
	release, err := s.enter(ctx, false)
	if err != nil {
		return false, err
	}
	defer release()
	return len(s.history[name]) > 0, nil
}

// ListVersions returns the version numbers of name, newest first.
func (s *MemoryStorage) ListVersions(ctx context.Context, name string) ([]int, error) {
	release, err := s.enter(ctx, false)
	if err != nil {
		return nil, err
	}
	defer release()

	n := len(s.history[name])
	out := make([]int, n)
	for i := range out {
		out[i] = n - i
	}
	return out, nil
}

// Close drops all templates. Later calls fail with a closed-storage error.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.history = nil
	return nil
}

// candidateVersions picks the versions a query looks at from an oldest-first
// history: only the newest unless all versions are requested.
func candidateVersions(versions []*StoredTemplate, query *TemplateQuery) []*StoredTemplate {
	if len(versions) == 0 || query.IncludeAllVersions {
		return versions
	}
	return versions[len(versions)-1:]
}
