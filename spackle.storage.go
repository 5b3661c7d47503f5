package spackle

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
)

// TemplateID is a unique identifier for a stored template version.
// Uses the prefixed UUID format "tmpl_<uuid>".
type TemplateID string

// StoredTemplate is a template with its seed substitutions and metadata, as
// kept by a storage backend.
type StoredTemplate struct {
	// ID is the unique identifier of this version.
	ID TemplateID `json:"id"`

	// Name is the template name used for lookups and includes.
	Name string `json:"name"`

	// Source is the raw template text.
	Source string `json:"source"`

	// Substitutions seed the substitution table of engines built from this template.
	Substitutions map[string]any `json:"substitutions,omitempty"`

	// Version is the version number (1, 2, 3, ...). Higher versions are newer.
	Version int `json:"version"`

	// CreatedAt is when this version was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when this version was last modified.
	UpdatedAt time.Time `json:"updated_at"`

	// CreatedBy identifies who created this version (optional).
	CreatedBy string `json:"created_by,omitempty"`

	// Tags for categorization and querying.
	Tags []string `json:"tags,omitempty"`
}

// TemplateQuery defines filters for listing templates.
type TemplateQuery struct {
	// Pattern is a doublestar glob matched against template names
	// (e.g. "mail/**"). Empty matches all.
	Pattern string

	// Tags filters to templates having ALL specified tags.
	Tags []string

	// CreatedBy filters by creator.
	CreatedBy string

	// Limit is the maximum number of results (0 = no limit).
	Limit int

	// Offset is the number of results to skip.
	Offset int

	// IncludeAllVersions includes all versions, not just the latest.
	IncludeAllVersions bool
}

// TemplateStorage is the interface for pluggable storage backends.
// Implementations must be safe for concurrent use.
type TemplateStorage interface {
	// Get retrieves the latest version of a template by name.
	// Returns an error matching ErrTemplateNotFound if it doesn't exist.
	Get(ctx context.Context, name string) (*StoredTemplate, error)

	// GetVersion retrieves a specific version of a template.
	GetVersion(ctx context.Context, name string, version int) (*StoredTemplate, error)

	// Save stores a template as a new version. ID, Version, CreatedAt and
	// UpdatedAt are set by the storage and written back to tmpl.
	Save(ctx context.Context, tmpl *StoredTemplate) error

	// Delete removes all versions of a template by name.
	Delete(ctx context.Context, name string) error

	// List returns templates matching the query, ordered by name, then by
	// version descending.
	List(ctx context.Context, query *TemplateQuery) ([]*StoredTemplate, error)

	// Exists checks if a template with the given name exists.
	Exists(ctx context.Context, name string) (bool, error)

	// ListVersions returns all version numbers for a template, newest first.
	ListVersions(ctx context.Context, name string) ([]int, error)

	// Close releases any resources held by the storage.
	Close() error
}

// StorageDriver is a factory for storage instances.
type StorageDriver interface {
	// Open creates a storage instance. The connection string is driver-specific.
	Open(connectionString string) (TemplateStorage, error)
}

// Storage driver registry
var (
	storageDriversMu sync.RWMutex
	storageDrivers   = make(map[string]StorageDriver)
)

// RegisterStorageDriver registers a storage driver by name.
// Panics if driver is nil or the name is already registered.
func RegisterStorageDriver(name string, driver StorageDriver) {
	storageDriversMu.Lock()
	defer storageDriversMu.Unlock()

	if driver == nil {
		panic(ErrMsgNilStorageDriver)
	}
	if _, exists := storageDrivers[name]; exists {
		panic(fmt.Sprintf(ErrMsgDriverAlreadyRegistered+StorageErrFmtDetail, name))
	}
	storageDrivers[name] = driver
}

// OpenStorage opens a storage using the named driver.
//
//	storage, err := spackle.OpenStorage("memory", "")
//	storage, err := spackle.OpenStorage("filesystem", "/srv/templates")
func OpenStorage(driverName, connectionString string) (TemplateStorage, error) {
	storageDriversMu.RLock()
	driver, ok := storageDrivers[driverName]
	storageDriversMu.RUnlock()

	if !ok {
		return nil, &StorageError{Message: ErrMsgStorageDriverNotFound, Name: driverName}
	}
	return driver.Open(connectionString)
}

// ListStorageDrivers returns the names of all registered storage drivers, sorted.
func ListStorageDrivers() []string {
	storageDriversMu.RLock()
	defer storageDriversMu.RUnlock()

	names := make([]string, 0, len(storageDrivers))
	for name := range storageDrivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Storage error message constants
const (
	ErrMsgNilStorageDriver        = "storage driver is nil"
	ErrMsgDriverAlreadyRegistered = "storage driver already registered"
	ErrMsgStorageDriverNotFound   = "storage driver not found"
	ErrMsgStorageClosed           = "storage is closed"
	ErrMsgTemplateNotFound        = "template not found"
	ErrMsgVersionNotFound         = "template version not found"
	ErrMsgInvalidTemplateName     = "template name cannot be empty"
	ErrMsgInvalidPattern          = "invalid template name pattern"
)

// Storage error formatting
const (
	StorageErrFmtDetail  = ": %v"
	StorageErrFmtVersion = " v%d"
)

// ErrTemplateNotFound is matched by errors.Is for any missing template or version.
var ErrTemplateNotFound = errors.New(ErrMsgTemplateNotFound)

// StorageError represents a storage-related error.
type StorageError struct {
	Message string
	Name    string
	Version int
	Cause   error
}

// Error renders "<message>[: <name>[ v<version>]][: <cause>]".
func (e *StorageError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Name != "" {
		fmt.Fprintf(&b, StorageErrFmtDetail, e.Name)
		if e.Version > 0 {
			fmt.Fprintf(&b, StorageErrFmtVersion, e.Version)
		}
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, StorageErrFmtDetail, e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrTemplateNotFound and e is a not-found error.
func (e *StorageError) Is(target error) bool {
	return target == ErrTemplateNotFound &&
		(e.Message == ErrMsgTemplateNotFound || e.Message == ErrMsgVersionNotFound)
}

// NewStorageTemplateNotFoundError creates an error for a missing template.
func NewStorageTemplateNotFoundError(name string) error {
	return &StorageError{Message: ErrMsgTemplateNotFound, Name: name}
}

// NewStorageVersionNotFoundError creates an error for a missing version.
func NewStorageVersionNotFoundError(name string, version int) error {
	return &StorageError{Message: ErrMsgVersionNotFound, Name: name, Version: version}
}

// NewStorageClosedError creates an error for operations on closed storage.
func NewStorageClosedError() error {
	return &StorageError{Message: ErrMsgStorageClosed}
}

// generateTemplateID generates a unique template ID.
func generateTemplateID() TemplateID {
	return TemplateID(TemplateIDPrefix + uuid.NewString())
}

// matchesQuery checks whether a template passes the query filters.
// The pattern must have been validated with doublestar.ValidatePattern.
func matchesQuery(tmpl *StoredTemplate, query *TemplateQuery) bool {
	if query.Pattern != "" {
		if ok, _ := doublestar.Match(query.Pattern, tmpl.Name); !ok {
			return false
		}
	}
	if query.CreatedBy != "" && tmpl.CreatedBy != query.CreatedBy {
		return false
	}
	for _, tag := range query.Tags {
		if !slices.Contains(tmpl.Tags, tag) {
			return false
		}
	}
	return true
}

// normalizeQuery substitutes an empty query for nil and validates the
// pattern.
func normalizeQuery(query *TemplateQuery) (*TemplateQuery, error) {
	if query == nil {
		return &TemplateQuery{}, nil
	}
	if query.Pattern != "" && !doublestar.ValidatePattern(query.Pattern) {
		return nil, &StorageError{Message: ErrMsgInvalidPattern, Name: query.Pattern}
	}
	return query, nil
}

// stampNewVersion assigns a fresh ID, the version number and both timestamps.
func stampNewVersion(tmpl *StoredTemplate, version int, now time.Time) {
	tmpl.ID = generateTemplateID()
	tmpl.Version = version
	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now
}

// sortAndPage orders results by name, then version descending, and applies
// offset and limit.
func sortAndPage(results []*StoredTemplate, query *TemplateQuery) []*StoredTemplate {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Name != results[j].Name {
			return results[i].Name < results[j].Name
		}
		return results[i].Version > results[j].Version
	})

	if query.Offset > 0 {
		if query.Offset >= len(results) {
			return []*StoredTemplate{}
		}
		results = results[query.Offset:]
	}
	if query.Limit > 0 && len(results) > query.Limit {
		results = results[:query.Limit]
	}
	return results
}

// copyStoredTemplate returns a copy that shares no maps or slices with tmpl.
// Substitution values themselves are not deep-copied.
func copyStoredTemplate(tmpl *StoredTemplate) *StoredTemplate {
	if tmpl == nil {
		return nil
	}
	out := *tmpl
	out.Substitutions = maps.Clone(tmpl.Substitutions)
	out.Tags = slices.Clone(tmpl.Tags)
	return &out
}
