package spackle

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// FilesystemStorage stores templates as JSON files, one file per version.
// Names may contain "/" to group templates into directories.
//
// Directory structure:
//
//	<root>/
//	  <template-name>/
//	    v1.json
//	    v2.json
//	  mail/
//	    welcome/
//	      v1.json
type FilesystemStorage struct {
	mu     sync.RWMutex
	root   string
	closed bool
}

// Filesystem storage error messages
const (
	ErrMsgInvalidStorageRoot    = "storage root directory cannot be empty"
	ErrMsgCreateStorageDir      = "failed to create storage directory"
	ErrMsgReadStorageDir        = "failed to read storage directory"
	ErrMsgReadTemplate          = "failed to read template file"
	ErrMsgWriteTemplate         = "failed to write template file"
	ErrMsgMarshalTemplate       = "failed to marshal template"
	ErrMsgUnmarshalTemplate     = "failed to unmarshal template"
	ErrMsgDeleteTemplate        = "failed to delete template"
	ErrMsgPathTraversalDetected = "path traversal detected in template name"
)

// FilesystemStorageDriver is the driver for creating FilesystemStorage instances.
type FilesystemStorageDriver struct{}

func init() {
	RegisterStorageDriver(StorageDriverNameFilesystem, &FilesystemStorageDriver{})
}

// Open creates a new FilesystemStorage. The connection string is the root
// directory path.
func (d *FilesystemStorageDriver) Open(connectionString string) (TemplateStorage, error) {
	return NewFilesystemStorage(connectionString)
}

// NewFilesystemStorage creates a filesystem-backed template storage.
// The root directory is created if it doesn't exist.
func NewFilesystemStorage(root string) (*FilesystemStorage, error) {
	if root == "" {
		return nil, &StorageError{Message: ErrMsgInvalidStorageRoot}
	}
	if err := os.MkdirAll(root, FilesystemDirPermissions); err != nil {
		return nil, &StorageError{Message: ErrMsgCreateStorageDir, Name: root, Cause: err}
	}
	return &FilesystemStorage{root: root}, nil
}

// enter validates name and then behaves like open.
func (s *FilesystemStorage) enter(ctx context.Context, name string, write bool) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateTemplateNameForFilesystem(name); err != nil {
		return nil, err
	}
	return s.open(ctx, write)
}

// open checks ctx, takes the lock and fails on closed storage. The returned
// func releases the lock.
func (s *FilesystemStorage) open(ctx context.Context, write bool) (func(), error) {
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

// Get retrieves the latest version of a template by name.
func (s *FilesystemStorage) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	release, err := s.enter(ctx, name, false)
	if err != nil {
		return nil, err
	}
	defer release()

	versions, err := s.listVersionsInternal(name)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, NewStorageTemplateNotFoundError(name)
	}
	return s.loadTemplate(name, versions[0])
}

// GetVersion retrieves a specific version of a template.
func (s *FilesystemStorage) GetVersion(ctx context.Context, name string, version int) (*StoredTemplate, error) {
	release, err := s.enter(ctx, name, false)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.loadTemplate(name, version)
}

// Save stores a template as a new version file.
func (s *FilesystemStorage) Save(ctx context.Context, tmpl *StoredTemplate) error {
	release, err := s.enter(ctx, tmpl.Name, true)
	if err != nil {
		return err
	}
	defer release()

	templateDir := s.templateDir(tmpl.Name)
	if err := os.MkdirAll(templateDir, FilesystemDirPermissions); err != nil {
		return &StorageError{Message: ErrMsgCreateStorageDir, Name: templateDir, Cause: err}
	}

	versions, err := s.listVersionsInternal(tmpl.Name)
	if err != nil {
		return err
	}
	nextVersion := 1
	if len(versions) > 0 {
		nextVersion = versions[0] + 1
	}

	stored := copyStoredTemplate(tmpl)
	stampNewVersion(stored, nextVersion, time.Now())

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return &StorageError{Message: ErrMsgMarshalTemplate, Name: tmpl.Name, Cause: err}
	}

	filename := filepath.Join(templateDir, versionFilename(nextVersion))
	if err := os.WriteFile(filename, data, FilesystemFilePermissions); err != nil {
		return &StorageError{Message: ErrMsgWriteTemplate, Name: filename, Cause: err}
	}

	tmpl.ID, tmpl.Version = stored.ID, stored.Version
	tmpl.CreatedAt, tmpl.UpdatedAt = stored.CreatedAt, stored.UpdatedAt
	return nil
}

// Delete removes all version files of a template. Nested templates below the
// same directory are kept.
func (s *FilesystemStorage) Delete(ctx context.Context, name string) error {
	release, err := s.enter(ctx, name, true)
	if err != nil {
		return err
	}
	defer release()

	versions, err := s.listVersionsInternal(name)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		return NewStorageTemplateNotFoundError(name)
	}

	templateDir := s.templateDir(name)
	for _, v := range versions {
		if err := os.Remove(filepath.Join(templateDir, versionFilename(v))); err != nil {
			return &StorageError{Message: ErrMsgDeleteTemplate, Name: name, Cause: err}
		}
	}
	// only succeeds when the directory is empty
	_ = os.Remove(templateDir)
	return nil
}

// List returns templates matching the query.
func (s *FilesystemStorage) List(ctx context.Context, query *TemplateQuery) ([]*StoredTemplate, error) {
	query, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}
	release, err := s.open(ctx, false)
	if err != nil {
		return nil, err
	}
	defer release()

	names, err := s.templateNames()
	if err != nil {
		return nil, err
	}

	var results []*StoredTemplate
	for _, name := range names {
		if query.Pattern != "" {
			if ok, _ := doublestar.Match(query.Pattern, name); !ok {
				continue
			}
		}

		versions, err := s.listVersionsInternal(name)
		if err != nil || len(versions) == 0 {
			continue
		}
		if !query.IncludeAllVersions {
			versions = versions[:1]
		}

		for _, version := range versions {
			tmpl, err := s.loadTemplate(name, version)
			if err != nil {
				continue
			}
			if matchesQuery(tmpl, query) {
				results = append(results, tmpl)
			}
		}
	}

	return sortAndPage(results, query), nil
}

// Exists checks if a template with the given name exists.
func (s *FilesystemStorage) Exists(ctx context.Context, name string) (bool, error) {
	release, err := s.enter(ctx, name, false)
	if err != nil {
		return false, err
	}
	defer release()

	versions, err := s.listVersionsInternal(name)
	if err != nil {
		return false, err
	}
	return len(versions) > 0, nil
}

// ListVersions returns all version numbers for a template, newest first.
func (s *FilesystemStorage) ListVersions(ctx context.Context, name string) ([]int, error) {
	release, err := s.enter(ctx, name, false)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.listVersionsInternal(name)
}

// Close marks the storage as closed.
func (s *FilesystemStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *FilesystemStorage) templateDir(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// templateNames returns the names of all directories holding version files.
func (s *FilesystemStorage) templateNames() ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(s.root), "**/"+FilesystemVersionPrefix+"*"+FilesystemVersionSuffix)
	if err != nil {
		return nil, &StorageError{Message: ErrMsgReadStorageDir, Name: s.root, Cause: err}
	}

	seen := make(map[string]bool)
	var names []string
	for _, m := range matches {
		name := path.Dir(m)
		if name == "." || seen[name] || parseVersionFilename(path.Base(m)) == 0 {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *FilesystemStorage) listVersionsInternal(name string) ([]int, error) {
	entries, err := os.ReadDir(s.templateDir(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []int{}, nil
		}
		return nil, &StorageError{Message: ErrMsgReadStorageDir, Name: name, Cause: err}
	}

	versions := []int{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if v := parseVersionFilename(entry.Name()); v > 0 {
			versions = append(versions, v)
		}
	}

	sort.Sort(sort.Reverse(sort.IntSlice(versions)))
	return versions, nil
}

func (s *FilesystemStorage) loadTemplate(name string, version int) (*StoredTemplate, error) {
	filename := filepath.Join(s.templateDir(name), versionFilename(version))
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewStorageVersionNotFoundError(name, version)
		}
		return nil, &StorageError{Message: ErrMsgReadTemplate, Name: filename, Cause: err}
	}

	var tmpl StoredTemplate
	if err := json.Unmarshal(data, &tmpl); err != nil {
		return nil, &StorageError{Message: ErrMsgUnmarshalTemplate, Name: filename, Cause: err}
	}
	return &tmpl, nil
}

func versionFilename(version int) string {
	return FilesystemVersionPrefix + strconv.Itoa(version) + FilesystemVersionSuffix
}

// parseVersionFilename returns the version encoded in a "v<N>.json" file
// name, or 0.
func parseVersionFilename(filename string) int {
	if !strings.HasPrefix(filename, FilesystemVersionPrefix) || !strings.HasSuffix(filename, FilesystemVersionSuffix) {
		return 0
	}
	v, err := strconv.Atoi(filename[len(FilesystemVersionPrefix) : len(filename)-len(FilesystemVersionSuffix)])
	if err != nil || v <= 0 {
		return 0
	}
	return v
}

func validateTemplateNameForFilesystem(name string) error {
	if name == "" {
		return &StorageError{Message: ErrMsgInvalidTemplateName}
	}
	if strings.Contains(name, "..") {
		return &StorageError{Message: ErrMsgPathTraversalDetected, Name: name}
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") || strings.Contains(name, "//") {
		return &StorageError{Message: ErrMsgInvalidTemplateName, Name: name}
	}
	if strings.ContainsAny(name, "\\:*?\"<>|") {
		return &StorageError{Message: ErrMsgInvalidTemplateName, Name: name}
	}
	return nil
}
