package spackle

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDriver struct{}

func (stubDriver) Open(_ string) (TemplateStorage, error) {
	return NewMemoryStorage(), nil
}

func TestStorageDriverRegistry(t *testing.T) {
	t.Run("built-in drivers registered", func(t *testing.T) {
		drivers := ListStorageDrivers()
		assert.Contains(t, drivers, StorageDriverNameMemory)
		assert.Contains(t, drivers, StorageDriverNameFilesystem)
		assert.Contains(t, drivers, StorageDriverNamePostgres)
		assert.IsIncreasing(t, drivers)
	})

	t.Run("register and open", func(t *testing.T) {
		RegisterStorageDriver("stub-registry-test", stubDriver{})
		storage, err := OpenStorage("stub-registry-test", "")
		require.NoError(t, err)
		assert.IsType(t, &MemoryStorage{}, storage)
	})

	t.Run("duplicate panics", func(t *testing.T) {
		assert.Panics(t, func() { RegisterStorageDriver(StorageDriverNameMemory, stubDriver{}) })
	})

	t.Run("nil panics", func(t *testing.T) {
		assert.Panics(t, func() { RegisterStorageDriver("nil-driver", nil) })
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := OpenStorage("nope", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgStorageDriverNotFound)
		assert.Contains(t, err.Error(), "nope")
	})

	t.Run("open memory", func(t *testing.T) {
		storage, err := OpenStorage(StorageDriverNameMemory, "")
		require.NoError(t, err)
		defer storage.Close()
		assert.IsType(t, &MemoryStorage{}, storage)
	})

	t.Run("open filesystem", func(t *testing.T) {
		storage, err := OpenStorage(StorageDriverNameFilesystem, t.TempDir())
		require.NoError(t, err)
		defer storage.Close()
		assert.IsType(t, &FilesystemStorage{}, storage)
	})
}

func TestStorageError(t *testing.T) {
	tests := []struct {
		name     string
		err      *StorageError
		expected string
	}{
		{"message only", &StorageError{Message: ErrMsgStorageClosed}, ErrMsgStorageClosed},
		{"with name", &StorageError{Message: ErrMsgTemplateNotFound, Name: "a"}, ErrMsgTemplateNotFound + ": a"},
		{"with version", &StorageError{Message: ErrMsgVersionNotFound, Name: "a", Version: 3}, ErrMsgVersionNotFound + ": a v3"},
		{"with cause", &StorageError{Message: ErrMsgReadTemplate, Name: "f", Cause: fs.ErrPermission}, ErrMsgReadTemplate + ": f: " + fs.ErrPermission.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}

	t.Run("unwrap", func(t *testing.T) {
		err := &StorageError{Message: ErrMsgReadTemplate, Cause: fs.ErrPermission}
		assert.True(t, errors.Is(err, fs.ErrPermission))
	})

	t.Run("not found sentinel", func(t *testing.T) {
		assert.True(t, errors.Is(NewStorageTemplateNotFoundError("a"), ErrTemplateNotFound))
		assert.True(t, errors.Is(NewStorageVersionNotFoundError("a", 2), ErrTemplateNotFound))
		assert.False(t, errors.Is(NewStorageClosedError(), ErrTemplateNotFound))
	})
}

func TestSortAndPage(t *testing.T) {
	build := func() []*StoredTemplate {
		return []*StoredTemplate{
			{Name: "b", Version: 1},
			{Name: "a", Version: 1},
			{Name: "a", Version: 2},
			{Name: "c", Version: 1},
		}
	}
	describe := func(results []*StoredTemplate) []string {
		out := make([]string, len(results))
		for i, r := range results {
			out[i] = r.Name + strings.Repeat("'", r.Version-1)
		}
		return out
	}

	assert.Equal(t, []string{"a'", "a", "b", "c"}, describe(sortAndPage(build(), &TemplateQuery{})))
	assert.Equal(t, []string{"a", "b"}, describe(sortAndPage(build(), &TemplateQuery{Offset: 1, Limit: 2})))
	assert.Empty(t, sortAndPage(build(), &TemplateQuery{Offset: 10}))
}

func TestMatchesQuery(t *testing.T) {
	tmpl := &StoredTemplate{Name: "mail/welcome/en", CreatedBy: "ops", Tags: []string{"mail", "public"}}

	tests := []struct {
		name     string
		query    TemplateQuery
		expected bool
	}{
		{"empty", TemplateQuery{}, true},
		{"double star", TemplateQuery{Pattern: "mail/**"}, true},
		{"single star stops at slash", TemplateQuery{Pattern: "mail/*"}, false},
		{"alternation", TemplateQuery{Pattern: "mail/{welcome,bye}/*"}, true},
		{"creator", TemplateQuery{CreatedBy: "ops"}, true},
		{"other creator", TemplateQuery{CreatedBy: "dev"}, false},
		{"all tags", TemplateQuery{Tags: []string{"mail", "public"}}, true},
		{"missing tag", TemplateQuery{Tags: []string{"mail", "draft"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, matchesQuery(tmpl, &tt.query))
		})
	}

}

func TestNormalizeQuery(t *testing.T) {
	q, err := normalizeQuery(nil)
	require.NoError(t, err)
	assert.Equal(t, &TemplateQuery{}, q)

	_, err = normalizeQuery(&TemplateQuery{Pattern: "mail/[a"})
	assert.Error(t, err)

	in := &TemplateQuery{Pattern: "mail/**"}
	q, err = normalizeQuery(in)
	require.NoError(t, err)
	assert.Same(t, in, q)
}

func TestCopyStoredTemplate(t *testing.T) {
	orig := &StoredTemplate{Name: "a", Substitutions: map[string]any{"k": "v"}, Tags: []string{"x"}}
	cp := copyStoredTemplate(orig)

	cp.Substitutions["k"] = "changed"
	cp.Tags[0] = "y"
	assert.Equal(t, "v", orig.Substitutions["k"])
	assert.Equal(t, "x", orig.Tags[0])

	assert.Nil(t, copyStoredTemplate(nil))
	assert.Nil(t, copyStoredTemplate(&StoredTemplate{}).Tags)
}

// testStorageContract exercises the behaviour every TemplateStorage must share.
func testStorageContract(t *testing.T, open func(t *testing.T) TemplateStorage) {
	ctx := context.Background()

	t.Run("save assigns versions", func(t *testing.T) {
		storage := open(t)
		first := &StoredTemplate{Name: "greeting", Source: "v1", CreatedBy: "ops", Tags: []string{"public"}}
		require.NoError(t, storage.Save(ctx, first))
		assert.True(t, strings.HasPrefix(string(first.ID), TemplateIDPrefix))
		assert.Equal(t, 1, first.Version)
		assert.False(t, first.CreatedAt.IsZero())

		second := &StoredTemplate{Name: "greeting", Source: "v2"}
		require.NoError(t, storage.Save(ctx, second))
		assert.Equal(t, 2, second.Version)
		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		err := open(t).Save(ctx, &StoredTemplate{Source: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgInvalidTemplateName)
	})

	t.Run("get latest and specific version", func(t *testing.T) {
		storage := open(t)
		for _, src := range []string{"one", "two", "three"} {
			require.NoError(t, storage.Save(ctx, &StoredTemplate{
				Name:          "doc",
				Source:        src,
				Substitutions: map[string]any{"who": src},
			}))
		}

		latest, err := storage.Get(ctx, "doc")
		require.NoError(t, err)
		assert.Equal(t, 3, latest.Version)
		assert.Equal(t, "three", latest.Source)
		assert.Equal(t, map[string]any{"who": "three"}, latest.Substitutions)

		v2, err := storage.GetVersion(ctx, "doc", 2)
		require.NoError(t, err)
		assert.Equal(t, "two", v2.Source)

		_, err = storage.GetVersion(ctx, "doc", 9)
		assert.ErrorIs(t, err, ErrTemplateNotFound)

		versions, err := storage.ListVersions(ctx, "doc")
		require.NoError(t, err)
		assert.Equal(t, []int{3, 2, 1}, versions)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := open(t).Get(ctx, "missing")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTemplateNotFound)
		assert.Contains(t, err.Error(), "missing")
	})

	t.Run("exists and delete", func(t *testing.T) {
		storage := open(t)
		require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "gone", Source: "a"}))
		require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "gone", Source: "b"}))

		ok, err := storage.Exists(ctx, "gone")
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, storage.Delete(ctx, "gone"))
		ok, err = storage.Exists(ctx, "gone")
		require.NoError(t, err)
		assert.False(t, ok)

		assert.ErrorIs(t, storage.Delete(ctx, "gone"), ErrTemplateNotFound)
	})

	t.Run("list", func(t *testing.T) {
		storage := open(t)
		seed := []*StoredTemplate{
			{Name: "mail/welcome", Source: "w1", Tags: []string{"mail"}, CreatedBy: "ops"},
			{Name: "mail/welcome", Source: "w2", Tags: []string{"mail", "public"}, CreatedBy: "ops"},
			{Name: "mail/bye", Source: "b1", Tags: []string{"mail"}, CreatedBy: "dev"},
			{Name: "page", Source: "p1", Tags: []string{"public"}, CreatedBy: "dev"},
		}
		for _, tmpl := range seed {
			require.NoError(t, storage.Save(ctx, tmpl))
		}

		names := func(results []*StoredTemplate) []string {
			out := make([]string, len(results))
			for i, r := range results {
				out[i] = r.Name + "@" + r.Source
			}
			return out
		}

		all, err := storage.List(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"mail/bye@b1", "mail/welcome@w2", "page@p1"}, names(all))

		versions, err := storage.List(ctx, &TemplateQuery{IncludeAllVersions: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"mail/bye@b1", "mail/welcome@w2", "mail/welcome@w1", "page@p1"}, names(versions))

		mail, err := storage.List(ctx, &TemplateQuery{Pattern: "mail/**"})
		require.NoError(t, err)
		assert.Equal(t, []string{"mail/bye@b1", "mail/welcome@w2"}, names(mail))

		public, err := storage.List(ctx, &TemplateQuery{Tags: []string{"public"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"mail/welcome@w2", "page@p1"}, names(public))

		byDev, err := storage.List(ctx, &TemplateQuery{CreatedBy: "dev"})
		require.NoError(t, err)
		assert.Equal(t, []string{"mail/bye@b1", "page@p1"}, names(byDev))

		paged, err := storage.List(ctx, &TemplateQuery{Offset: 1, Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"mail/welcome@w2"}, names(paged))

		_, err = storage.List(ctx, &TemplateQuery{Pattern: "mail/[x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgInvalidPattern)
	})

	t.Run("closed", func(t *testing.T) {
		storage := open(t)
		require.NoError(t, storage.Close())

		_, err := storage.Get(ctx, "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgStorageClosed)

		err = storage.Save(ctx, &StoredTemplate{Name: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgStorageClosed)
	})

	t.Run("cancelled context", func(t *testing.T) {
		storage := open(t)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := storage.Get(cancelled, "x")
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("engine from storage", func(t *testing.T) {
		storage := open(t)
		require.NoError(t, storage.Save(ctx, &StoredTemplate{
			Name:          "hello",
			Source:        "{{greeting}}, {{who}}!",
			Substitutions: map[string]any{"greeting": "Hello", "who": "stored"},
		}))

		e, err := NewFromStorage(ctx, storage, "hello", map[string]any{"who": "caller"})
		require.NoError(t, err)
		assert.Equal(t, "Hello, caller!", mustParse(t, e))
	})
}
