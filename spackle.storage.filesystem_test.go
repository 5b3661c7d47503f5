package spackle

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFilesystemStorage(t *testing.T) *FilesystemStorage {
	t.Helper()
	storage, err := NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)
	return storage
}

func TestFilesystemStorage_Contract(t *testing.T) {
	testStorageContract(t, func(t *testing.T) TemplateStorage {
		return newTestFilesystemStorage(t)
	})
}

func TestFilesystemStorage_NewFilesystemStorage(t *testing.T) {
	t.Run("creates root", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "nested", "store")
		_, err := NewFilesystemStorage(root)
		require.NoError(t, err)

		info, err := os.Stat(root)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("empty root", func(t *testing.T) {
		_, err := NewFilesystemStorage("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgInvalidStorageRoot)
	})
}

func TestFilesystemStorage_Layout(t *testing.T) {
	storage := newTestFilesystemStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "mail/welcome", Source: "a"}))
	require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "mail/welcome", Source: "b"}))

	for _, file := range []string{"v1.json", "v2.json"} {
		_, err := os.Stat(filepath.Join(storage.root, "mail", "welcome", file))
		assert.NoError(t, err, file)
	}
}

func TestFilesystemStorage_Persistence(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	first, err := NewFilesystemStorage(root)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, &StoredTemplate{
		Name:          "persisted",
		Source:        "{{who}}",
		Substitutions: map[string]any{"who": "disk"},
		Tags:          []string{"t"},
		CreatedBy:     "ops",
	}))
	require.NoError(t, first.Close())

	second, err := NewFilesystemStorage(root)
	require.NoError(t, err)
	tmpl, err := second.Get(ctx, "persisted")
	require.NoError(t, err)
	assert.Equal(t, "{{who}}", tmpl.Source)
	assert.Equal(t, map[string]any{"who": "disk"}, tmpl.Substitutions)
	assert.Equal(t, []string{"t"}, tmpl.Tags)
	assert.Equal(t, "ops", tmpl.CreatedBy)
	assert.Equal(t, 1, tmpl.Version)
}

func TestFilesystemStorage_InvalidNames(t *testing.T) {
	storage := newTestFilesystemStorage(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		errorMsg string
	}{
		{"../escape", ErrMsgPathTraversalDetected},
		{"a/../../b", ErrMsgPathTraversalDetected},
		{"/absolute", ErrMsgInvalidTemplateName},
		{"trailing/", ErrMsgInvalidTemplateName},
		{"double//slash", ErrMsgInvalidTemplateName},
		{"back\\slash", ErrMsgInvalidTemplateName},
		{"star*", ErrMsgInvalidTemplateName},
		{"colon:name", ErrMsgInvalidTemplateName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := storage.Save(ctx, &StoredTemplate{Name: tt.name, Source: "x"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)

			_, err = storage.Get(ctx, tt.name)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestFilesystemStorage_DeleteKeepsNestedTemplates(t *testing.T) {
	storage := newTestFilesystemStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "mail", Source: "parent"}))
	require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "mail/welcome", Source: "child"}))

	require.NoError(t, storage.Delete(ctx, "mail"))

	ok, err := storage.Exists(ctx, "mail")
	require.NoError(t, err)
	assert.False(t, ok)

	child, err := storage.Get(ctx, "mail/welcome")
	require.NoError(t, err)
	assert.Equal(t, "child", child.Source)

	require.NoError(t, storage.Delete(ctx, "mail/welcome"))
	_, err = os.Stat(filepath.Join(storage.root, "mail", "welcome"))
	assert.True(t, os.IsNotExist(err))
}

func TestFilesystemStorage_IgnoresForeignFiles(t *testing.T) {
	storage := newTestFilesystemStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "real", Source: "x"}))
	require.NoError(t, os.MkdirAll(filepath.Join(storage.root, "junk"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(storage.root, "junk", "notes.txt"), []byte("n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(storage.root, "junk", "vx.json"), []byte("{}"), 0644))

	results, err := storage.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "real", results[0].Name)
}

func TestParseVersionFilename(t *testing.T) {
	tests := []struct {
		filename string
		expected int
	}{
		{"v1.json", 1},
		{"v42.json", 42},
		{"v0.json", 0},
		{"v-1.json", 0},
		{"vx.json", 0},
		{"1.json", 0},
		{"v1.yaml", 0},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseVersionFilename(tt.filename))
		})
	}
	assert.Equal(t, "v7.json", versionFilename(7))
}

func TestFilesystemStorage_OpenViaRegistry(t *testing.T) {
	root := t.TempDir()
	storage, err := OpenStorage(StorageDriverNameFilesystem, root)
	require.NoError(t, err)
	defer storage.Close()

	require.NoError(t, storage.Save(context.Background(), &StoredTemplate{Name: "x", Source: "y"}))
	_, err = os.Stat(filepath.Join(root, "x", "v1.json"))
	assert.NoError(t, err)
}
