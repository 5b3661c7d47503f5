package spackle

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_Contract(t *testing.T) {
	testStorageContract(t, func(t *testing.T) TemplateStorage {
		return NewMemoryStorage()
	})
}

func TestMemoryStorage_NewMemoryStorage(t *testing.T) {
	storage := NewMemoryStorage()
	require.NotNil(t, storage)
	assert.NotNil(t, storage.history)
	assert.False(t, storage.closed)
}

func TestMemoryStorage_ReturnsCopies(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	input := &StoredTemplate{Name: "doc", Source: "original", Substitutions: map[string]any{"k": "v"}, Tags: []string{"a"}}
	require.NoError(t, storage.Save(ctx, input))

	input.Source = "mutated input"
	input.Substitutions["k"] = "mutated"
	input.Tags[0] = "mutated"

	first, err := storage.Get(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, "original", first.Source)
	assert.Equal(t, "v", first.Substitutions["k"])
	assert.Equal(t, []string{"a"}, first.Tags)

	first.Source = "mutated output"
	second, err := storage.Get(ctx, "doc")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, "original", second.Source)
}

func TestMemoryStorage_ListVersionsUnknown(t *testing.T) {
	versions, err := NewMemoryStorage().ListVersions(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestMemoryStorage_ConcurrentAccess(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = storage.Save(ctx, &StoredTemplate{Name: "shared", Source: fmt.Sprintf("v%d", i)})
			_, _ = storage.Get(ctx, "shared")
			_, _ = storage.List(ctx, nil)
		}(i)
	}
	wg.Wait()

	versions, err := storage.ListVersions(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, versions, 20)
	assert.Equal(t, 20, versions[0])
}

func TestMemoryStorage_OpenViaRegistry(t *testing.T) {
	storage, err := OpenStorage(StorageDriverNameMemory, "ignored")
	require.NoError(t, err)
	defer storage.Close()

	require.NoError(t, storage.Save(context.Background(), &StoredTemplate{Name: "x", Source: "y"}))
	ok, err := storage.Exists(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, ok)
}
