package spackle

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chainContains(err error, msg string) bool {
	for ; err != nil; err = errors.Unwrap(err) {
		if strings.Contains(err.Error(), msg) {
			return true
		}
	}
	return false
}

func seedStorage(t *testing.T, templates map[string]*StoredTemplate) *MemoryStorage {
	t.Helper()
	storage := NewMemoryStorage()
	for name, tmpl := range templates {
		tmpl.Name = name
		require.NoError(t, storage.Save(context.Background(), tmpl))
	}
	return storage
}

func TestIncludePlugin(t *testing.T) {
	storage := seedStorage(t, map[string]*StoredTemplate{
		"header": {Source: "== {{title}} =="},
		"footer": {Source: "-- {{author}} --", Substitutions: map[string]any{"author": "stored", "year": "1999"}},
		"layout": {Source: "{{include header include}}\n{{body}}\n{{include footer include}}"},
		"who":    {Source: "{{> echo this.Name; <}}"},
	})

	t.Run("nested includes inherit substitutions", func(t *testing.T) {
		e := New("{{include layout include}}", map[string]any{"title": "T", "body": "B", "author": "caller"},
			WithStorage(storage), WithPlugins(NewIncludePlugin()))
		assert.Equal(t, "== T ==\nB\n-- caller --", mustParse(t, e))
	})

	t.Run("stored substitutions fill gaps", func(t *testing.T) {
		e := New("{{include footer include}}", nil, WithStorage(storage), WithPlugins(NewIncludePlugin()))
		assert.Equal(t, "-- stored --", mustParse(t, e))
	})

	t.Run("bound object shared", func(t *testing.T) {
		e := New("<{{include who include}}>", nil, WithStorage(storage), WithPlugins(NewIncludePlugin())).
			BindTo(&greeter{Name: "bob"})
		assert.Equal(t, "<bob>", mustParse(t, e))
	})

	t.Run("local plugins shared", func(t *testing.T) {
		local := seedStorage(t, map[string]*StoredTemplate{"link": {Source: "{{url docs url}}"}})
		e := New("{{include link include}}", nil, WithStorage(local), WithPlugins(NewIncludePlugin(), urlPlugin()))
		assert.Equal(t, "https://localhost/docs", mustParse(t, e))
	})

	t.Run("from storage engine", func(t *testing.T) {
		e, err := NewFromStorage(context.Background(), storage, "layout",
			map[string]any{"title": "S", "body": "-"}, WithPlugins(NewIncludePlugin()))
		require.NoError(t, err)
		assert.Equal(t, "== S ==\n-\n-- stored --", mustParse(t, e))
	})
}

func TestIncludePlugin_Errors(t *testing.T) {
	storage := seedStorage(t, map[string]*StoredTemplate{
		"loop": {Source: "x{{include loop include}}"},
	})

	t.Run("missing template", func(t *testing.T) {
		e := New("[{{include nope include}}]", nil, WithStorage(storage), WithPlugins(NewIncludePlugin()))
		assert.Equal(t, "[]", mustParse(t, e))

		e = New("[{{include nope include}}]", nil, WithStorage(storage), WithPlugins(NewIncludePlugin()),
			WithErrorStrategy(ErrorStrategyThrow))
		_, err := e.Parse(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTemplateNotFound)
	})

	t.Run("no storage", func(t *testing.T) {
		e := New("{{include part include}}", nil, WithPlugins(NewIncludePlugin()),
			WithErrorStrategy(ErrorStrategyThrow))
		_, err := e.Parse(context.Background())
		require.Error(t, err)
		assert.True(t, chainContains(err, ErrMsgIncludeNoStorage))
	})

	t.Run("depth limit", func(t *testing.T) {
		e := New("{{include loop include}}", nil, WithStorage(storage), WithPlugins(NewIncludePlugin()))
		assert.Equal(t, strings.Repeat("x", IncludeMaxDepth), mustParse(t, e))

		e = New("{{include loop include}}", nil, WithStorage(storage), WithPlugins(NewIncludePlugin()),
			WithErrorStrategy(ErrorStrategyThrow))
		_, err := e.Parse(context.Background())
		require.Error(t, err)
		assert.True(t, chainContains(err, ErrMsgIncludeDepth))
	})

	t.Run("keep raw", func(t *testing.T) {
		e := New("{{include nope include}}", nil, WithStorage(storage), WithPlugins(NewIncludePlugin()),
			WithErrorStrategy(ErrorStrategyKeepRaw))
		assert.Equal(t, "{{include nope include}}", mustParse(t, e))
	})
}
