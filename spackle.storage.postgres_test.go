package spackle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostgresStorage_ListSQL(t *testing.T) {
	s := &PostgresStorage{config: PostgresConfig{TablePrefix: "t_"}}

	tests := []struct {
		name      string
		query     *TemplateQuery
		contains  []string
		absent    []string
		args      []any
		pageInSQL bool
	}{
		{
			name:      "latest only",
			query:     &TemplateQuery{},
			contains:  []string{"SELECT DISTINCT ON (name) ", "FROM t_templates ORDER BY name ASC, version DESC"},
			absent:    []string{"WHERE", "LIMIT", "OFFSET"},
			pageInSQL: true,
		},
		{
			name:      "filters and paging",
			query:     &TemplateQuery{CreatedBy: "ops", Tags: []string{"a", "b"}, Limit: 2, Offset: 1, IncludeAllVersions: true},
			contains:  []string{"WHERE created_by = $1 AND tags @> $2::jsonb AND tags @> $3::jsonb", " LIMIT 2", " OFFSET 1"},
			absent:    []string{"DISTINCT"},
			args:      []any{"ops", `["a"]`, `["b"]`},
			pageInSQL: true,
		},
		{
			name:     "pattern pages in Go",
			query:    &TemplateQuery{Pattern: "mail/**", Limit: 2},
			absent:   []string{"LIMIT"},
			contains: []string{"ORDER BY"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, pageInSQL := s.listSQL(tt.query)
			for _, c := range tt.contains {
				assert.Contains(t, sql, c)
			}
			for _, a := range tt.absent {
				assert.NotContains(t, sql, a)
			}
			assert.Equal(t, tt.args, args)
			assert.Equal(t, tt.pageInSQL, pageInSQL)
		})
	}
}
