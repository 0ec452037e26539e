package repository

import (
	"context"
	"testing"

	"fluentphrases/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPhraseQuery(t *testing.T) {
	tests := []struct {
		name      string
		filter    model.PhraseFilter
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "no filter",
			filter:    model.PhraseFilter{},
			wantWhere: "",
		},
		{
			name:      "language and allow-list",
			filter:    model.PhraseFilter{Language: "en", Categories: []string{"A", "B"}},
			wantWhere: " WHERE language = $1 AND category IN ($2, $3)",
			wantArgs:  []any{"en", "A", "B"},
		},
		{
			name:      "empty allow-list matches nothing",
			filter:    model.PhraseFilter{Category: "A", Categories: []string{}},
			wantWhere: " WHERE category = $1 AND FALSE",
			wantArgs:  []any{"A"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildPhraseQuery(tt.filter)
			assert.Equal(t, "SELECT id, language, category, text, translation FROM phrases"+tt.wantWhere+" ORDER BY category, id", query)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestPhraseRepo_Find(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, language, category, text, translation FROM phrases WHERE language = $1 ORDER BY category, id`).
		WithArgs("es").
		WillReturnRows(sqlmock.NewRows([]string{"id", "language", "category", "text", "translation"}).
			AddRow("p-1", "es", "Health and Wellness", "Me duele la cabeza", "My head hurts"))

	phrases, err := NewPhraseRepo(db).Find(context.Background(), model.PhraseFilter{Language: "es"})
	require.NoError(t, err)
	require.Len(t, phrases, 1)
	assert.Equal(t, "Me duele la cabeza", phrases[0].Text)
}

func TestMemoryContentRepo_Find(t *testing.T) {
	repo := NewMemoryContentRepo([]model.Phrase{
		{ID: "1", Language: "en", Category: "Greeting and Introducing"},
		{ID: "2", Language: "en", Category: "Business"},
		{ID: "3", Language: "fr", Category: "Business"},
	}, nil)
	ctx := context.Background()

	all, err := repo.Find(ctx, model.PhraseFilter{Language: "en"})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	allowed, err := repo.Find(ctx, model.PhraseFilter{Categories: []string{"Greeting and Introducing"}})
	require.NoError(t, err)
	require.Len(t, allowed, 1)
	assert.Equal(t, "1", allowed[0].ID)
}

func TestNormalizeDSN(t *testing.T) {
	assert.Equal(t, "postgres://u:p@h/db?sslmode=disable", normalizeDSN("postgres://u:p@h/db", true))
	assert.Equal(t, "host=h dbname=db sslmode=disable", normalizeDSN("host=h dbname=db", true))
	assert.Equal(t, "postgres://u:p@h/db?sslmode=require&default_query_exec_mode=simple_protocol",
		normalizeDSN("postgres://u:p@h/db?sslmode=require", false))
}
