package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"fluentphrases/internal/model"
)

// PhraseRepository queries study phrases. It never mutates content.
type PhraseRepository interface {
	Find(ctx context.Context, f model.PhraseFilter) ([]model.Phrase, error)
}

// ReadingRepository queries reading texts.
type ReadingRepository interface {
	List(ctx context.Context) ([]model.Reading, error)
}

type phraseRepo struct {
	db *sql.DB
}

func NewPhraseRepo(db *sql.DB) PhraseRepository {
	return &phraseRepo{db: db}
}

// buildPhraseQuery renders the filter as positional SQL. Categories expand to
// an IN list so an empty, non-nil allow-list matches nothing.
func buildPhraseQuery(f model.PhraseFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Language != "" {
		args = append(args, f.Language)
		conds = append(conds, fmt.Sprintf("language = $%d", len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Categories != nil {
		if len(f.Categories) == 0 {
			conds = append(conds, "FALSE")
		} else {
			placeholders := make([]string, len(f.Categories))
			for i, c := range f.Categories {
				args = append(args, c)
				placeholders[i] = fmt.Sprintf("$%d", len(args))
			}
			conds = append(conds, "category IN ("+strings.Join(placeholders, ", ")+")")
		}
	}
	query := `SELECT id, language, category, text, translation FROM phrases`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY category, id"
	return query, args
}

func (r *phraseRepo) Find(ctx context.Context, f model.PhraseFilter) ([]model.Phrase, error) {
	query, args := buildPhraseQuery(f)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying phrases: %w", err)
	}
	defer rows.Close()

	phrases := []model.Phrase{}
	for rows.Next() {
		var p model.Phrase
		if err := rows.Scan(&p.ID, &p.Language, &p.Category, &p.Text, &p.Translation); err != nil {
			return nil, fmt.Errorf("scanning phrase: %w", err)
		}
		phrases = append(phrases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating phrases: %w", err)
	}
	return phrases, nil
}

type readingRepo struct {
	db *sql.DB
}

func NewReadingRepo(db *sql.DB) ReadingRepository {
	return &readingRepo{db: db}
}

func (r *readingRepo) List(ctx context.Context) ([]model.Reading, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, language, title, content FROM readings ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}
	defer rows.Close()

	readings := []model.Reading{}
	for rows.Next() {
		var rd model.Reading
		if err := rows.Scan(&rd.ID, &rd.Language, &rd.Title, &rd.Content); err != nil {
			return nil, fmt.Errorf("scanning reading: %w", err)
		}
		readings = append(readings, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating readings: %w", err)
	}
	return readings, nil
}

// MemoryContentRepo serves a fixed set of phrases and readings.
type MemoryContentRepo struct {
	mu       sync.RWMutex
	phrases  []model.Phrase
	readings []model.Reading
}

func NewMemoryContentRepo(phrases []model.Phrase, readings []model.Reading) *MemoryContentRepo {
	return &MemoryContentRepo{phrases: phrases, readings: readings}
}

func (r *MemoryContentRepo) Find(_ context.Context, f model.PhraseFilter) ([]model.Phrase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.Phrase{}
	for _, p := range r.phrases {
		if f.Language != "" && p.Language != f.Language {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Categories != nil && !contains(f.Categories, p.Category) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *MemoryContentRepo) List(_ context.Context) ([]model.Reading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Reading{}, r.readings...), nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
