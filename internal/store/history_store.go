package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/nutriscan/internal/domain"
)

// HistoryStore keeps one row per saved nutrition lookup. Nutrients are
// stored as a JSON array so the full lookup result round-trips unchanged.
type HistoryStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db, now: time.Now}
}

func (s *HistoryStore) Save(ctx context.Context, label string, nutrients []domain.Nutrient, imageURL string) (*domain.NutritionEntry, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotInitialized
	}
	if nutrients == nil {
		nutrients = []domain.Nutrient{}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate entry id: %w", err)
	}

	raw, err := json.Marshal(nutrients)
	if err != nil {
		return nil, fmt.Errorf("failed to encode nutrients: %w", err)
	}

	entry := &domain.NutritionEntry{
		ID:        id.String(),
		FoodLabel: label,
		Nutrients: nutrients,
		ImageURL:  imageURL,
		SavedAt:   s.now().UTC(),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO nutrition_entries (id, food_label, nutrients, image_url, saved_at)
		VALUES (?, ?, ?, ?, ?)
	`, entry.ID, entry.FoodLabel, string(raw), entry.ImageURL, entry.SavedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save nutrition entry: %w", err)
	}

	return entry, nil
}

// List returns every entry, newest first. An empty history is an empty
// slice, not nil.
func (s *HistoryStore) List(ctx context.Context) ([]*domain.NutritionEntry, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotInitialized
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, food_label, nutrients, image_url, saved_at
		FROM nutrition_entries
		ORDER BY saved_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list nutrition entries: %w", err)
	}
	defer rows.Close()

	entries := []*domain.NutritionEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nutrition entries: %w", err)
	}

	return entries, nil
}

// Get returns (nil, nil) when no entry has the given id.
func (s *HistoryStore) Get(ctx context.Context, id string) (*domain.NutritionEntry, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotInitialized
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, food_label, nutrients, image_url, saved_at
		FROM nutrition_entries WHERE id = ?
	`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Delete removes the entry with the given id. Unknown ids are ignored.
func (s *HistoryStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return ErrNotInitialized
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM nutrition_entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete nutrition entry: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*domain.NutritionEntry, error) {
	entry := &domain.NutritionEntry{}
	var raw string
	if err := row.Scan(&entry.ID, &entry.FoodLabel, &raw, &entry.ImageURL, &entry.SavedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan nutrition entry: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &entry.Nutrients); err != nil {
		return nil, fmt.Errorf("failed to decode nutrients for entry %s: %w", entry.ID, err)
	}
	if entry.Nutrients == nil {
		entry.Nutrients = []domain.Nutrient{}
	}
	return entry, nil
}
