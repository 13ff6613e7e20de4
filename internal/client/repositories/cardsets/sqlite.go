package cardsets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/flashgenius/internal/client/models"
	"github.com/dmitrijs2005/flashgenius/internal/common"
	"github.com/dmitrijs2005/flashgenius/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func (r *SQLiteRepository) Insert(ctx context.Context, s models.CardSet) error {
	query := `INSERT INTO card_sets (id, name, description, theme, source_type, source_value, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Name, s.Description, s.Theme, string(s.SourceType), s.SourceValue,
		toMillis(s.CreatedAt), toMillis(s.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert card set: %w", err)
	}
	return r.writeChildren(ctx, s)
}

func (r *SQLiteRepository) Update(ctx context.Context, s models.CardSet) (int, error) {
	query := `UPDATE card_sets SET name = ?, description = ?, theme = ?, source_type = ?, source_value = ?, updated_at = ?
			WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		s.Name, s.Description, s.Theme, string(s.SourceType), s.SourceValue, toMillis(s.UpdatedAt), s.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to update card set: %w", err)
	}
	n, err := dbx.Affected(res)
	if err != nil || n == 0 {
		return n, err
	}

	if err := r.deleteChildren(ctx, s.ID); err != nil {
		return 0, err
	}
	if err := r.writeChildren(ctx, s); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *SQLiteRepository) writeChildren(ctx context.Context, s models.CardSet) error {
	for i, c := range s.Cards {
		_, err := r.db.ExecContext(ctx, `INSERT INTO cards (card_set_id, position, id, front, back, front_image, back_image, hint, details)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID, i, c.ID, c.Front, c.Back, c.FrontImage, c.BackImage, c.Hint, c.Details)
		if err != nil {
			return fmt.Errorf("failed to insert card %s: %w", c.ID, err)
		}
	}
	for i, tag := range s.Tags {
		_, err := r.db.ExecContext(ctx, `INSERT INTO card_set_tags (card_set_id, position, tag) VALUES (?, ?, ?)`, s.ID, i, tag)
		if err != nil {
			return fmt.Errorf("failed to insert card set tag %q: %w", tag, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) deleteChildren(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cards WHERE card_set_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete cards: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM card_set_tags WHERE card_set_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete card set tags: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) (int, error) {
	if err := r.deleteChildren(ctx, id); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM card_sets WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete card set: %w", err)
	}
	return dbx.Affected(res)
}

const selectSets = `SELECT id, name, description, theme, source_type, source_value, created_at, updated_at FROM card_sets`

func scanSet(row interface{ Scan(...any) error }) (models.CardSet, error) {
	var s models.CardSet
	var sourceType string
	var created, updated int64
	if err := row.Scan(&s.ID, &s.Name, &s.Description, &s.Theme, &sourceType, &s.SourceValue, &created, &updated); err != nil {
		return models.CardSet{}, err
	}
	s.SourceType = models.InputType(sourceType)
	s.CreatedAt, s.UpdatedAt = fromMillis(created), fromMillis(updated)
	s.Tags = []string{}
	s.Cards = []models.Flashcard{}
	return s, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (models.CardSet, error) {
	s, err := scanSet(r.db.QueryRowContext(ctx, selectSets+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.CardSet{}, fmt.Errorf("%w: card set %s", common.ErrNotFound, id)
	}
	if err != nil {
		return models.CardSet{}, fmt.Errorf("failed to get card set: %w", err)
	}

	sets := []models.CardSet{s}
	if err := r.loadChildren(ctx, sets, `WHERE card_set_id = ?`, id); err != nil {
		return models.CardSet{}, err
	}
	return sets[0], nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.CardSet, error) {
	rows, err := r.db.QueryContext(ctx, selectSets+` ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select card sets: %w", err)
	}
	defer rows.Close()

	result := []models.CardSet{}
	for rows.Next() {
		s, err := scanSet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card set: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadChildren(ctx, result, ""); err != nil {
		return nil, err
	}
	return result, nil
}

// loadChildren fills the cards and tags of sets from rows matching where.
func (r *SQLiteRepository) loadChildren(ctx context.Context, sets []models.CardSet, where string, args ...any) error {
	index := make(map[string]int, len(sets))
	for i, s := range sets {
		index[s.ID] = i
	}

	rows, err := r.db.QueryContext(ctx, `SELECT card_set_id, id, front, back, front_image, back_image, hint, details
			FROM cards `+where+` ORDER BY card_set_id, position`, args...)
	if err != nil {
		return fmt.Errorf("failed to select cards: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var setID string
		var c models.Flashcard
		if err := rows.Scan(&setID, &c.ID, &c.Front, &c.Back, &c.FrontImage, &c.BackImage, &c.Hint, &c.Details); err != nil {
			return fmt.Errorf("failed to scan card: %w", err)
		}
		if i, ok := index[setID]; ok {
			sets[i].Cards = append(sets[i].Cards, c)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	tagRows, err := r.db.QueryContext(ctx, `SELECT card_set_id, tag FROM card_set_tags `+where+` ORDER BY card_set_id, position`, args...)
	if err != nil {
		return fmt.Errorf("failed to select card set tags: %w", err)
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var setID, tag string
		if err := tagRows.Scan(&setID, &tag); err != nil {
			return fmt.Errorf("failed to scan card set tag: %w", err)
		}
		if i, ok := index[setID]; ok {
			sets[i].Tags = append(sets[i].Tags, tag)
		}
	}
	return tagRows.Err()
}

func (r *SQLiteRepository) Themes(ctx context.Context) ([]string, error) {
	return r.column(ctx, "themes", `SELECT DISTINCT theme FROM card_sets WHERE theme <> '' ORDER BY theme`)
}

func (r *SQLiteRepository) Tags(ctx context.Context) ([]string, error) {
	return r.column(ctx, "tags", `SELECT DISTINCT tag FROM card_set_tags WHERE tag <> '' ORDER BY tag`)
}

func (r *SQLiteRepository) column(ctx context.Context, what, query string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", what, err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
