package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/waraqati/waraqa-backend/internal/model"
)

// WorksheetRepository handles worksheet data access. Question buckets, rubric
// and images are stored as JSONB so the document shape can evolve without
// migrations.
type WorksheetRepository struct {
	pool *pgxpool.Pool
}

// NewWorksheetRepository creates a new WorksheetRepository.
func NewWorksheetRepository(pool *pgxpool.Pool) *WorksheetRepository {
	return &WorksheetRepository{pool: pool}
}

// GetByID retrieves a worksheet by its UUID.
func (r *WorksheetRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Worksheet, error) {
	w := &model.Worksheet{}
	var meta, below, within, above, rubric, images []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, author_id, meta, passage, below, within, above, rubric, images, created_at, updated_at
		 FROM worksheets WHERE id = $1`, id,
	).Scan(&w.ID, &w.AuthorID, &meta, &w.Passage, &below, &within, &above, &rubric, &images,
		&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := unmarshalWorksheet(w, meta, below, within, above, rubric, images); err != nil {
		return nil, err
	}
	return w, nil
}

// ListByAuthor retrieves an author's worksheets, newest first. The question
// buckets come back in full; list views pick what they need.
func (r *WorksheetRepository) ListByAuthor(ctx context.Context, authorID, limit, offset int) ([]model.Worksheet, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM worksheets WHERE author_id = $1`, authorID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, author_id, meta, passage, below, within, above, rubric, images, created_at, updated_at
		 FROM worksheets WHERE author_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		authorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var worksheets []model.Worksheet
	for rows.Next() {
		var w model.Worksheet
		var meta, below, within, above, rubric, images []byte
		if err := rows.Scan(&w.ID, &w.AuthorID, &meta, &w.Passage, &below, &within, &above,
			&rubric, &images, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if err := unmarshalWorksheet(&w, meta, below, within, above, rubric, images); err != nil {
			return nil, 0, err
		}
		worksheets = append(worksheets, w)
	}
	return worksheets, total, rows.Err()
}

// Create inserts a new worksheet with a fresh UUID.
func (r *WorksheetRepository) Create(ctx context.Context, w *model.Worksheet) error {
	meta, below, within, above, rubric, images, err := marshalWorksheet(w)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO worksheets (author_id, meta, passage, below, within, above, rubric, images)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		w.AuthorID, meta, w.Passage, below, within, above, rubric, images,
	).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
}

// UpdateImages replaces a worksheet's image list.
func (r *WorksheetRepository) UpdateImages(ctx context.Context, id uuid.UUID, images []model.TextImage) error {
	data, err := json.Marshal(images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE worksheets SET images = $1, updated_at = NOW() WHERE id = $2`,
		data, id)
	return err
}

// Delete removes a worksheet owned by the given author.
func (r *WorksheetRepository) Delete(ctx context.Context, id uuid.UUID, authorID int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM worksheets WHERE id = $1 AND author_id = $2`, id, authorID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func marshalWorksheet(w *model.Worksheet) (meta, below, within, above, rubric, images []byte, err error) {
	if meta, err = json.Marshal(w.Meta); err != nil {
		return nil, nil, nil, nil, nil, nil, fmt.Errorf("marshal meta: %w", err)
	}
	if below, err = json.Marshal(w.Below); err != nil {
		return nil, nil, nil, nil, nil, nil, fmt.Errorf("marshal below: %w", err)
	}
	if within, err = json.Marshal(w.Within); err != nil {
		return nil, nil, nil, nil, nil, nil, fmt.Errorf("marshal within: %w", err)
	}
	if above, err = json.Marshal(w.Above); err != nil {
		return nil, nil, nil, nil, nil, nil, fmt.Errorf("marshal above: %w", err)
	}
	if rubric, err = json.Marshal(w.Rubric); err != nil {
		return nil, nil, nil, nil, nil, nil, fmt.Errorf("marshal rubric: %w", err)
	}
	if images, err = json.Marshal(w.Images); err != nil {
		return nil, nil, nil, nil, nil, nil, fmt.Errorf("marshal images: %w", err)
	}
	return meta, below, within, above, rubric, images, nil
}

func unmarshalWorksheet(w *model.Worksheet, meta, below, within, above, rubric, images []byte) error {
	if err := json.Unmarshal(meta, &w.Meta); err != nil {
		return fmt.Errorf("unmarshal meta: %w", err)
	}
	if err := json.Unmarshal(below, &w.Below); err != nil {
		return fmt.Errorf("unmarshal below: %w", err)
	}
	if err := json.Unmarshal(within, &w.Within); err != nil {
		return fmt.Errorf("unmarshal within: %w", err)
	}
	if err := json.Unmarshal(above, &w.Above); err != nil {
		return fmt.Errorf("unmarshal above: %w", err)
	}
	if err := json.Unmarshal(rubric, &w.Rubric); err != nil {
		return fmt.Errorf("unmarshal rubric: %w", err)
	}
	if err := json.Unmarshal(images, &w.Images); err != nil {
		return fmt.Errorf("unmarshal images: %w", err)
	}
	return nil
}
