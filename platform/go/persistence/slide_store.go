package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const FloristSlidesTable = "floristslides"

// Slide represents a row in the floristslides table.
type Slide struct {
	ID          int64     `db:"id" json:"id"`
	CompanyID   int64     `db:"company_id" json:"companyId"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Image       string    `db:"image" json:"image"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// ErrSlideNotFound indicates a missing slide record.
var ErrSlideNotFound = errors.New("slide not found")

// SlideStore exposes persistence helpers for the floristslides table.
type SlideStore struct {
	pool *pgxpool.Pool
}

// NewSlideStore returns a store instance bound to the shared pool.
func NewSlideStore(pool *pgxpool.Pool) (*SlideStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &SlideStore{pool: pool}, nil
}

const slideColumns = "id, company_id, title, description, image, created_at, updated_at"

// CreateSlide inserts a slide scoped to the company and returns the record.
func (s *SlideStore) CreateSlide(ctx context.Context, companyID int64, title, description string) (Slide, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (company_id, title, description)
        VALUES ($1, $2, $3)
        RETURNING %s
    `, FloristSlidesTable, slideColumns),
		companyID,
		strings.TrimSpace(title),
		strings.TrimSpace(description),
	)

	slide, err := scanSlide(row)
	if err != nil {
		return Slide{}, fmt.Errorf("insert slide: %w", err)
	}

	return slide, nil
}

// UpdateSlideFields updates the editable fields on an existing row.
func (s *SlideStore) UpdateSlideFields(ctx context.Context, id int64, title, description string) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`
        UPDATE %s SET title = $1, description = $2, updated_at = NOW() WHERE id = $3
    `, FloristSlidesTable), strings.TrimSpace(title), strings.TrimSpace(description), id)
	if err != nil {
		return fmt.Errorf("update slide: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrSlideNotFound
	}

	return nil
}

// UpdateSlideImage sets the image URL on an existing row.
func (s *SlideStore) UpdateSlideImage(ctx context.Context, id int64, imageURL string) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`
        UPDATE %s SET image = $1, updated_at = NOW() WHERE id = $2
    `, FloristSlidesTable), imageURL, id)
	if err != nil {
		return fmt.Errorf("update slide image: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrSlideNotFound
	}

	return nil
}

// ListSlides returns every slide belonging to the company, oldest first.
func (s *SlideStore) ListSlides(ctx context.Context, companyID int64) ([]Slide, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
        SELECT %s FROM %s WHERE company_id = $1 ORDER BY created_at ASC, id ASC
    `, slideColumns, FloristSlidesTable), companyID)
	if err != nil {
		return nil, fmt.Errorf("list slides: %w", err)
	}
	defer rows.Close()

	slides := make([]Slide, 0)
	for rows.Next() {
		slide, scanErr := scanSlide(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan slide: %w", scanErr)
		}
		slides = append(slides, slide)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slides: %w", err)
	}

	return slides, nil
}

func scanSlide(row pgx.Row) (Slide, error) {
	var slide Slide

	if err := row.Scan(
		&slide.ID,
		&slide.CompanyID,
		&slide.Title,
		&slide.Description,
		&slide.Image,
		&slide.CreatedAt,
		&slide.UpdatedAt,
	); err != nil {
		return Slide{}, err
	}

	return slide, nil
}
