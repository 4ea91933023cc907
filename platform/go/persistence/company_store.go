package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const CompanyPagesTable = "companypages"

// Company represents a row in the companypages table: the tenant container
// for slides and packages, owned by exactly one profile.
type Company struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"userId"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// ErrCompanyNotFound indicates a missing company record.
var ErrCompanyNotFound = errors.New("company not found")

// CompanyStore exposes persistence helpers for the companypages table.
type CompanyStore struct {
	pool *pgxpool.Pool
}

// NewCompanyStore returns a store instance bound to the shared pool.
func NewCompanyStore(pool *pgxpool.Pool) (*CompanyStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &CompanyStore{pool: pool}, nil
}

const companyColumns = "id, user_id, name, description, created_at, updated_at"

// GetCompany returns a single company by identifier.
func (s *CompanyStore) GetCompany(ctx context.Context, id int64) (Company, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s FROM %s WHERE id = $1
    `, companyColumns, CompanyPagesTable), id)

	company, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, ErrCompanyNotFound
		}
		return Company{}, fmt.Errorf("get company: %w", err)
	}

	return company, nil
}

// GetCompanyByOwner returns the company owned by the given profile id.
// Ownership is assumed 1:1; the oldest row wins if that ever breaks.
func (s *CompanyStore) GetCompanyByOwner(ctx context.Context, ownerID int64) (Company, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s FROM %s WHERE user_id = $1 ORDER BY created_at ASC, id ASC LIMIT 1
    `, companyColumns, CompanyPagesTable), ownerID)

	company, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, ErrCompanyNotFound
		}
		return Company{}, fmt.Errorf("get company by owner: %w", err)
	}

	return company, nil
}

func scanCompany(row pgx.Row) (Company, error) {
	var company Company

	if err := row.Scan(
		&company.ID,
		&company.UserID,
		&company.Name,
		&company.Description,
		&company.CreatedAt,
		&company.UpdatedAt,
	); err != nil {
		return Company{}, err
	}

	return company, nil
}
