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

const PackagesTable = "packages"

// Package represents a row in the packages table.
type Package struct {
	ID        int64     `db:"id" json:"id"`
	CompanyID int64     `db:"company_id" json:"companyId"`
	Title     string    `db:"title" json:"title"`
	Price     float64   `db:"price" json:"price"`
	Image     string    `db:"image" json:"image"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ErrPackageNotFound indicates a missing package record.
var ErrPackageNotFound = errors.New("package not found")

// PackageStore exposes persistence helpers for the packages table.
type PackageStore struct {
	pool *pgxpool.Pool
}

// NewPackageStore returns a store instance bound to the shared pool.
func NewPackageStore(pool *pgxpool.Pool) (*PackageStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &PackageStore{pool: pool}, nil
}

const packageColumns = "id, company_id, title, price, image, created_at, updated_at"

// CreatePackage inserts a package scoped to the company and returns the record.
func (s *PackageStore) CreatePackage(ctx context.Context, companyID int64, title string, price float64) (Package, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (company_id, title, price)
        VALUES ($1, $2, $3)
        RETURNING %s
    `, PackagesTable, packageColumns),
		companyID,
		strings.TrimSpace(title),
		price,
	)

	pkg, err := scanPackage(row)
	if err != nil {
		return Package{}, fmt.Errorf("insert package: %w", err)
	}

	return pkg, nil
}

// UpdatePackageFields updates the editable fields on an existing row.
func (s *PackageStore) UpdatePackageFields(ctx context.Context, id int64, title string, price float64) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`
        UPDATE %s SET title = $1, price = $2, updated_at = NOW() WHERE id = $3
    `, PackagesTable), strings.TrimSpace(title), price, id)
	if err != nil {
		return fmt.Errorf("update package: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrPackageNotFound
	}

	return nil
}

// UpdatePackageImage sets the image URL on an existing row.
func (s *PackageStore) UpdatePackageImage(ctx context.Context, id int64, imageURL string) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`
        UPDATE %s SET image = $1, updated_at = NOW() WHERE id = $2
    `, PackagesTable), imageURL, id)
	if err != nil {
		return fmt.Errorf("update package image: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrPackageNotFound
	}

	return nil
}

// ListPackages returns up to limit packages for the company, newest first.
// The original store applied the cap over an unspecified order; pinning
// created_at DESC keeps the truncation deterministic.
func (s *PackageStore) ListPackages(ctx context.Context, companyID int64, limit int) ([]Package, error) {
	if limit <= 0 {
		limit = 3
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
        SELECT %s FROM %s WHERE company_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2
    `, packageColumns, PackagesTable), companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()

	packages := make([]Package, 0)
	for rows.Next() {
		pkg, scanErr := scanPackage(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan package: %w", scanErr)
		}
		packages = append(packages, pkg)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate packages: %w", err)
	}

	return packages, nil
}

func scanPackage(row pgx.Row) (Package, error) {
	var pkg Package

	if err := row.Scan(
		&pkg.ID,
		&pkg.CompanyID,
		&pkg.Title,
		&pkg.Price,
		&pkg.Image,
		&pkg.CreatedAt,
		&pkg.UpdatedAt,
	); err != nil {
		return Package{}, err
	}

	return pkg, nil
}
