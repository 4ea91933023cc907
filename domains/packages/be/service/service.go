package service

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/petalmarket/companypage-api/platform/go/persistence"
	"github.com/petalmarket/companypage-api/platform/go/storage"
)

// Listings are capped at the storefront's display size.
const listLimit = 3

// Item is one entry of a submitted package batch. A zero ID means insert;
// an ID with Updated set means update-in-place; an ID without Updated is
// skipped as already known to the caller.
type Item struct {
	ID      int64   `json:"id"`
	Updated bool    `json:"updated"`
	Title   string  `json:"title"`
	Price   float64 `json:"price"`
	Image   string  `json:"image"`
}

// Upload carries a file submitted alongside the batch, keyed by item index.
type Upload struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// PackageRepository is the persistence surface the service needs.
type PackageRepository interface {
	CreatePackage(ctx context.Context, companyID int64, title string, price float64) (persistence.Package, error)
	UpdatePackageFields(ctx context.Context, id int64, title string, price float64) error
	UpdatePackageImage(ctx context.Context, id int64, imageURL string) error
	ListPackages(ctx context.Context, companyID int64, limit int) ([]persistence.Package, error)
}

// CompanyRepository loads the company row echoed in package responses.
type CompanyRepository interface {
	GetCompany(ctx context.Context, id int64) (persistence.Company, error)
}

// Service implements the package batch upsert and listing operations.
type Service struct {
	packages  PackageRepository
	companies CompanyRepository
	uploader  storage.Uploader
	logger    *zap.Logger
}

func New(packages PackageRepository, companies CompanyRepository, uploader storage.Uploader, logger *zap.Logger) *Service {
	if packages == nil {
		panic("package repository is required")
	}
	if companies == nil {
		panic("company repository is required")
	}
	if uploader == nil {
		panic("uploader is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{packages: packages, companies: companies, uploader: uploader, logger: logger}
}

// Listing is the authoritative state returned after a batch or a read:
// the capped package list plus the owning company row.
type Listing struct {
	Packages []persistence.Package
	Company  *persistence.Company
}

// UpsertBatch applies the submitted items in order and returns the current
// listing for the company. Insert failures abort the batch; update and
// image sub-steps are best-effort and only logged.
func (s *Service) UpsertBatch(ctx context.Context, companyID int64, items []Item, uploads map[int]Upload) (Listing, error) {
	for i, item := range items {
		switch {
		case item.ID > 0 && item.Updated:
			if err := s.packages.UpdatePackageFields(ctx, item.ID, item.Title, item.Price); err != nil {
				s.logger.Warn("package update failed",
					zap.Int64("packageId", item.ID),
					zap.Int64("companyId", companyID),
					zap.Error(err))
			}
			s.attachImage(ctx, companyID, item.ID, item, uploads[i])
		case item.ID > 0:
			// Unchanged, already known to the caller.
		default:
			created, err := s.packages.CreatePackage(ctx, companyID, item.Title, item.Price)
			if err != nil {
				return Listing{}, fmt.Errorf("create package: %w", err)
			}
			s.attachImage(ctx, companyID, created.ID, item, uploads[i])
		}
	}

	return s.List(ctx, companyID)
}

// List returns the capped package list plus the owning company. A missing
// company row is not an error; the company field is simply absent.
func (s *Service) List(ctx context.Context, companyID int64) (Listing, error) {
	packages, err := s.packages.ListPackages(ctx, companyID, listLimit)
	if err != nil {
		return Listing{}, err
	}

	listing := Listing{Packages: packages}
	if company, err := s.companies.GetCompany(ctx, companyID); err == nil {
		listing.Company = &company
	}

	return listing, nil
}

// attachImage prefers an uploaded file over an inline image string. Both
// paths are best-effort: failures are logged and the batch continues.
func (s *Service) attachImage(ctx context.Context, companyID, packageID int64, item Item, upload Upload) {
	if upload.Content != nil {
		key, err := storage.ObjectKey(companyID, "packages", packageID, upload.Filename)
		if err != nil {
			s.logger.Warn("package image key rejected", zap.Int64("packageId", packageID), zap.Error(err))
			return
		}

		url, err := s.uploader.Upload(ctx, key, upload.ContentType, upload.Content)
		if err != nil {
			s.logger.Warn("package image upload failed", zap.Int64("packageId", packageID), zap.Error(err))
			return
		}

		if err = s.packages.UpdatePackageImage(ctx, packageID, url); err != nil {
			s.logger.Warn("package image update failed", zap.Int64("packageId", packageID), zap.Error(err))
		}
		return
	}

	if item.Image == "" {
		return
	}

	if err := s.packages.UpdatePackageImage(ctx, packageID, item.Image); err != nil {
		s.logger.Warn("package image update failed", zap.Int64("packageId", packageID), zap.Error(err))
	}
}
