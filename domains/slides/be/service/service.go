package service

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/petalmarket/companypage-api/platform/go/persistence"
	"github.com/petalmarket/companypage-api/platform/go/storage"
)

// Item is one entry of a submitted slide batch. A zero ID means insert;
// an ID with Updated set means update-in-place; an ID without Updated is
// skipped as already known to the caller.
type Item struct {
	ID          int64  `json:"id"`
	Updated     bool   `json:"updated"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// Upload carries a file submitted alongside the batch, keyed by item index.
type Upload struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// SlideRepository is the persistence surface the service needs.
type SlideRepository interface {
	CreateSlide(ctx context.Context, companyID int64, title, description string) (persistence.Slide, error)
	UpdateSlideFields(ctx context.Context, id int64, title, description string) error
	UpdateSlideImage(ctx context.Context, id int64, imageURL string) error
	ListSlides(ctx context.Context, companyID int64) ([]persistence.Slide, error)
}

// Service implements the slide batch upsert and listing operations.
type Service struct {
	slides   SlideRepository
	uploader storage.Uploader
	logger   *zap.Logger
}

func New(slides SlideRepository, uploader storage.Uploader, logger *zap.Logger) *Service {
	if slides == nil {
		panic("slide repository is required")
	}
	if uploader == nil {
		panic("uploader is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{slides: slides, uploader: uploader, logger: logger}
}

// UpsertBatch applies the submitted items in order and returns the full
// current slide set for the company. Insert failures abort the batch;
// update and image sub-steps are best-effort and only logged.
func (s *Service) UpsertBatch(ctx context.Context, companyID int64, items []Item, uploads map[int]Upload) ([]persistence.Slide, error) {
	for i, item := range items {
		switch {
		case item.ID > 0 && item.Updated:
			if err := s.slides.UpdateSlideFields(ctx, item.ID, item.Title, item.Description); err != nil {
				s.logger.Warn("slide update failed",
					zap.Int64("slideId", item.ID),
					zap.Int64("companyId", companyID),
					zap.Error(err))
			}
			s.attachImage(ctx, companyID, item.ID, item, uploads[i])
		case item.ID > 0:
			// Unchanged, already known to the caller.
		default:
			created, err := s.slides.CreateSlide(ctx, companyID, item.Title, item.Description)
			if err != nil {
				return nil, fmt.Errorf("create slide: %w", err)
			}
			s.attachImage(ctx, companyID, created.ID, item, uploads[i])
		}
	}

	return s.slides.ListSlides(ctx, companyID)
}

// List returns the current slide set for the company.
func (s *Service) List(ctx context.Context, companyID int64) ([]persistence.Slide, error) {
	return s.slides.ListSlides(ctx, companyID)
}

// attachImage prefers an uploaded file over an inline image string. Both
// paths are best-effort: failures are logged and the batch continues.
func (s *Service) attachImage(ctx context.Context, companyID, slideID int64, item Item, upload Upload) {
	if upload.Content != nil {
		key, err := storage.ObjectKey(companyID, "slides", slideID, upload.Filename)
		if err != nil {
			s.logger.Warn("slide image key rejected", zap.Int64("slideId", slideID), zap.Error(err))
			return
		}

		url, err := s.uploader.Upload(ctx, key, upload.ContentType, upload.Content)
		if err != nil {
			s.logger.Warn("slide image upload failed", zap.Int64("slideId", slideID), zap.Error(err))
			return
		}

		if err = s.slides.UpdateSlideImage(ctx, slideID, url); err != nil {
			s.logger.Warn("slide image update failed", zap.Int64("slideId", slideID), zap.Error(err))
		}
		return
	}

	if item.Image == "" {
		return
	}

	if err := s.slides.UpdateSlideImage(ctx, slideID, item.Image); err != nil {
		s.logger.Warn("slide image update failed", zap.Int64("slideId", slideID), zap.Error(err))
	}
}
