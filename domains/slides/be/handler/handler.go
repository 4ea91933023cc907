package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/petalmarket/companypage-api/domains/slides/be/service"
	"github.com/petalmarket/companypage-api/platform/go/auth"
	"github.com/petalmarket/companypage-api/platform/go/httpx"
	platformlogging "github.com/petalmarket/companypage-api/platform/go/logging"
	"github.com/petalmarket/companypage-api/platform/go/persistence"
	"github.com/petalmarket/companypage-api/platform/go/tenant"
)

const maxUploadBytes = 32 << 20

// Handler exposes the slide batch endpoints.
type Handler struct {
	svc     *service.Service
	tenants *tenant.Resolver
	logger  *zap.Logger
}

func New(svc *service.Service, tenants *tenant.Resolver, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("slides service is required")
	}
	if tenants == nil {
		panic("tenant resolver is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, tenants: tenants, logger: logger}
}

type batchRequest struct {
	Slides    []service.Item `json:"slides"`
	CompanyID int64          `json:"companyId"`
}

// Upsert applies a submitted slide batch and returns the full current set.
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	logger := platformlogging.FromRequest(r, h.logger)

	items, explicitID, uploads, cleanup, ok := parseBatch(r)
	defer cleanup()
	if !ok {
		httpx.Message(w, http.StatusBadRequest, "Slides array is required")
		return
	}

	companyID, err := h.resolveCompany(r, explicitID)
	if err != nil {
		httpx.Message(w, http.StatusBadRequest, "Company ID is required")
		return
	}

	slides, err := h.svc.UpsertBatch(r.Context(), companyID, items, uploads)
	if err != nil {
		logger.Error("slide batch failed", zap.Int64("companyId", companyID), zap.Error(err))
		httpx.Message(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message": "Slides processed successfully.",
		"slides":  slides,
	})
}

// Get lists the slides for the resolved company.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logger := platformlogging.FromRequest(r, h.logger)

	explicitID, _ := strconv.ParseInt(r.URL.Query().Get("companyId"), 10, 64)

	companyID, err := h.resolveCompany(r, explicitID)
	if err != nil {
		httpx.Message(w, http.StatusBadRequest, "Company ID is required")
		return
	}

	slides, err := h.svc.List(r.Context(), companyID)
	if err != nil {
		logger.Error("slide list failed", zap.Int64("companyId", companyID), zap.Error(err))
		httpx.Message(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"slides": slides})
}

func (h *Handler) resolveCompany(r *http.Request, explicitID int64) (int64, error) {
	var profile *persistence.Profile
	if p, ok := auth.ProfileFromContext(r.Context()); ok {
		profile = &p
	}
	return h.tenants.Resolve(r.Context(), explicitID, profile)
}

// parseBatch accepts either a JSON body or a multipart form carrying the
// items as a JSON field plus files keyed slides[i][image]. The returned
// cleanup closes any opened file parts and is always safe to call.
func parseBatch(r *http.Request) (items []service.Item, companyID int64, uploads map[int]service.Upload, cleanup func(), ok bool) {
	cleanup = func() {}

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, 0, nil, cleanup, false
		}

		raw := r.FormValue("slides")
		if raw == "" || json.Unmarshal([]byte(raw), &items) != nil || items == nil {
			return nil, 0, nil, cleanup, false
		}

		companyID, _ = strconv.ParseInt(r.FormValue("companyId"), 10, 64)

		uploads = make(map[int]service.Upload)
		var closers []interface{ Close() error }
		for i := range items {
			headers := r.MultipartForm.File[fmt.Sprintf("slides[%d][image]", i)]
			if len(headers) == 0 {
				continue
			}
			file, err := headers[0].Open()
			if err != nil {
				continue
			}
			closers = append(closers, file)
			uploads[i] = service.Upload{
				Filename:    headers[0].Filename,
				ContentType: headers[0].Header.Get("Content-Type"),
				Content:     file,
			}
		}
		cleanup = func() {
			for _, c := range closers {
				_ = c.Close()
			}
		}

		return items, companyID, uploads, cleanup, true
	}

	var body batchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Slides == nil {
		return nil, 0, nil, cleanup, false
	}

	return body.Slides, body.CompanyID, nil, cleanup, true
}
