package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/petalmarket/companypage-api/domains/packages/be/service"
	"github.com/petalmarket/companypage-api/platform/go/auth"
	"github.com/petalmarket/companypage-api/platform/go/persistence"
	"github.com/petalmarket/companypage-api/platform/go/tenant"
)

type memPackages struct {
	nextID int64
	rows   []persistence.Package
}

func (m *memPackages) CreatePackage(ctx context.Context, companyID int64, title string, price float64) (persistence.Package, error) {
	m.nextID++
	row := persistence.Package{ID: m.nextID, CompanyID: companyID, Title: title, Price: price}
	m.rows = append(m.rows, row)
	return row, nil
}

func (m *memPackages) UpdatePackageFields(ctx context.Context, id int64, title string, price float64) error {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].Title = title
			m.rows[i].Price = price
			return nil
		}
	}
	return persistence.ErrPackageNotFound
}

func (m *memPackages) UpdatePackageImage(ctx context.Context, id int64, imageURL string) error {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].Image = imageURL
			return nil
		}
	}
	return persistence.ErrPackageNotFound
}

func (m *memPackages) ListPackages(ctx context.Context, companyID int64, limit int) ([]persistence.Package, error) {
	out := make([]persistence.Package, 0)
	for _, row := range m.rows {
		if row.CompanyID == companyID {
			out = append(out, row)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type memCompanies struct {
	byID    map[int64]persistence.Company
	byOwner map[int64]persistence.Company
}

func (m *memCompanies) GetCompany(ctx context.Context, id int64) (persistence.Company, error) {
	company, ok := m.byID[id]
	if !ok {
		return persistence.Company{}, persistence.ErrCompanyNotFound
	}
	return company, nil
}

func (m *memCompanies) GetCompanyByOwner(ctx context.Context, ownerID int64) (persistence.Company, error) {
	company, ok := m.byOwner[ownerID]
	if !ok {
		return persistence.Company{}, persistence.ErrCompanyNotFound
	}
	return company, nil
}

type stubUploader struct{}

func (stubUploader) Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	return "https://cdn.example.com/" + key, nil
}

func newTestHandler(t *testing.T, packages *memPackages, companies *memCompanies) *Handler {
	t.Helper()
	logger := zaptest.NewLogger(t)
	svc := service.New(packages, companies, stubUploader{}, logger)
	return New(svc, tenant.NewResolver(companies), logger)
}

func TestUpsertRejectsMissingArray(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, &memPackages{}, &memCompanies{})

	r := httptest.NewRequest(http.MethodPost, "/packages", strings.NewReader(`{"companyId":7}`))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Upsert(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "Invalid payload", body["message"])
}

func TestUpsertRequiresCompany(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, &memPackages{}, &memCompanies{})

	r := httptest.NewRequest(http.MethodPost, "/packages", strings.NewReader(`{"packages":[]}`))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Upsert(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "Company ID is required", body["message"])
}

func TestUpsertInsertsAndEchoesCompany(t *testing.T) {
	t.Parallel()

	packages := &memPackages{}
	companies := &memCompanies{
		byID:    map[int64]persistence.Company{7: {ID: 7, Name: "Rose & Thorn"}},
		byOwner: map[int64]persistence.Company{5: {ID: 7, UserID: 5}},
	}
	h := newTestHandler(t, packages, companies)

	r := httptest.NewRequest(http.MethodPost, "/packages",
		strings.NewReader(`{"packages":[{"title":"Deluxe","price":49.99}]}`))
	r.Header.Set("Content-Type", "application/json")
	r = r.WithContext(auth.WithProfile(r.Context(), persistence.Profile{ID: 5}))
	w := httptest.NewRecorder()
	h.Upsert(w, r)

	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		Message  string                `json:"message"`
		Packages []persistence.Package `json:"packages"`
		Company  *persistence.Company  `json:"company"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "Packages processed successfully.", body.Message)
	require.Len(t, body.Packages, 1)
	require.Equal(t, 49.99, body.Packages[0].Price)
	require.NotNil(t, body.Company)
	require.Equal(t, "Rose & Thorn", body.Company.Name)
}

func TestGetCapsListingAtThree(t *testing.T) {
	t.Parallel()

	packages := &memPackages{rows: []persistence.Package{
		{ID: 1, CompanyID: 7}, {ID: 2, CompanyID: 7}, {ID: 3, CompanyID: 7}, {ID: 4, CompanyID: 7},
	}}
	h := newTestHandler(t, packages, &memCompanies{})

	r := httptest.NewRequest(http.MethodGet, "/packages?companyId=7", nil)
	w := httptest.NewRecorder()
	h.Get(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Message  string                `json:"message"`
		Packages []persistence.Package `json:"packages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "Packages retrieved successfully.", body.Message)
	require.Len(t, body.Packages, 3)
}

func TestGetRequiresCompany(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, &memPackages{}, &memCompanies{})

	r := httptest.NewRequest(http.MethodGet, "/packages", nil)
	w := httptest.NewRecorder()
	h.Get(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
