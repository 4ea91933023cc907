package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petalmarket/companypage-api/platform/go/persistence"
)

type mockCompanyLookup struct {
	getByOwnerFn func(ctx context.Context, ownerID int64) (persistence.Company, error)
}

func (m *mockCompanyLookup) GetCompanyByOwner(ctx context.Context, ownerID int64) (persistence.Company, error) {
	if m.getByOwnerFn == nil {
		panic("getByOwnerFn not configured")
	}
	return m.getByOwnerFn(ctx, ownerID)
}

func TestResolveExplicitIDWins(t *testing.T) {
	t.Parallel()

	lookup := &mockCompanyLookup{getByOwnerFn: func(ctx context.Context, ownerID int64) (persistence.Company, error) {
		t.Fatal("lookup must not run when an explicit id is given")
		return persistence.Company{}, nil
	}}

	resolver := NewResolver(lookup)
	profile := persistence.Profile{ID: 9}

	id, err := resolver.Resolve(context.Background(), 7, &profile)
	require.NoError(t, err)
	require.Equal(t, int64(7), id)
}

func TestResolveFromOwnedCompany(t *testing.T) {
	t.Parallel()

	lookup := &mockCompanyLookup{getByOwnerFn: func(ctx context.Context, ownerID int64) (persistence.Company, error) {
		require.Equal(t, int64(9), ownerID)
		return persistence.Company{ID: 42, UserID: 9}, nil
	}}

	resolver := NewResolver(lookup)
	profile := persistence.Profile{ID: 9}

	id, err := resolver.Resolve(context.Background(), 0, &profile)
	require.NoError(t, err)
	require.Equal(t, int64(42), id)
}

func TestResolveNoProfileNoExplicitID(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(&mockCompanyLookup{})

	_, err := resolver.Resolve(context.Background(), 0, nil)
	require.ErrorIs(t, err, ErrCompanyRequired)
}

func TestResolveLookupMissFallsThrough(t *testing.T) {
	t.Parallel()

	lookup := &mockCompanyLookup{getByOwnerFn: func(ctx context.Context, ownerID int64) (persistence.Company, error) {
		return persistence.Company{}, persistence.ErrCompanyNotFound
	}}

	resolver := NewResolver(lookup)
	profile := persistence.Profile{ID: 9}

	_, err := resolver.Resolve(context.Background(), 0, &profile)
	require.ErrorIs(t, err, ErrCompanyRequired)
}

func TestResolveLookupErrorFallsThrough(t *testing.T) {
	t.Parallel()

	lookup := &mockCompanyLookup{getByOwnerFn: func(ctx context.Context, ownerID int64) (persistence.Company, error) {
		return persistence.Company{}, errors.New("connection reset")
	}}

	resolver := NewResolver(lookup)
	profile := persistence.Profile{ID: 9}

	_, err := resolver.Resolve(context.Background(), 0, &profile)
	require.ErrorIs(t, err, ErrCompanyRequired)
}
