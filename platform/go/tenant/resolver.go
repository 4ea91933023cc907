// Package tenant resolves the effective company id for a request. The same
// branching used to live inlined in every entity handler; it is shared here
// so handlers cannot drift apart.
package tenant

import (
	"context"
	"errors"

	"github.com/petalmarket/companypage-api/platform/go/persistence"
)

// ErrCompanyRequired indicates no company id could be resolved by either path.
var ErrCompanyRequired = errors.New("company id is required")

// CompanyLookup is the slice of the company store the resolver needs.
type CompanyLookup interface {
	GetCompanyByOwner(ctx context.Context, ownerID int64) (persistence.Company, error)
}

// Resolver derives the effective company id for a request.
type Resolver struct {
	companies CompanyLookup
}

// NewResolver wires the resolver to the company lookup.
func NewResolver(companies CompanyLookup) *Resolver {
	if companies == nil {
		panic("company lookup is required")
	}
	return &Resolver{companies: companies}
}

// Resolve returns the explicit company id when one was supplied, otherwise
// the company owned by the caller profile. Lookup failures fall through to
// ErrCompanyRequired; handlers never mutate without a resolved id.
func (r *Resolver) Resolve(ctx context.Context, explicitID int64, profile *persistence.Profile) (int64, error) {
	if explicitID > 0 {
		return explicitID, nil
	}

	if profile != nil {
		company, err := r.companies.GetCompanyByOwner(ctx, profile.ID)
		if err == nil {
			return company.ID, nil
		}
	}

	return 0, ErrCompanyRequired
}
