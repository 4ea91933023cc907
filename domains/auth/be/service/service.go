// Package service implements the identity reconciliation protocol: mapping
// an externally verified identity to a local profile, provisioning on first
// sight and repairing a missing subject-id mapping on legacy rows.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/petalmarket/companypage-api/platform/go/auth"
	"github.com/petalmarket/companypage-api/platform/go/identity"
	"github.com/petalmarket/companypage-api/platform/go/persistence"
)

// ErrMissingCredentials indicates login was called without email or password.
var ErrMissingCredentials = errors.New("email and password are required")

const defaultRole = "User"

// ProfileRepository is the slice of the profile store the reconciler needs.
type ProfileRepository interface {
	GetProfileByAuthUserID(ctx context.Context, authUserID string) (persistence.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (persistence.Profile, error)
	CreateProfile(ctx context.Context, params persistence.CreateProfileParams) (persistence.Profile, error)
	SetAuthUserID(ctx context.Context, id int64, authUserID string) error
}

// Service reconciles external identities with local profiles.
type Service struct {
	verifier identity.Verifier
	profiles ProfileRepository
	logger   *zap.Logger
	now      func() time.Time
}

// New constructs the auth Service.
func New(verifier identity.Verifier, profiles ProfileRepository, logger *zap.Logger) *Service {
	if verifier == nil {
		panic("identity verifier is required")
	}
	if profiles == nil {
		panic("profile repository is required")
	}
	if logger == nil {
		panic("logger is required")
	}

	return &Service{
		verifier: verifier,
		profiles: profiles,
		logger:   logger,
		now:      time.Now,
	}
}

// Reconcile turns a bearer token into a resolved, non-blocked profile.
// Resolution order: subject-id mapping, then email, then first-seen
// provisioning. A legacy row found without its mapping gets the subject id
// backfilled best-effort. Blocked accounts are rejected last so the mapping
// repair still happens for them.
func (s *Service) Reconcile(ctx context.Context, token string) (persistence.Profile, error) {
	ident, err := s.verifier.VerifyToken(ctx, token)
	if err != nil {
		return persistence.Profile{}, err
	}

	profile, found := s.lookup(ctx, ident)

	if !found {
		profile, err = s.provision(ctx, ident)
		if err != nil {
			s.logger.Warn("profile provisioning failed",
				zap.String("subject_id", ident.SubjectID),
				zap.Error(err),
			)
			return persistence.Profile{}, fmt.Errorf("%w: %v", auth.ErrSyncFailed, err)
		}
	} else if profile.AuthUserID == nil || *profile.AuthUserID == "" {
		// Legacy row matched by email; persist the mapping now. Failure is
		// soft: the row stays usable and the backfill retries next request.
		if err := s.profiles.SetAuthUserID(ctx, profile.ID, ident.SubjectID); err != nil {
			s.logger.Warn("auth user id backfill failed",
				zap.Int64("profile_id", profile.ID),
				zap.Error(err),
			)
		}
		subjectID := ident.SubjectID
		profile.AuthUserID = &subjectID
	}

	if profile.IsBlocked {
		return persistence.Profile{}, auth.ErrBlocked
	}

	return profile, nil
}

// LoginResult carries everything the login response needs.
type LoginResult struct {
	Profile persistence.Profile
	Session identity.Session
}

// Login authenticates password credentials and resolves the profile strictly
// by subject id, provisioning when absent. Unlike Reconcile there is no email
// fallback and no mapping backfill; that asymmetry matches the observed
// behavior of the endpoint and changing it needs a product decision.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return LoginResult{}, ErrMissingCredentials
	}

	session, err := s.verifier.SignInWithPassword(ctx, email, password)
	if err != nil {
		return LoginResult{}, err
	}

	profile, err := s.profiles.GetProfileByAuthUserID(ctx, session.Identity.SubjectID)
	if err != nil {
		if !errors.Is(err, persistence.ErrProfileNotFound) {
			return LoginResult{}, fmt.Errorf("resolve profile: %w", err)
		}
		profile, err = s.provision(ctx, session.Identity)
		if err != nil {
			return LoginResult{}, fmt.Errorf("provision profile: %w", err)
		}
	}

	if profile.IsBlocked {
		return LoginResult{}, auth.ErrBlocked
	}

	return LoginResult{Profile: profile, Session: session}, nil
}

// lookup resolves by subject id first, then by email. Store errors are
// logged and treated as a miss so a flaky read degrades into provisioning
// instead of failing the request outright.
func (s *Service) lookup(ctx context.Context, ident identity.Identity) (persistence.Profile, bool) {
	profile, err := s.profiles.GetProfileByAuthUserID(ctx, ident.SubjectID)
	if err == nil {
		return profile, true
	}
	if !errors.Is(err, persistence.ErrProfileNotFound) {
		s.logger.Warn("profile lookup by subject id failed",
			zap.String("subject_id", ident.SubjectID),
			zap.Error(err),
		)
	}

	if ident.Email == "" {
		return persistence.Profile{}, false
	}

	profile, err = s.profiles.GetProfileByEmail(ctx, ident.Email)
	if err == nil {
		return profile, true
	}
	if !errors.Is(err, persistence.ErrProfileNotFound) {
		s.logger.Warn("profile lookup by email failed", zap.Error(err))
	}

	return persistence.Profile{}, false
}

func (s *Service) provision(ctx context.Context, ident identity.Identity) (persistence.Profile, error) {
	name := ""
	if ident.Name != nil {
		name = *ident.Name
	}

	return s.profiles.CreateProfile(ctx, persistence.CreateProfileParams{
		AuthUserID: ident.SubjectID,
		Email:      ident.Email,
		Name:       name,
		Role:       defaultRole,
		SlugKey:    buildSlugKey(ident.Email, s.now()),
	})
}

// buildSlugKey derives the human-readable slug: email local part (or "user"
// when the identity has no email) plus the creation epoch millis.
func buildSlugKey(email string, now time.Time) string {
	local := "user"
	if email != "" {
		local = strings.SplitN(email, "@", 2)[0]
		if local == "" {
			local = "user"
		}
	}

	return fmt.Sprintf("%s-%d", local, now.UnixMilli())
}
