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

const ProfilesTable = "profiles"

// Profile represents a row in the profiles table: the local record for an
// application user, linked to the external identity by auth_user_id. The
// mapping column stays NULL for rows that predate the identity sync and is
// backfilled on first authenticated access.
type Profile struct {
	ID         int64     `db:"id" json:"id"`
	AuthUserID *string   `db:"auth_user_id" json:"authUserId"`
	Email      string    `db:"email" json:"email"`
	Name       string    `db:"name" json:"name"`
	Role       string    `db:"role" json:"role"`
	SlugKey    string    `db:"slug_key" json:"slugKey"`
	IsBlocked  bool      `db:"is_blocked" json:"isBlocked"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

var (
	// ErrProfileNotFound indicates a missing profile record.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrProfileConflict indicates a uniqueness violation (duplicated mapping).
	ErrProfileConflict = errors.New("profile conflict")
)

// ProfileStore exposes persistence helpers for the profiles table.
type ProfileStore struct {
	pool *pgxpool.Pool
}

// NewProfileStore returns a store instance bound to the shared pool.
func NewProfileStore(pool *pgxpool.Pool) (*ProfileStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &ProfileStore{pool: pool}, nil
}

const profileColumns = "id, auth_user_id, email, name, role, slug_key, is_blocked, created_at, updated_at"

// CreateProfileParams captures the fields required to provision a profile.
type CreateProfileParams struct {
	AuthUserID string
	Email      string
	Name       string
	Role       string
	SlugKey    string
}

// CreateProfile inserts a new profile and returns the persisted record.
func (s *ProfileStore) CreateProfile(ctx context.Context, params CreateProfileParams) (Profile, error) {
	if params.AuthUserID == "" {
		return Profile{}, errors.New("auth user id is required")
	}
	if params.Role == "" {
		params.Role = "User"
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (auth_user_id, email, name, role, slug_key)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING %s
    `, ProfilesTable, profileColumns),
		params.AuthUserID,
		strings.TrimSpace(params.Email),
		strings.TrimSpace(params.Name),
		params.Role,
		params.SlugKey,
	)

	profile, err := scanProfile(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Profile{}, ErrProfileConflict
		}
		return Profile{}, fmt.Errorf("insert profile: %w", err)
	}

	return profile, nil
}

// GetProfileByAuthUserID returns the profile mapped to the given subject id.
func (s *ProfileStore) GetProfileByAuthUserID(ctx context.Context, authUserID string) (Profile, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s FROM %s WHERE auth_user_id = $1
    `, profileColumns, ProfilesTable), authUserID)

	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrProfileNotFound
		}
		return Profile{}, fmt.Errorf("get profile by auth user id: %w", err)
	}

	return profile, nil
}

// GetProfileByEmail returns the oldest profile matching the email. Email is
// not unique for legacy rows, so the lookup pins creation order to stay
// deterministic.
func (s *ProfileStore) GetProfileByEmail(ctx context.Context, email string) (Profile, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s FROM %s WHERE email = $1 ORDER BY created_at ASC, id ASC LIMIT 1
    `, profileColumns, ProfilesTable), email)

	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrProfileNotFound
		}
		return Profile{}, fmt.Errorf("get profile by email: %w", err)
	}

	return profile, nil
}

// SetAuthUserID backfills the subject-id mapping on a legacy row.
func (s *ProfileStore) SetAuthUserID(ctx context.Context, id int64, authUserID string) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`
        UPDATE %s SET auth_user_id = $1, updated_at = NOW() WHERE id = $2
    `, ProfilesTable), authUserID, id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrProfileConflict
		}
		return fmt.Errorf("set auth user id: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}

	return nil
}

func scanProfile(row pgx.Row) (Profile, error) {
	var profile Profile

	if err := row.Scan(
		&profile.ID,
		&profile.AuthUserID,
		&profile.Email,
		&profile.Name,
		&profile.Role,
		&profile.SlugKey,
		&profile.IsBlocked,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return Profile{}, err
	}

	return profile, nil
}
