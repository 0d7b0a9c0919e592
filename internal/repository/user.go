package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/vaibhavisno-one/Chat-App/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, full_name, email, password_hash, profile_pic, team_id, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.ProfilePic, &u.TeamID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, fullName, email, passwordHash string) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `
		INSERT INTO users (full_name, email, password_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
		RETURNING `+userColumns,
		fullName, email, passwordHash))
	if errors.Is(err, ErrNotFound) {
		// No row returned means the insert hit the email unique index.
		return nil, fmt.Errorf("insert user: duplicate key value on email %q", email)
	}
	return u, err
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// GetTeamID returns the user's team pointer, nil when the user has no team.
// ErrNotFound distinguishes a missing user from a user without a team.
func (r *UserRepository) GetTeamID(ctx context.Context, userID string) (*string, error) {
	var teamID *string
	err := r.pool.QueryRow(ctx, `SELECT team_id FROM users WHERE id = $1`, userID).Scan(&teamID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return teamID, err
}

// SetTeamID updates the user's team pointer. Updating a nonexistent user is an
// error so callers can detect a failed second step and compensate.
func (r *UserRepository) SetTeamID(ctx context.Context, userID string, teamID *string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET team_id = $2, updated_at = NOW() WHERE id = $1`, userID, teamID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdateProfilePic(ctx context.Context, userID, url string) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		UPDATE users SET profile_pic = $2, updated_at = NOW() WHERE id = $1
		RETURNING `+userColumns,
		userID, url))
}

// MemberProfiles returns the restricted projection of every member of teamID,
// ordered by join time.
func (r *UserRepository) MemberProfiles(ctx context.Context, teamID string) ([]*model.MemberProfile, error) {
	return r.queryProfiles(ctx, `
		SELECT u.id, u.full_name, u.profile_pic, u.email
		FROM team_members tm
		JOIN users u ON u.id = tm.user_id
		WHERE tm.team_id = $1
		ORDER BY tm.joined_at ASC
	`, teamID)
}

// SidebarCandidates is MemberProfiles minus the calling user.
func (r *UserRepository) SidebarCandidates(ctx context.Context, teamID, excludeUserID string) ([]*model.MemberProfile, error) {
	return r.queryProfiles(ctx, `
		SELECT u.id, u.full_name, u.profile_pic, u.email
		FROM team_members tm
		JOIN users u ON u.id = tm.user_id
		WHERE tm.team_id = $1 AND u.id <> $2
		ORDER BY tm.joined_at ASC
	`, teamID, excludeUserID)
}

func (r *UserRepository) queryProfiles(ctx context.Context, query string, args ...interface{}) ([]*model.MemberProfile, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*model.MemberProfile
	for rows.Next() {
		p := &model.MemberProfile{}
		if err := rows.Scan(&p.ID, &p.FullName, &p.ProfilePic, &p.Email); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
