package repository

import (
	"context"
	"errors"

	"github.com/vaibhavisno-one/Chat-App/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TeamRepository struct {
	pool *pgxpool.Pool
}

func NewTeamRepository(pool *pgxpool.Pool) *TeamRepository {
	return &TeamRepository{pool: pool}
}

// Create inserts the team together with its owner membership row in one
// transaction, so a team can never exist without its owner in the member set.
// A join-code collision surfaces as the unique-index violation on teams.code.
func (r *TeamRepository) Create(ctx context.Context, name, code, ownerID string) (*model.Team, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	t := &model.Team{}
	err = tx.QueryRow(ctx, `
		INSERT INTO teams (name, code, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, code, owner_id, created_at, updated_at
	`, name, code, ownerID).Scan(&t.ID, &t.Name, &t.Code, &t.OwnerID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO team_members (team_id, user_id) VALUES ($1, $2)
	`, t.ID, ownerID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	t.Members = []string{ownerID}
	return t, nil
}

func (r *TeamRepository) GetByID(ctx context.Context, id string) (*model.Team, error) {
	return r.getOne(ctx, `SELECT id, name, code, owner_id, created_at, updated_at FROM teams WHERE id = $1`, id)
}

func (r *TeamRepository) GetByCode(ctx context.Context, code string) (*model.Team, error) {
	return r.getOne(ctx, `SELECT id, name, code, owner_id, created_at, updated_at FROM teams WHERE code = $1`, code)
}

func (r *TeamRepository) getOne(ctx context.Context, query, arg string) (*model.Team, error) {
	t := &model.Team{}
	err := r.pool.QueryRow(ctx, query, arg).Scan(&t.ID, &t.Name, &t.Code, &t.OwnerID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT user_id FROM team_members WHERE team_id = $1 ORDER BY joined_at ASC
	`, t.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		t.Members = append(t.Members, userID)
	}
	return t, rows.Err()
}

// Delete removes the team; team_members rows go with it (ON DELETE CASCADE).
func (r *TeamRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	return err
}

// AddMember inserts userID into the member set. Set semantics: re-inserting an
// existing member of this team is a no-op and returns added=false. A conflict
// with a membership in a different team (the unique user_id index) is NOT
// absorbed; it surfaces as the violation so the caller can react.
func (r *TeamRepository) AddMember(ctx context.Context, teamID, userID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO team_members (team_id, user_id) VALUES ($1, $2)
		ON CONFLICT (team_id, user_id) DO NOTHING
	`, teamID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *TeamRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`, teamID, userID)
	return err
}

func (r *TeamRepository) IsMember(ctx context.Context, teamID, userID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM team_members WHERE team_id = $1 AND user_id = $2)
	`, teamID, userID).Scan(&exists)
	return exists, err
}
