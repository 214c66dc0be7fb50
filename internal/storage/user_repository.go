package storage

import (
	"context"
	"errors"

	"github.com/ignitecall/ignitecall/internal/model"
	"github.com/ignitecall/ignitecall/internal/scheduling"
	"github.com/ignitecall/ignitecall/libs/db"
	"github.com/jackc/pgx/v5"
)

type UserRepository struct {
	pool *db.Pool
}

func NewUserRepository(pool *db.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u model.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, username, name, bio, email, avatar_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, u.ID, u.Username, u.Name, u.Bio, u.Email, u.AvatarURL, u.CreatedAt)
	if uniqueViolation(err, "users_username_key") {
		return scheduling.ErrUsernameTaken
	}
	return err
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (model.User, bool, error) {
	return r.findOne(ctx, `
		SELECT id, username, name, COALESCE(bio, ''), COALESCE(email, ''), COALESCE(avatar_url, ''), created_at
		FROM users
		WHERE username = $1
	`, username)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, bool, error) {
	return r.findOne(ctx, `
		SELECT id, username, name, COALESCE(bio, ''), COALESCE(email, ''), COALESCE(avatar_url, ''), created_at
		FROM users
		WHERE id = $1
	`, id)
}

func (r *UserRepository) UpdateBio(ctx context.Context, userID, bio string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET bio = $2 WHERE id = $1
	`, userID, bio)
	return err
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (model.User, bool, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Username,
		&u.Name,
		&u.Bio,
		&u.Email,
		&u.AvatarURL,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, false, nil
	}
	if err != nil {
		return model.User{}, false, err
	}
	return u, true, nil
}
