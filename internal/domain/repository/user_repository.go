package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"companion_hub/internal/common"
	"companion_hub/internal/domain/model"
)

type UserRepository interface {
	// Create fails with common.ErrConflict when the username is taken. The
	// storage layer is the authority on uniqueness.
	Create(ctx context.Context, username, passwordHash string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

func (r *pgUserRepository) Create(ctx context.Context, username, passwordHash string) (*model.User, error) {
	query := `INSERT INTO users (username, password)
	          VALUES ($1, $2)
	          RETURNING user_id, username, password`
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, username, passwordHash).Scan(&user.ID, &user.Username, &user.PasswordHash)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return nil, fmt.Errorf("user %q already exists: %w", username, common.ErrConflict)
		}
		return nil, fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("pgUserRepository.ExistsByUsername: %w", err)
	}
	return exists, nil
}

func (r *pgUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT user_id, username, password FROM users WHERE username = $1`
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(&user.ID, &user.Username, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByUsername: %w", err)
	}
	return user, nil
}
