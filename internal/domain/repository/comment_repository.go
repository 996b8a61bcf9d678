package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"companion_hub/internal/common"
	"companion_hub/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgForeignKeyViolation = "23503"

type CommentRepository interface {
	// Create fails with common.ErrNotFound when the post does not exist.
	Create(ctx context.Context, comment *model.Comment) error
	// ListByPost returns the thread ordered by comment id, oldest first.
	ListByPost(ctx context.Context, postID int64) ([]model.CommentDetail, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64, ownerID *int64) (bool, error)
}

type pgCommentRepository struct {
	db *sql.DB
}

func NewPgCommentRepository(db *sql.DB) CommentRepository {
	return &pgCommentRepository{db: db}
}

func (r *pgCommentRepository) Create(ctx context.Context, c *model.Comment) error {
	query := `INSERT INTO comments (user_id, post_id, content, "createdAt", "updatedAt")
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING comment_id, post_id, user_id, content, "createdAt", "updatedAt"`

	var owner sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, nullInt64(c.UserID), c.PostID, c.Content, c.CreatedAt, c.UpdatedAt).Scan(
		&c.ID, &c.PostID, &owner, &c.Content, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return fmt.Errorf("post %d: %w", c.PostID, common.ErrNotFound)
		}
		return fmt.Errorf("pgCommentRepository.Create: %w", err)
	}
	c.UserID = int64Ptr(owner)
	return nil
}

func (r *pgCommentRepository) ListByPost(ctx context.Context, postID int64) ([]model.CommentDetail, error) {
	query := `
        SELECT c.comment_id, c.post_id, c.user_id, c.content, c."createdAt", c."updatedAt", u.username
        FROM comments c
        LEFT JOIN users u ON c.user_id = u.user_id
        WHERE c.post_id = $1
        ORDER BY c.comment_id ASC`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("pgCommentRepository.ListByPost query: %w", err)
	}
	defer rows.Close()

	comments := []model.CommentDetail{}
	for rows.Next() {
		var (
			c        model.CommentDetail
			owner    sql.NullInt64
			username sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.PostID, &owner, &c.Content, &c.CreatedAt, &c.UpdatedAt, &username); err != nil {
			return nil, fmt.Errorf("pgCommentRepository.ListByPost scan: %w", err)
		}
		c.UserID = int64Ptr(owner)
		c.Author.Username = stringPtr(username)
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgCommentRepository.ListByPost rows: %w", err)
	}
	return comments, nil
}

func (r *pgCommentRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM comments WHERE comment_id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("pgCommentRepository.Exists: %w", err)
	}
	return exists, nil
}

func (r *pgCommentRepository) Delete(ctx context.Context, id int64, ownerID *int64) (bool, error) {
	var (
		res sql.Result
		err error
	)
	if ownerID != nil {
		res, err = r.db.ExecContext(ctx, `DELETE FROM comments WHERE comment_id = $1 AND user_id = $2`, id, *ownerID)
	} else {
		res, err = r.db.ExecContext(ctx, `DELETE FROM comments WHERE comment_id = $1`, id)
	}
	if err != nil {
		return false, fmt.Errorf("pgCommentRepository.Delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("pgCommentRepository.Delete rows affected: %w", err)
	}
	return n > 0, nil
}
