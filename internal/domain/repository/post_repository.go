package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"companion_hub/internal/common"
	"companion_hub/internal/domain/model"
)

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	List(ctx context.Context) ([]model.PostSummary, error)
	// FindByID returns the post and its author; Comments is left empty.
	FindByID(ctx context.Context, id int64) (*model.PostDetail, error)
	Exists(ctx context.Context, id int64) (bool, error)
	// Delete removes the post, restricted to ownerID when it is non-nil, and
	// reports whether a row was removed.
	Delete(ctx context.Context, id int64, ownerID *int64) (bool, error)
}

type pgPostRepository struct {
	db *sql.DB
}

func NewPgPostRepository(db *sql.DB) PostRepository {
	return &pgPostRepository{db: db}
}

func (r *pgPostRepository) Create(ctx context.Context, p *model.Post) error {
	query := `INSERT INTO posts (user_id, title, content, "createdAt", "updatedAt")
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING post_id, user_id, title, content, "createdAt", "updatedAt"`

	var owner sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, nullInt64(p.UserID), p.Title, p.Content, p.CreatedAt, p.UpdatedAt).Scan(
		&p.ID, &owner, &p.Title, &p.Content, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("pgPostRepository.Create: %w", err)
	}
	p.UserID = int64Ptr(owner)
	return nil
}

func (r *pgPostRepository) List(ctx context.Context) ([]model.PostSummary, error) {
	query := `
        SELECT p.post_id, p.user_id, p.title, p.content, p."createdAt", p."updatedAt",
               u.username,
               COALESCE(c.comment_count, 0) AS comment_count
        FROM posts p
        LEFT JOIN users u ON p.user_id = u.user_id
        LEFT JOIN (
            SELECT post_id, COUNT(*) AS comment_count
            FROM comments
            GROUP BY post_id
        ) c ON p.post_id = c.post_id
        ORDER BY p.post_id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgPostRepository.List query: %w", err)
	}
	defer rows.Close()

	posts := []model.PostSummary{}
	for rows.Next() {
		var (
			p        model.PostSummary
			owner    sql.NullInt64
			username sql.NullString
		)
		if err := rows.Scan(&p.ID, &owner, &p.Title, &p.Content, &p.CreatedAt, &p.UpdatedAt, &username, &p.CommentCount); err != nil {
			return nil, fmt.Errorf("pgPostRepository.List scan: %w", err)
		}
		p.UserID = int64Ptr(owner)
		p.Author.Username = stringPtr(username)
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgPostRepository.List rows: %w", err)
	}
	return posts, nil
}

func (r *pgPostRepository) FindByID(ctx context.Context, id int64) (*model.PostDetail, error) {
	query := `
        SELECT p.post_id, p.user_id, p.title, p.content, p."createdAt", p."updatedAt", u.username
        FROM posts p
        LEFT JOIN users u ON p.user_id = u.user_id
        WHERE p.post_id = $1`

	var (
		p        model.PostDetail
		owner    sql.NullInt64
		username sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &owner, &p.Title, &p.Content, &p.CreatedAt, &p.UpdatedAt, &username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgPostRepository.FindByID: %w", err)
	}
	p.UserID = int64Ptr(owner)
	p.Author.Username = stringPtr(username)
	p.Comments = []model.CommentDetail{}
	return &p, nil
}

func (r *pgPostRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE post_id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("pgPostRepository.Exists: %w", err)
	}
	return exists, nil
}

func (r *pgPostRepository) Delete(ctx context.Context, id int64, ownerID *int64) (bool, error) {
	var (
		res sql.Result
		err error
	)
	if ownerID != nil {
		res, err = r.db.ExecContext(ctx, `DELETE FROM posts WHERE post_id = $1 AND user_id = $2`, id, *ownerID)
	} else {
		res, err = r.db.ExecContext(ctx, `DELETE FROM posts WHERE post_id = $1`, id)
	}
	if err != nil {
		return false, fmt.Errorf("pgPostRepository.Delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("pgPostRepository.Delete rows affected: %w", err)
	}
	return n > 0, nil
}
