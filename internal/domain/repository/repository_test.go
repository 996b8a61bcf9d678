package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"companion_hub/internal/common"
	"companion_hub/internal/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

func TestUserCreate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (username, password)")).
		WithArgs("alice", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "username", "password"}).AddRow(1, "alice", "hash"))

	user, err := repo.Create(context.Background(), "alice", "hash")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if user.ID != 1 || user.Username != "alice" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestUserCreateUniqueViolation(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("alice", "hash").
		WillReturnError(&pgconn.PgError{Code: common.PgUniqueViolation})

	_, err := repo.Create(context.Background(), "alice", "hash")
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestUserFindByUsernameNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id, username, password FROM users WHERE username = $1")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.FindByUsername(context.Background(), "ghost"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserExistsByUsername(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByUsername(context.Background(), "alice")
	if err != nil || !exists {
		t.Fatalf("got %v, %v", exists, err)
	}
}

func TestPostList(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgPostRepository(db)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"post_id", "user_id", "title", "content", "createdAt", "updatedAt", "username", "comment_count"}).
		AddRow(2, 1, "Second", "b", now, now, "alice", 3).
		AddRow(1, nil, "First", "a", now, now, nil, 0)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY p.post_id DESC")).WillReturnRows(rows)

	posts, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0].CommentCount != 3 || posts[0].Author.Username == nil || *posts[0].Author.Username != "alice" {
		t.Fatalf("unexpected first post %+v", posts[0])
	}
	if posts[1].UserID != nil || posts[1].Author.Username != nil {
		t.Fatalf("expected orphaned post to carry null owner, got %+v", posts[1])
	}
}

func TestPostFindByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.post_id = $1")).WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)

	if _, err := repo.FindByID(context.Background(), 9); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostCreate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgPostRepository(db)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	owner := int64(7)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO posts (user_id, title, content, "createdAt", "updatedAt")`)).
		WithArgs(sqlmock.AnyArg(), "Hello", "World", now, now).
		WillReturnRows(sqlmock.NewRows([]string{"post_id", "user_id", "title", "content", "createdAt", "updatedAt"}).
			AddRow(5, 7, "Hello", "World", now, now))

	post := &model.Post{UserID: &owner, Title: "Hello", Content: "World", CreatedAt: now, UpdatedAt: now}
	if err := repo.Create(context.Background(), post); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if post.ID != 5 || post.UserID == nil || *post.UserID != 7 {
		t.Fatalf("unexpected post %+v", post)
	}
}

func TestPostDelete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgPostRepository(db)
	owner := int64(3)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM posts WHERE post_id = $1")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM posts WHERE post_id = $1 AND user_id = $2")).
		WithArgs(int64(2), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.Delete(context.Background(), 1, nil)
	if err != nil || deleted {
		t.Fatalf("expected no-op delete, got %v, %v", deleted, err)
	}
	deleted, err = repo.Delete(context.Background(), 2, &owner)
	if err != nil || !deleted {
		t.Fatalf("expected owner delete, got %v, %v", deleted, err)
	}
}

func TestCommentListByPost(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgCommentRepository(db)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"comment_id", "post_id", "user_id", "content", "createdAt", "updatedAt", "username"}).
		AddRow(1, 4, 1, "one", now, now, "alice").
		AddRow(2, 4, 2, "two", now, now, "bob")
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY c.comment_id ASC")).WithArgs(int64(4)).WillReturnRows(rows)

	comments, err := repo.ListByPost(context.Background(), 4)
	if err != nil {
		t.Fatalf("ListByPost: %v", err)
	}
	if len(comments) != 2 || *comments[1].Author.Username != "bob" {
		t.Fatalf("unexpected comments %+v", comments)
	}
}

func TestCommentCreateMissingPost(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgCommentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO comments")).
		WillReturnError(&pgconn.PgError{Code: pgForeignKeyViolation})

	uid := int64(1)
	err := repo.Create(context.Background(), &model.Comment{PostID: 99, UserID: &uid, Content: "hi"})
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReferenceFind(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgReferenceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM character_list WHERE char_id = $1")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"char_id", "name", "element"}).AddRow(1, []byte("Amber"), "Pyro"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM weapon_list WHERE weapon_id = $1")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"weapon_id", "name"}))

	rec, err := repo.Find(context.Background(), model.KindCharacter, 1)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if rec["name"] != "Amber" || rec["element"] != "Pyro" {
		t.Fatalf("unexpected record %v", rec)
	}

	if _, err := repo.Find(context.Background(), model.KindWeapon, 2); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReferenceList(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgReferenceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM weapon_list ORDER BY weapon_id")).
		WillReturnRows(sqlmock.NewRows([]string{"weapon_id", "name"}).AddRow(1, "Sword").AddRow(2, "Bow"))

	recs, err := repo.List(context.Background(), model.KindWeapon)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 2 || recs[1]["name"] != "Bow" {
		t.Fatalf("unexpected records %v", recs)
	}
}

func TestReferenceUnknownKind(t *testing.T) {
	db, _ := newMock(t)
	repo := NewPgReferenceRepository(db)

	if _, err := repo.List(context.Background(), model.ReferenceKind("spells")); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
