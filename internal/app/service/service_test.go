package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"companion_hub/internal/common"
	"companion_hub/internal/common/security"
	"companion_hub/internal/domain/model"
	"companion_hub/internal/domain/repository"
	"companion_hub/internal/domain/repository/memory"
)

type fixture struct {
	store    *memory.Store
	tokens   *security.TokenManager
	auth     *AuthService
	posts    *PostService
	comments *CommentService
}

func newFixture(policy AccessPolicy) *fixture {
	store := memory.NewStore()
	tokens := security.NewTokenManager([]byte("test-secret"), security.DefaultTokenTTL)
	return &fixture{
		store:    store,
		tokens:   tokens,
		auth:     NewAuthService(store.Users(), security.NewPasswordHasher(4), tokens),
		posts:    NewPostService(store.Posts(), store.Comments(), policy),
		comments: NewCommentService(store.Comments(), store.Posts(), policy),
	}
}

func (f *fixture) register(t *testing.T, username string) model.Identity {
	t.Helper()
	resp, err := f.auth.Register(context.Background(), RegisterRequest{Username: username, Password: "pw-" + username})
	if err != nil {
		t.Fatalf("Register %s: %v", username, err)
	}
	return model.Identity{UserID: resp.ID, Username: resp.Username}
}

func TestRegisterIssuesVerifiableToken(t *testing.T) {
	f := newFixture(AccessPolicy{})

	resp, err := f.auth.Register(context.Background(), RegisterRequest{Username: "alice", Password: "pw1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.ID != 1 || resp.Username != "alice" || resp.Token == "" {
		t.Fatalf("unexpected response %+v", resp)
	}

	identity, err := f.tokens.Verify(resp.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if identity.UserID != 1 || identity.Username != "alice" {
		t.Fatalf("unexpected identity %+v", identity)
	}
}

func TestRegisterDuplicateKeepsOriginalCredentials(t *testing.T) {
	f := newFixture(AccessPolicy{})
	ctx := context.Background()

	if _, err := f.auth.Register(ctx, RegisterRequest{Username: "alice", Password: "pw1"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := f.auth.Register(ctx, RegisterRequest{Username: "alice", Password: "other"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	if _, err := f.auth.Login(ctx, LoginRequest{Username: "alice", Password: "pw1"}); err != nil {
		t.Fatalf("original password should still work: %v", err)
	}
	if _, err := f.auth.Login(ctx, LoginRequest{Username: "alice", Password: "other"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("second password must not have been stored, got %v", err)
	}
}

// racingUsers reports the name as free but the insert hits the constraint.
type racingUsers struct {
	repository.UserRepository
}

func (racingUsers) ExistsByUsername(context.Context, string) (bool, error) { return false, nil }

func (racingUsers) Create(context.Context, string, string) (*model.User, error) {
	return nil, common.Errorf("insert: %w", common.ErrConflict)
}

func TestRegisterConstraintViolationIsConflict(t *testing.T) {
	svc := NewAuthService(racingUsers{}, security.NewPasswordHasher(4), security.NewTokenManager([]byte("k"), 0))
	_, err := svc.Register(context.Background(), RegisterRequest{Username: "alice", Password: "pw"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestRegisterAndLoginValidation(t *testing.T) {
	f := newFixture(AccessPolicy{})
	ctx := context.Background()

	for _, req := range []RegisterRequest{{}, {Username: "a"}, {Password: "p"}} {
		if _, err := f.auth.Register(ctx, req); !errors.Is(err, ErrCredentialsRequired) {
			t.Fatalf("Register(%+v): expected ErrCredentialsRequired, got %v", req, err)
		}
	}
	if _, err := f.auth.Login(ctx, LoginRequest{Username: "a"}); !errors.Is(err, ErrCredentialsRequired) {
		t.Fatalf("expected ErrCredentialsRequired, got %v", err)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(AccessPolicy{})
	ctx := context.Background()
	f.register(t, "alice")

	_, wrongPassword := f.auth.Login(ctx, LoginRequest{Username: "alice", Password: "wrong"})
	_, unknownUser := f.auth.Login(ctx, LoginRequest{Username: "nobody", Password: "wrong"})

	if !errors.Is(wrongPassword, ErrInvalidCredentials) || !errors.Is(unknownUser, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v and %v", wrongPassword, unknownUser)
	}
	if common.PublicMessage(wrongPassword) != common.PublicMessage(unknownUser) {
		t.Fatal("login failures must share one message")
	}
}

func TestCreatePostOwnedByCaller(t *testing.T) {
	f := newFixture(AccessPolicy{})
	alice := f.register(t, "alice")
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	f.posts.now = func() time.Time { return fixed }

	post, err := f.posts.CreatePost(context.Background(), alice, CreatePostRequest{Title: "Best Team Comps", Content: "..."})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if post.UserID == nil || *post.UserID != alice.UserID {
		t.Fatalf("owner should be the caller, got %v", post.UserID)
	}
	if !post.CreatedAt.Equal(fixed) || !post.UpdatedAt.Equal(fixed) {
		t.Fatalf("timestamps should both be now, got %v / %v", post.CreatedAt, post.UpdatedAt)
	}
	if post.Slug != "best-team-comps" {
		t.Fatalf("unexpected slug %q", post.Slug)
	}

	if _, err := f.posts.CreatePost(context.Background(), alice, CreatePostRequest{Title: "only title"}); !errors.Is(err, ErrPostFieldsRequired) {
		t.Fatalf("expected ErrPostFieldsRequired, got %v", err)
	}
}

func TestGetPostWithComments(t *testing.T) {
	f := newFixture(AccessPolicy{})
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	post, _ := f.posts.CreatePost(ctx, alice, CreatePostRequest{Title: "t", Content: "c"})
	for _, who := range []model.Identity{bob, alice, bob} {
		if _, err := f.comments.CreateComment(ctx, who, post.ID, CreateCommentRequest{Content: "hi from " + who.Username}); err != nil {
			t.Fatalf("CreateComment: %v", err)
		}
	}

	detail, err := f.posts.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if len(detail.Comments) != 3 {
		t.Fatalf("expected 3 comments, got %d", len(detail.Comments))
	}
	wantAuthors := []string{"bob", "alice", "bob"}
	for i, c := range detail.Comments {
		if i > 0 && c.ID <= detail.Comments[i-1].ID {
			t.Fatalf("comments not in ascending id order: %+v", detail.Comments)
		}
		if c.Author.Username == nil || *c.Author.Username != wantAuthors[i] {
			t.Fatalf("comment %d author = %v, want %s", i, c.Author.Username, wantAuthors[i])
		}
	}

	list, _ := f.posts.ListPosts(ctx)
	if len(list) != 1 || list[0].CommentCount != 3 {
		t.Fatalf("unexpected listing %+v", list)
	}

	if _, err := f.posts.GetPost(ctx, 999); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestCreateCommentValidation(t *testing.T) {
	f := newFixture(AccessPolicy{})
	alice := f.register(t, "alice")

	if _, err := f.comments.CreateComment(context.Background(), alice, 1, CreateCommentRequest{}); !errors.Is(err, ErrCommentContentRequired) {
		t.Fatalf("expected ErrCommentContentRequired, got %v", err)
	}
	if _, err := f.comments.CreateComment(context.Background(), alice, 77, CreateCommentRequest{Content: "x"}); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestDeletesAreUnconditionalByDefault(t *testing.T) {
	f := newFixture(AccessPolicy{})
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	post, _ := f.posts.CreatePost(ctx, alice, CreatePostRequest{Title: "t", Content: "c"})
	comment, _ := f.comments.CreateComment(ctx, alice, post.ID, CreateCommentRequest{Content: "x"})

	if err := f.posts.DeletePost(ctx, 12345, nil); err != nil {
		t.Fatalf("deleting a missing post should succeed, got %v", err)
	}
	if err := f.comments.DeleteComment(ctx, comment.ID, &bob); err != nil {
		t.Fatalf("any caller may delete any comment by default, got %v", err)
	}
	if err := f.posts.DeletePost(ctx, post.ID, nil); err != nil {
		t.Fatalf("anonymous post delete should succeed by default, got %v", err)
	}
	if _, err := f.posts.GetPost(ctx, post.ID); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("post should be gone, got %v", err)
	}
}

func TestDeletesWithOwnershipEnforced(t *testing.T) {
	f := newFixture(AccessPolicy{EnforceOwnership: true})
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	post, _ := f.posts.CreatePost(ctx, alice, CreatePostRequest{Title: "t", Content: "c"})
	comment, _ := f.comments.CreateComment(ctx, alice, post.ID, CreateCommentRequest{Content: "x"})

	if err := f.comments.DeleteComment(ctx, comment.ID, &bob); !errors.Is(err, common.ErrForbidden) {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}
	if err := f.posts.DeletePost(ctx, post.ID, nil); !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("expected unauthorized without caller, got %v", err)
	}
	if err := f.posts.DeletePost(ctx, post.ID, &bob); !errors.Is(err, common.ErrForbidden) {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}
	if err := f.posts.DeletePost(ctx, 999, &bob); err != nil {
		t.Fatalf("missing post should still succeed, got %v", err)
	}
	if err := f.comments.DeleteComment(ctx, comment.ID, &alice); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := f.posts.DeletePost(ctx, post.ID, &alice); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
}

func TestAccessPolicyPostDeleteNeedsAuth(t *testing.T) {
	if (AccessPolicy{}).PostDeleteNeedsAuth() {
		t.Fatal("default policy must leave post delete open")
	}
	if !(AccessPolicy{RequireAuthForPostDelete: true}).PostDeleteNeedsAuth() {
		t.Fatal("explicit switch should require auth")
	}
	if !(AccessPolicy{EnforceOwnership: true}).PostDeleteNeedsAuth() {
		t.Fatal("ownership checks need a caller")
	}
}
