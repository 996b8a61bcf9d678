package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"companion_hub/internal/common"
	"companion_hub/internal/domain/model"
	"companion_hub/internal/domain/repository"

	"github.com/gosimple/slug"
)

var (
	ErrPostNotFound       = common.NewError(common.ErrNotFound, "Post not found")
	ErrPostFieldsRequired = common.NewError(common.ErrValidation, "title and content required")
)

type PostService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	policy      AccessPolicy
	now         func() time.Time
}

func NewPostService(postRepo repository.PostRepository, commentRepo repository.CommentRepository, policy AccessPolicy) *PostService {
	return &PostService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		policy:      policy,
		now:         time.Now,
	}
}

// CreatePostRequest has no owner field; the owner is always the caller.
type CreatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (s *PostService) Policy() AccessPolicy {
	return s.policy
}

func (s *PostService) ListPosts(ctx context.Context) ([]model.PostSummary, error) {
	posts, err := s.postRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	for i := range posts {
		posts[i].Slug = slug.Make(posts[i].Title)
	}
	return posts, nil
}

func (s *PostService) GetPost(ctx context.Context, id int64) (*model.PostDetail, error) {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post %d: %w", id, err)
	}

	comments, err := s.commentRepo.ListByPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments for post %d: %w", id, err)
	}
	post.Comments = comments
	post.Slug = slug.Make(post.Title)
	return post, nil
}

func (s *PostService) CreatePost(ctx context.Context, identity model.Identity, req CreatePostRequest) (*model.Post, error) {
	if req.Title == "" || req.Content == "" {
		return nil, ErrPostFieldsRequired
	}

	now := s.now().UTC()
	owner := identity.UserID
	post := &model.Post{
		UserID:    &owner,
		Title:     req.Title,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	post.Slug = slug.Make(post.Title)
	return post, nil
}

// DeletePost succeeds whether or not the post existed. caller may be nil when
// the policy does not require authentication.
func (s *PostService) DeletePost(ctx context.Context, id int64, caller *model.Identity) error {
	err := deleteUnderPolicy(ctx, s.policy, caller,
		func(ctx context.Context, ownerID *int64) (bool, error) { return s.postRepo.Delete(ctx, id, ownerID) },
		func(ctx context.Context) (bool, error) { return s.postRepo.Exists(ctx, id) },
	)
	if err != nil {
		return fmt.Errorf("failed to delete post %d: %w", id, err)
	}
	return nil
}
