package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"companion_hub/internal/common"
	"companion_hub/internal/domain/model"
	"companion_hub/internal/domain/repository"
)

var ErrCommentContentRequired = common.NewError(common.ErrValidation, "content required")

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	policy      AccessPolicy
	now         func() time.Time
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository, policy AccessPolicy) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		policy:      policy,
		now:         time.Now,
	}
}

type CreateCommentRequest struct {
	Content string `json:"content"`
}

func (s *CommentService) CreateComment(ctx context.Context, identity model.Identity, postID int64, req CreateCommentRequest) (*model.Comment, error) {
	if req.Content == "" {
		return nil, ErrCommentContentRequired
	}

	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to check post %d: %w", postID, err)
	}
	if !exists {
		return nil, ErrPostNotFound
	}

	now := s.now().UTC()
	owner := identity.UserID
	comment := &model.Comment{
		PostID:    postID,
		UserID:    &owner,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		// The post can vanish between the check and the insert.
		if errors.Is(err, common.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, nil
}

// DeleteComment succeeds whether or not the comment existed.
func (s *CommentService) DeleteComment(ctx context.Context, id int64, caller *model.Identity) error {
	err := deleteUnderPolicy(ctx, s.policy, caller,
		func(ctx context.Context, ownerID *int64) (bool, error) { return s.commentRepo.Delete(ctx, id, ownerID) },
		func(ctx context.Context) (bool, error) { return s.commentRepo.Exists(ctx, id) },
	)
	if err != nil {
		return fmt.Errorf("failed to delete comment %d: %w", id, err)
	}
	return nil
}
