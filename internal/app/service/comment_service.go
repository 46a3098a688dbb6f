package service

import (
	"context"
	"fmt"
	"strings"

	"herblog/internal/common"
	"herblog/internal/domain/model"
	"herblog/internal/domain/repository"

	"github.com/google/uuid"
)

const maxCommentLength = 1000

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
) *CommentService {
	return &CommentService{commentRepo: commentRepo, postRepo: postRepo, userRepo: userRepo}
}

type AddCommentRequest struct {
	Content string `json:"content"`
}

func (s *CommentService) AddComment(ctx context.Context, authorID, postID string, req AddCommentRequest) (*model.Comment, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, fmt.Errorf("comment content is required: %w", common.ErrBadRequest)
	}
	if len(content) > maxCommentLength {
		return nil, fmt.Errorf("comment cannot exceed %d characters: %w", maxCommentLength, common.ErrValidation)
	}

	// Verify the post exists before accepting the comment.
	if _, err := s.postRepo.FindByID(ctx, postID); err != nil {
		return nil, err // common.ErrNotFound or other errors
	}

	comment := &model.Comment{
		ID:       uuid.NewString(),
		Content:  content,
		AuthorID: authorID,
		PostID:   postID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	author, err := s.userRepo.FindByID(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load comment author: %w", err)
	}
	comment.Author = author.Public()
	return comment, nil
}

func (s *CommentService) ListComments(ctx context.Context, postID string) ([]model.Comment, error) {
	if _, err := s.postRepo.FindByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPostID(ctx, postID)
}
