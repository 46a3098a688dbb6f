package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"herblog/internal/common"
	"herblog/internal/domain/model"
	"herblog/internal/domain/repository"
	"herblog/internal/platform/cache"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const maxTitleLength = 200

type PostService struct {
	postRepo  repository.PostRepository
	listCache *cache.PostListCache // nil disables caching
}

func NewPostService(postRepo repository.PostRepository, listCache *cache.PostListCache) *PostService {
	return &PostService{postRepo: postRepo, listCache: listCache}
}

type CreatePostRequest struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Image   *string `json:"image"`
}

type UpdatePostRequest struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	Image   *string `json:"image,omitempty"`
}

func (s *PostService) CreatePost(ctx context.Context, authorID string, req CreatePostRequest) (*model.Post, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" || req.Content == "" {
		return nil, fmt.Errorf("title and content are required: %w", common.ErrBadRequest)
	}
	if len(title) > maxTitleLength {
		return nil, fmt.Errorf("title cannot exceed %d characters: %w", maxTitleLength, common.ErrValidation)
	}

	id := uuid.NewString()
	post := &model.Post{
		ID:    id,
		Title: title,
		// Suffix keeps slugs unique across posts sharing a title.
		Slug:     slug.Make(title) + "-" + id[:8],
		Content:  req.Content,
		Image:    req.Image,
		AuthorID: authorID,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	s.listCache.Invalidate(ctx)

	full, err := s.postRepo.FindByID(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load created post: %w", err)
	}
	return full, nil
}

func (s *PostService) UpdatePost(ctx context.Context, userID, postID string, req UpdatePostRequest) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, err // common.ErrNotFound or other errors
	}
	// Existence precedes authorization; ownership precedes validation.
	if post.AuthorID != userID {
		return nil, fmt.Errorf("only the author may modify this post: %w", common.ErrForbidden)
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, fmt.Errorf("title cannot be empty: %w", common.ErrValidation)
		}
		if len(title) > maxTitleLength {
			return nil, fmt.Errorf("title cannot exceed %d characters: %w", maxTitleLength, common.ErrValidation)
		}
		post.Title = title
	}
	if req.Content != nil {
		if *req.Content == "" {
			return nil, fmt.Errorf("content cannot be empty: %w", common.ErrValidation)
		}
		post.Content = *req.Content
	}
	if req.Image != nil {
		post.Image = req.Image
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	s.listCache.Invalidate(ctx)

	full, err := s.postRepo.FindByID(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load updated post: %w", err)
	}
	return full, nil
}

func (s *PostService) DeletePost(ctx context.Context, userID, postID string) error {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != userID {
		return fmt.Errorf("only the author may delete this post: %w", common.ErrForbidden)
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	s.listCache.Invalidate(ctx)
	return nil
}

func (s *PostService) GetPost(ctx context.Context, postID string) (*model.Post, error) {
	return s.postRepo.FindByID(ctx, postID)
}

// ListPosts returns all posts newest-first, served from the Redis cache when
// a fresh copy exists.
func (s *PostService) ListPosts(ctx context.Context) ([]model.Post, error) {
	if payload, ok := s.listCache.Get(ctx); ok {
		var posts []model.Post
		if err := json.Unmarshal(payload, &posts); err == nil {
			return posts, nil
		}
		// Corrupt cache entry: fall through to the database.
		s.listCache.Invalidate(ctx)
	}

	posts, err := s.postRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(posts); err == nil {
		s.listCache.Set(ctx, payload)
	}
	return posts, nil
}
