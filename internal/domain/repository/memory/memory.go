// Package memory provides map-backed implementations of the repository
// interfaces. They mirror the Postgres repositories' error semantics
// (ErrNotFound, ErrConflict) and are used by the test suites in place of a
// live database.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"herblog/internal/common"
	"herblog/internal/domain/model"
	"herblog/internal/domain/repository"
)

// Store holds all entities behind one mutex, which also gives it the
// atomic-uniqueness guarantee the real schema enforces with constraints.
type Store struct {
	mu       sync.Mutex
	users    []*model.User
	posts    []*model.Post
	comments []*model.Comment
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Users() repository.UserRepository       { return &userRepo{s} }
func (s *Store) Posts() repository.PostRepository       { return &postRepo{s} }
func (s *Store) Comments() repository.CommentRepository { return &commentRepo{s} }

func (s *Store) userByID(id string) *model.User {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (s *Store) postByID(id string) *model.Post {
	for _, p := range s.posts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Store) populatePost(p *model.Post) *model.Post {
	out := *p
	if u := s.userByID(p.AuthorID); u != nil {
		out.Author = u.Public()
	}
	return &out
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return fmt.Errorf("user with given username or email already exists: %w", common.ErrConflict)
		}
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	r.s.users = append(r.s.users, &stored)
	return nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *userRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *userRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u := r.s.userByID(id); u != nil {
		out := *u
		return &out, nil
	}
	return nil, common.ErrNotFound
}

type postRepo struct{ s *Store }

func (r *postRepo) Create(_ context.Context, post *model.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.posts {
		if p.Slug == post.Slug {
			return fmt.Errorf("post with this slug already exists: %w", common.ErrConflict)
		}
	}
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	stored := *post
	stored.Author = nil
	r.s.posts = append(r.s.posts, &stored)
	return nil
}

func (r *postRepo) Update(_ context.Context, post *model.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.s.postByID(post.ID)
	if p == nil {
		return common.ErrNotFound
	}
	p.Title = post.Title
	p.Content = post.Content
	p.Image = post.Image
	p.UpdatedAt = time.Now()
	post.UpdatedAt = p.UpdatedAt
	return nil
}

func (r *postRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, p := range r.s.posts {
		if p.ID == id {
			r.s.posts = append(r.s.posts[:i], r.s.posts[i+1:]...)
			// Cascade, as the schema does.
			kept := r.s.comments[:0]
			for _, c := range r.s.comments {
				if c.PostID != id {
					kept = append(kept, c)
				}
			}
			r.s.comments = kept
			return nil
		}
	}
	return common.ErrNotFound
}

func (r *postRepo) FindByID(_ context.Context, id string) (*model.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p := r.s.postByID(id); p != nil {
		return r.s.populatePost(p), nil
	}
	return nil, common.ErrNotFound
}

// List returns posts newest-first. Insertion order matches creation order, so
// iterating backwards keeps the ordering stable even for equal timestamps.
func (r *postRepo) List(_ context.Context) ([]model.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	posts := []model.Post{}
	for i := len(r.s.posts) - 1; i >= 0; i-- {
		posts = append(posts, *r.s.populatePost(r.s.posts[i]))
	}
	return posts, nil
}

type commentRepo struct{ s *Store }

func (r *commentRepo) Create(_ context.Context, comment *model.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.postByID(comment.PostID) == nil {
		return fmt.Errorf("post for comment does not exist: %w", common.ErrNotFound)
	}
	now := time.Now()
	comment.CreatedAt = now
	comment.UpdatedAt = now
	stored := *comment
	stored.Author = nil
	r.s.comments = append(r.s.comments, &stored)
	return nil
}

func (r *commentRepo) ListByPostID(_ context.Context, postID string) ([]model.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	comments := []model.Comment{}
	for i := len(r.s.comments) - 1; i >= 0; i-- {
		c := r.s.comments[i]
		if c.PostID != postID {
			continue
		}
		out := *c
		if u := r.s.userByID(c.AuthorID); u != nil {
			out.Author = u.Public()
		}
		comments = append(comments, out)
	}
	return comments, nil
}
