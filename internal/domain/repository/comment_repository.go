package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"herblog/internal/common"
	"herblog/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	ListByPostID(ctx context.Context, postID string) ([]model.Comment, error)
}

type pgCommentRepository struct {
	db *sql.DB
}

func NewPgCommentRepository(db *sql.DB) CommentRepository {
	return &pgCommentRepository{db: db}
}

func (r *pgCommentRepository) Create(ctx context.Context, c *model.Comment) error {
	query := `INSERT INTO comments (id, content, author_id, post_id)
	          VALUES ($1, $2, $3, $4)
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, c.ID, c.Content, c.AuthorID, c.PostID).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // FK violation: post vanished
			return fmt.Errorf("post for comment does not exist: %w", common.ErrNotFound)
		}
		return fmt.Errorf("pgCommentRepository.Create: %w", err)
	}
	return nil
}

func (r *pgCommentRepository) ListByPostID(ctx context.Context, postID string) ([]model.Comment, error) {
	query := `SELECT c.id, c.content, c.author_id, c.post_id,
	                 u.id, u.username, u.email,
	                 c.created_at, c.updated_at
	          FROM comments c
	          JOIN users u ON c.author_id = u.id
	          WHERE c.post_id = $1
	          ORDER BY c.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("pgCommentRepository.ListByPostID: %w", err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		comment := model.Comment{Author: &model.PublicUser{}}
		err := rows.Scan(
			&comment.ID, &comment.Content, &comment.AuthorID, &comment.PostID,
			&comment.Author.ID, &comment.Author.Username, &comment.Author.Email,
			&comment.CreatedAt, &comment.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("pgCommentRepository.ListByPostID: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgCommentRepository.ListByPostID: %w", err)
	}
	return comments, nil
}
