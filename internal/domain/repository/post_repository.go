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

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.Post, error)
	List(ctx context.Context) ([]model.Post, error)
}

type pgPostRepository struct {
	db *sql.DB
}

func NewPgPostRepository(db *sql.DB) PostRepository {
	return &pgPostRepository{db: db}
}

const postColumns = `p.id, p.title, p.slug, p.content, p.image, p.author_id,
	       u.id, u.username, u.email,
	       p.created_at, p.updated_at`

func scanPost(row *sql.Row) (*model.Post, error) {
	post := &model.Post{Author: &model.PublicUser{}}
	err := row.Scan(
		&post.ID, &post.Title, &post.Slug, &post.Content, &post.Image, &post.AuthorID,
		&post.Author.ID, &post.Author.Username, &post.Author.Email,
		&post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (r *pgPostRepository) Create(ctx context.Context, p *model.Post) error {
	query := `INSERT INTO posts (id, title, slug, content, image, author_id)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, p.ID, p.Title, p.Slug, p.Content, p.Image, p.AuthorID).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint for slug
			return fmt.Errorf("post with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgPostRepository.Create: %w", err)
	}
	return nil
}

func (r *pgPostRepository) Update(ctx context.Context, p *model.Post) error {
	query := `UPDATE posts SET
	            title = $1, content = $2, image = $3, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $4
	          RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, p.Title, p.Content, p.Image, p.ID).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("pgPostRepository.Update: %w", err)
	}
	return nil
}

func (r *pgPostRepository) Delete(ctx context.Context, id string) error {
	// Comments go with the post via ON DELETE CASCADE.
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgPostRepository.Delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgPostRepository.Delete: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgPostRepository) FindByID(ctx context.Context, id string) (*model.Post, error) {
	query := `SELECT ` + postColumns + `
	          FROM posts p
	          JOIN users u ON p.author_id = u.id
	          WHERE p.id = $1`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgPostRepository.FindByID: %w", err)
	}
	return post, nil
}

func (r *pgPostRepository) List(ctx context.Context) ([]model.Post, error) {
	query := `SELECT ` + postColumns + `
	          FROM posts p
	          JOIN users u ON p.author_id = u.id
	          ORDER BY p.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgPostRepository.List: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		post := model.Post{Author: &model.PublicUser{}}
		err := rows.Scan(
			&post.ID, &post.Title, &post.Slug, &post.Content, &post.Image, &post.AuthorID,
			&post.Author.ID, &post.Author.Username, &post.Author.Email,
			&post.CreatedAt, &post.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("pgPostRepository.List: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgPostRepository.List: %w", err)
	}
	return posts, nil
}
