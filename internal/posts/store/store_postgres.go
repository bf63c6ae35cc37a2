package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"postgate/internal/posts/models"
	"postgate/pkg/platform/sentinel"
)

// PostgresStore persists posts in the posts table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const postColumns = `id, title, content, author_id, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, post *models.Post) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO posts (title, content, author_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, post.Title, post.Content, post.AuthorID).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Post, error) {
	var p models.Post
	err := s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id).
		Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.ListFilter) ([]*models.Post, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if len(filter.AuthorIDs) > 0 {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+postColumns+` FROM posts WHERE author_id = ANY($1) ORDER BY id`,
			pq.Array(filter.AuthorIDs))
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT `+postColumns+` FROM posts ORDER BY id`)
	}
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var out []*models.Post
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, post *models.Post) error {
	err := s.db.QueryRowContext(ctx, `
		UPDATE posts SET title = $2, content = $3, updated_at = now()
		WHERE id = $1
		RETURNING author_id, created_at, updated_at
	`, post.ID, post.Title, post.Content).Scan(&post.AuthorID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
