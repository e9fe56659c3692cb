package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"blogapi/internal/storage"
)

func (s *Store) CreatePost(ctx context.Context, title, content string, thumbnail *string) (*storage.Post, error) {
	// opaque, store-assigned id; v7 keeps insertion order roughly sortable
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("could not generate post id: %w", err)
	}

	query := `INSERT INTO posts (id, title, thumbnail, content)
		VALUES (?, ?, ?, ?)
		RETURNING id, title, thumbnail, content, created_at, updated_at`

	var post storage.Post
	if err := s.db.GetContext(ctx, &post, query, id.String(), title, thumbnail, content); err != nil {
		return nil, fmt.Errorf("could not create post: %w", mapSqlError(err))
	}

	return &post, nil
}

func (s *Store) GetAllPosts(ctx context.Context) ([]*storage.Post, error) {
	query := `SELECT id, title, thumbnail, content, created_at, updated_at
		FROM posts
		ORDER BY created_at DESC, id DESC`

	posts := []*storage.Post{}
	if err := s.db.SelectContext(ctx, &posts, query); err != nil {
		return nil, fmt.Errorf("failed to get posts: %w", mapSqlError(err))
	}

	return posts, nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*storage.Post, error) {
	query := `SELECT id, title, thumbnail, content, created_at, updated_at
		FROM posts
		WHERE id = ?
		LIMIT 1`

	var post storage.Post
	if err := s.db.GetContext(ctx, &post, query, id); err != nil {
		return nil, fmt.Errorf("cannot find post with id %q: %w", id, mapSqlError(err))
	}

	return &post, nil
}

func mapSqlError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}

	// sqlite specific errors
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {

		case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return storage.ErrUniqueViolation

		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return storage.ErrCheckViolation
		}
	}
	return err
}
