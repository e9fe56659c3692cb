package storage

import (
	"context"
	"errors"
	"time"
)

// Store is the post repository contract. The engine behind it is an
// implementation detail; ids stay opaque strings so callers never depend on
// how the store generates them.
type Store interface {
	CreatePost(ctx context.Context, title, content string, thumbnail *string) (*Post, error)
	GetAllPosts(ctx context.Context) ([]*Post, error)
	GetPostByID(ctx context.Context, id string) (*Post, error)

	Close() error
}

var (
	ErrNotFound        = errors.New("record not found")
	ErrUniqueViolation = errors.New("unique constraint violation")
	ErrCheckViolation  = errors.New("check constraint violation")
)

type Post struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Thumbnail *string   `db:"thumbnail" json:"thumbnail"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
