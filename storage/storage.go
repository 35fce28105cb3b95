// Package storage defines the durable key-value slot that post collections
// are persisted to, along with helpers for whole-collection reads and writes.
package storage

import (
	"context"
	"errors"
	"fmt"

	"blogger/domain"
)

// ErrNotFound is returned by Get when a key has never been set.
var ErrNotFound = errors.New("key not found")

// Store is a durable key-value slot. Set replaces the whole value stored
// under key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// LoadPosts reads the collection stored under key. A key that was never set
// yields an empty collection.
func LoadPosts(ctx context.Context, s Store, key string) ([]domain.Post, error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return []domain.Post{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", key, err)
	}
	return domain.DecodePosts(data)
}

// SavePosts writes the entire collection under key.
func SavePosts(ctx context.Context, s Store, key string, posts []domain.Post) error {
	data, err := domain.EncodePosts(posts)
	if err != nil {
		return err
	}
	if err := s.Set(ctx, key, data); err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	return nil
}
