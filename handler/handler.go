package handler

import (
	"context"

	"blogger/domain"
)

// PostStore is the part of the post store the HTTP handlers use.
type PostStore interface {
	List(ctx context.Context) []domain.Post
	Get(ctx context.Context, id int64) (domain.Post, error)
	Create(ctx context.Context, d domain.Draft) (domain.Post, error)
	Update(ctx context.Context, id int64, p domain.Patch) (domain.Post, error)
	Delete(ctx context.Context, id int64) error
}

type Handler struct {
	Store PostStore
}
