package main

import (
	"context"

	"blogger/client"
	"blogger/domain"
	"blogger/postcache"
)

// postBook is what the commands need from wherever posts are kept.
type postBook interface {
	View(ctx context.Context, query string, tab postcache.Tab) ([]domain.Post, error)
	Create(ctx context.Context, d domain.Draft) error
	Delete(ctx context.Context, id int64, confirm postcache.Confirm) (bool, error)
}

type localBook struct {
	cache *postcache.Cache
}

func (b localBook) View(ctx context.Context, query string, tab postcache.Tab) ([]domain.Post, error) {
	return b.cache.View(ctx, query, tab), nil
}

func (b localBook) Create(ctx context.Context, d domain.Draft) error {
	_, err := b.cache.Create(ctx, d)
	return err
}

func (b localBook) Delete(ctx context.Context, id int64, confirm postcache.Confirm) (bool, error) {
	return b.cache.Delete(ctx, id, confirm)
}

type remoteBook struct {
	client *client.Client
}

func (b remoteBook) View(ctx context.Context, query string, tab postcache.Tab) ([]domain.Post, error) {
	posts, err := b.client.List(ctx)
	if err != nil {
		return nil, err
	}
	return postcache.View(posts, query, tab), nil
}

func (b remoteBook) Create(ctx context.Context, d domain.Draft) error {
	return b.client.Create(ctx, d)
}

func (b remoteBook) Delete(ctx context.Context, id int64, confirm postcache.Confirm) (bool, error) {
	p, err := b.client.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if confirm != nil && !confirm(p) {
		return false, nil
	}
	if err := b.client.Delete(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}
