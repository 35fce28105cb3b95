// Package postcache is the client side post list. It persists to its own
// storage slot and never talks to the server.
package postcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"blogger/domain"
	"blogger/storage"

	"go.uber.org/zap"
)

const DefaultKey = "posts"

// Confirm is asked before a post is deleted. Returning false cancels.
type Confirm func(domain.Post) bool

type Option func(*Cache)

func WithKey(key string) Option {
	return func(c *Cache) { c.key = key }
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) { c.log = l }
}

type Cache struct {
	mu    sync.Mutex
	kv    storage.Store
	key   string
	posts []domain.Post
	now   func() time.Time
	log   *zap.Logger
}

// Open loads the cached list. Anything unreadable yields an empty cache.
func Open(ctx context.Context, kv storage.Store, opts ...Option) *Cache {
	c := &Cache{
		kv:  kv,
		key: DefaultKey,
		now: time.Now,
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	posts, err := storage.LoadPosts(ctx, kv, c.key)
	if err != nil {
		c.log.Warn("cached posts unreadable, starting empty", zap.Error(err))
		posts = []domain.Post{}
	}
	c.posts = posts
	return c
}

func (c *Cache) List(ctx context.Context) []domain.Post {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.Post, len(c.posts))
	copy(out, c.posts)
	return out
}

// View is the list as the UI shows it: searched, newest first, and cut down
// to the selected tab.
func (c *Cache) View(ctx context.Context, query string, tab Tab) []domain.Post {
	return View(c.List(ctx), query, tab)
}

// Create stamps the post with the current time in milliseconds as its id.
// If that id is already taken it moves past the largest one.
func (c *Cache) Create(ctx context.Context, d domain.Draft) (domain.Post, error) {
	if err := d.Validate(); err != nil {
		return domain.Post{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	id := now.UnixMilli()
	if top := domain.MaxID(c.posts); id <= top {
		id = top + 1
	}
	post := domain.Post{
		ID:        id,
		Title:     d.Title,
		Content:   d.Content,
		CreatedAt: domain.Timestamp(now),
	}
	next := append(append(make([]domain.Post, 0, len(c.posts)+1), c.posts...), post)
	if err := c.save(ctx, next); err != nil {
		c.log.Error("error submitting post", zap.Error(err))
		return domain.Post{}, err
	}
	return post, nil
}

// Delete removes the post with id once confirm agrees. It reports whether
// anything was deleted.
func (c *Cache) Delete(ctx context.Context, id int64, confirm Confirm) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := domain.IndexOf(c.posts, id)
	if i < 0 {
		return false, domain.ErrNotFound
	}
	if confirm != nil && !confirm(c.posts[i]) {
		return false, nil
	}

	next, _ := domain.Without(c.posts, id)
	if err := c.save(ctx, next); err != nil {
		c.log.Error("error deleting post", zap.Int64("id", id), zap.Error(err))
		return false, err
	}
	return true, nil
}

func (c *Cache) save(ctx context.Context, next []domain.Post) error {
	if err := storage.SavePosts(ctx, c.kv, c.key, next); err != nil {
		return fmt.Errorf("save cache: %w", err)
	}
	c.posts = next
	return nil
}
