// Package poststore holds the server's canonical post collection and mirrors
// it to a storage slot after every mutation.
package poststore

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

type Option func(*Store)

// WithKey sets the storage key the collection is persisted under.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithClock replaces time.Now for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Store serializes every read and mutation behind mu; a mutation holds the
// lock until its write to storage has finished.
type Store struct {
	mu     sync.Mutex
	kv     storage.Store
	key    string
	posts  []domain.Post
	nextID int64
	now    func() time.Time
	log    *zap.Logger
}

// Open loads the collection persisted in kv. A missing, unreadable or corrupt
// slot leaves the store empty; the failure is logged and not returned.
func Open(ctx context.Context, kv storage.Store, opts ...Option) *Store {
	s := &Store{
		kv:  kv,
		key: DefaultKey,
		now: time.Now,
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	posts, err := storage.LoadPosts(ctx, kv, s.key)
	if err != nil {
		s.log.Warn("stored posts unreadable, starting empty", zap.String("key", s.key), zap.Error(err))
		posts = []domain.Post{}
	}
	s.posts = posts
	s.nextID = domain.MaxID(posts) + 1
	postsTotal.Set(float64(len(posts)))
	s.log.Info("post store loaded", zap.Int("posts", len(posts)), zap.Int64("next_id", s.nextID))
	return s
}

// List returns a copy of the collection in insertion order.
func (s *Store) List(ctx context.Context) []domain.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Post, len(s.posts))
	copy(out, s.posts)
	return out
}

func (s *Store) Get(ctx context.Context, id int64) (domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := domain.IndexOf(s.posts, id)
	if i < 0 {
		return domain.Post{}, domain.ErrNotFound
	}
	return s.posts[i], nil
}

func (s *Store) Create(ctx context.Context, d domain.Draft) (post domain.Post, err error) {
	defer func() { observe("create", err) }()
	if err := d.Validate(); err != nil {
		return domain.Post{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	post = domain.Post{
		ID:        s.nextID,
		Title:     d.Title,
		Content:   d.Content,
		CreatedAt: domain.Timestamp(s.now()),
	}
	next := append(append(make([]domain.Post, 0, len(s.posts)+1), s.posts...), post)
	if err := s.commit(ctx, next); err != nil {
		return domain.Post{}, err
	}
	s.nextID++
	return post, nil
}

func (s *Store) Update(ctx context.Context, id int64, p domain.Patch) (post domain.Post, err error) {
	defer func() { observe("update", err) }()
	if err := p.Validate(); err != nil {
		return domain.Post{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := domain.IndexOf(s.posts, id)
	if i < 0 {
		return domain.Post{}, domain.ErrNotFound
	}
	next := make([]domain.Post, len(s.posts))
	copy(next, s.posts)
	next[i] = p.Apply(next[i])
	if err := s.commit(ctx, next); err != nil {
		return domain.Post{}, err
	}
	return next[i], nil
}

// Delete removes every post with the given id.
func (s *Store) Delete(ctx context.Context, id int64) (err error) {
	defer func() { observe("delete", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	next, removed := domain.Without(s.posts, id)
	if removed == 0 {
		return domain.ErrNotFound
	}
	return s.commit(ctx, next)
}

// commit persists next and, only when that succeeds, makes it the current
// collection. Callers hold mu.
func (s *Store) commit(ctx context.Context, next []domain.Post) error {
	start := time.Now()
	err := storage.SavePosts(ctx, s.kv, s.key, next)
	persistDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.log.Error("persist posts", zap.String("key", s.key), zap.Error(err))
		return fmt.Errorf("persist posts: %w", err)
	}
	s.posts = next
	postsTotal.Set(float64(len(next)))
	return nil
}
