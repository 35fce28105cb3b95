package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound = errors.New("post not found")
	ErrInvalid  = errors.New("invalid post")
)

type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// UnmarshalJSON also accepts the "_id" key used by blobs written before the
// field was renamed.
func (p *Post) UnmarshalJSON(data []byte) error {
	type plain Post
	var raw struct {
		plain
		LegacyID *int64 `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Post(raw.plain)
	if p.ID == 0 && raw.LegacyID != nil {
		p.ID = *raw.LegacyID
	}
	return nil
}

// Draft is the caller supplied part of a new post.
type Draft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (d Draft) Validate() error {
	if d.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if d.Content == "" {
		return fmt.Errorf("%w: content is required", ErrInvalid)
	}
	return nil
}

// Patch holds the fields of an update. ID and CreatedAt are not patchable.
type Patch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

func (p Patch) Validate() error {
	if p.Title != nil && *p.Title == "" {
		return fmt.Errorf("%w: title must not be empty", ErrInvalid)
	}
	if p.Content != nil && *p.Content == "" {
		return fmt.Errorf("%w: content must not be empty", ErrInvalid)
	}
	return nil
}

func (p Patch) Apply(post Post) Post {
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Content != nil {
		post.Content = *p.Content
	}
	return post
}

// Timestamp normalizes t to the precision kept in persisted blobs.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
