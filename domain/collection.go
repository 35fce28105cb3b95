package domain

import (
	"encoding/json"
	"fmt"
)

func EncodePosts(posts []Post) ([]byte, error) {
	if posts == nil {
		posts = []Post{}
	}
	data, err := json.Marshal(posts)
	if err != nil {
		return nil, fmt.Errorf("encode posts: %w", err)
	}
	return data, nil
}

// DecodePosts parses a persisted collection. A JSON null decodes to an empty
// collection.
func DecodePosts(data []byte) ([]Post, error) {
	var posts []Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	if posts == nil {
		posts = []Post{}
	}
	return posts, nil
}

func MaxID(posts []Post) int64 {
	var top int64
	for _, p := range posts {
		if p.ID > top {
			top = p.ID
		}
	}
	return top
}

func IndexOf(posts []Post, id int64) int {
	for i, p := range posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Without returns the posts whose id differs from id, and how many were dropped.
func Without(posts []Post, id int64) ([]Post, int) {
	kept := make([]Post, 0, len(posts))
	for _, p := range posts {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	return kept, len(posts) - len(kept)
}
