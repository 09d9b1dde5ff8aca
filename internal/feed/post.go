package feed

import (
	"time"

	"github.com/d60-Lab/linkup/internal/cache"
	"github.com/d60-Lab/linkup/internal/model"
)

// Post is the client-facing feed item: the post row plus the denormalized
// author snapshot and engagement counters. Likes and CommentCount are filled
// by the store's aggregation on fetch and start empty for live inserts.
type Post struct {
	ID           string                 `json:"id"`
	AuthorID     string                 `json:"author_id"`
	Body         string                 `json:"body"`
	File         string                 `json:"file,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	Author       *cache.ProfileSnapshot `json:"author,omitempty"`
	Likes        []string               `json:"likes"`
	CommentCount int                    `json:"comment_count"`
}

func fromModel(p *model.Post) *Post {
	item := &Post{
		ID:           p.ID,
		AuthorID:     p.AuthorID,
		Body:         p.Body,
		File:         p.File,
		CreatedAt:    p.CreatedAt,
		Likes:        []string{},
		CommentCount: 0,
	}
	if p.Author != nil {
		item.Author = &cache.ProfileSnapshot{
			ID:       p.Author.ID,
			Username: p.Author.Username,
			Image:    p.Author.Image,
			Bio:      p.Author.Bio,
		}
	}
	return item
}
