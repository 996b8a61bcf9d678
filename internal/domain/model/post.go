package model

import "time"

type Post struct {
	ID        int64     `json:"post_id"`
	UserID    *int64    `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Slug is derived from Title on the way out and never stored.
	Slug string `json:"slug"`
}

// Author is the embedded owner reference. Username is null when the owner
// row no longer exists.
type Author struct {
	Username *string `json:"username"`
}

// PostSummary is one row of the post listing.
type PostSummary struct {
	Post
	Author       Author `json:"User"`
	CommentCount int    `json:"comment_count"`
}

// PostDetail is a single post with its full comment thread.
type PostDetail struct {
	Post
	Author   Author          `json:"User"`
	Comments []CommentDetail `json:"Comments"`
}
