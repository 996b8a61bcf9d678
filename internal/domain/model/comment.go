package model

import "time"

type Comment struct {
	ID        int64     `json:"comment_id"`
	PostID    int64     `json:"post_id"`
	UserID    *int64    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CommentDetail struct {
	Comment
	Author Author `json:"User"`
}
