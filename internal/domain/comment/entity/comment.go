package entity

import (
	"time"
)

// Comment represents a YouTube comment. Top-level comments carry their direct
// replies; replies never nest further.
type Comment struct {
	AuthorDisplayName string     `json:"authorDisplayName"`
	TextDisplay       string     `json:"textDisplay"` // may contain raw markup
	PublishedAt       *time.Time `json:"publishedAt,omitempty"`
	LikeCount         *int64     `json:"likeCount,omitempty"`
	Replies           []Comment  `json:"replies"`
}

// ReplyCount returns the number of direct replies
func (c Comment) ReplyCount() int {
	return len(c.Replies)
}

// Likes returns the like count, treating a missing value as zero
func (c Comment) Likes() int64 {
	if c.LikeCount == nil {
		return 0
	}
	return *c.LikeCount
}

// Video represents a channel video with its top-level comment threads
type Video struct {
	VideoTitle   string    `json:"videoTitle"`
	VideoURL     string    `json:"videoUrl"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	VideoID      string    `json:"videoId"`
	Comments     []Comment `json:"comments"`
}

// ReplyCount returns the number of replies across the video's top-level comments
func (v Video) ReplyCount() int {
	total := 0
	for _, c := range v.Comments {
		total += len(c.Replies)
	}
	return total
}

// LikeCount returns the sum of likes on the video's top-level comments.
// Replies' likes are not included.
func (v Video) LikeCount() int64 {
	var total int64
	for _, c := range v.Comments {
		total += c.Likes()
	}
	return total
}
