package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"

	comment "github.com/vadim/comments-fetcher/internal/domain/comment/entity"
)

// FetchResult is the stored output of a fetch or analysis job
type FetchResult struct {
	Videos     []comment.Video     `json:"videos"`
	Comments   []comment.Comment   `json:"comments"`
	Statistics *comment.Statistics `json:"statistics,omitempty"`
}

// Metadata describes a stored result
type Metadata struct {
	JobID             string     `json:"job_id"`
	ChannelID         string     `json:"channel_id"`
	ChannelName       string     `json:"channel_name,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	TotalComments     int        `json:"total_comments"`
	TotalVideos       int        `json:"total_videos"`
	UniqueAuthors     int        `json:"unique_authors"`
	ObjectKey         string     `json:"object_key"`
	Size              int64      `json:"size"`
	OldestCommentDate *time.Time `json:"oldest_comment_date,omitempty"`
	NewestCommentDate *time.Time `json:"newest_comment_date,omitempty"`
	UserID            string     `json:"user_id,omitempty"`
}

// Summary aggregates all stored results
type Summary struct {
	TotalResults     int        `json:"total_results"`
	TotalSize        int64      `json:"total_size"`
	TotalComments    int        `json:"total_comments"`
	OldestResultDate *time.Time `json:"oldest_result_date,omitempty"`
	NewestResultDate *time.Time `json:"newest_result_date,omitempty"`
}

// AverageSize returns the mean payload size in bytes
func (s Summary) AverageSize() float64 {
	if s.TotalResults == 0 {
		return 0
	}
	return float64(s.TotalSize) / float64(s.TotalResults)
}

// AverageCommentsPerResult returns the mean number of comments per result
func (s Summary) AverageCommentsPerResult() float64 {
	if s.TotalResults == 0 {
		return 0
	}
	return float64(s.TotalComments) / float64(s.TotalResults)
}

// UnknownChannel is recorded when metadata is rebuilt from a payload alone
const UnknownChannel = "unknown"

// LegacyUserID owns results whose metadata was rebuilt from a payload alone
var LegacyUserID = uuid.Nil.String()

// Domain errors
var (
	ErrResultNotFound   = errors.New("result not found")
	ErrEmptyJobID       = errors.New("job_id cannot be empty")
	ErrEmptyChannelID   = errors.New("channel_id cannot be empty")
	ErrNilResult        = errors.New("result cannot be nil")
	ErrInvalidRetention = errors.New("days must not be negative")
)
