package entity

import "time"

// Statistics is the analysis result computed over a fetched corpus
type Statistics struct {
	TotalComments           int        `json:"totalComments"`
	UniqueAuthors           int        `json:"uniqueAuthors"`
	AverageCommentsPerVideo float64    `json:"averageCommentsPerVideo"`
	OldestCommentDate       *time.Time `json:"oldestCommentDate"`
	NewestCommentDate       *time.Time `json:"newestCommentDate"`

	CommentAnalysis CommentAnalysisResult `json:"commentAnalysis"`

	TopCommentedVideos     []TopVideo `json:"topCommentedVideos"`
	TopLikedCommentsVideos []TopVideo `json:"topLikedCommentsVideos"`
	TopRepliedVideos       []TopVideo `json:"topRepliedVideos"`
	TopInteractiveVideos   []TopVideo `json:"topInteractiveVideos"`

	TotalReplies int `json:"totalReplies"`
}

// CommentAnalysisResult holds the ranking output of the comment analysis
type CommentAnalysisResult struct {
	TopAuthors           Top[TopAuthor] `json:"topAuthors"`
	TopCommentsByReplies []TopComment   `json:"topCommentsByReplies"`
	TopCommentsByLikes   []TopComment   `json:"topCommentsByLikes"`
	MostUsedWords        Top[TopWord]   `json:"mostUsedWords"`
}

// Top splits a ranking into three perspectives
type Top[T any] struct {
	ByComments []T `json:"byComments"` // top-level comments only
	ByReplies  []T `json:"byReplies"`  // replies only
	ByActivity []T `json:"byActivity"` // comments and replies together
}

// TopAuthor is an author ranked by number of comments
type TopAuthor struct {
	AuthorName    string `json:"authorName"`
	CommentsCount int    `json:"commentsCount"`
}

// TopWord is a normalized token ranked by frequency
type TopWord struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// MetricKind tells which dimension a TopComment was ranked by
type MetricKind string

const (
	MetricLikes   MetricKind = "likes"
	MetricReplies MetricKind = "replies"
)

// TopComment is a top-level comment ranked by likes or replies
type TopComment struct {
	CommentText string     `json:"commentText"`
	Author      string     `json:"author"`
	Kind        MetricKind `json:"kind"`
	Count       int64      `json:"count"`
}

// TopVideo is a video ranked by one of the video dimensions.
// All components are filled regardless of the ranking they appear in.
type TopVideo struct {
	VideoTitle        string `json:"videoTitle"`
	VideoID           string `json:"videoId"`
	VideoURL          string `json:"videoUrl,omitempty"`
	ThumbnailURL      string `json:"thumbnailUrl,omitempty"`
	CommentsCount     int    `json:"commentsCount"`
	LikesCount        int64  `json:"likesCount"`
	RepliesCount      int    `json:"repliesCount"`
	TotalInteractions int    `json:"totalInteractions"`
}
