package service

import (
	"context"
	"math"
	"runtime"
	"time"

	"github.com/vadim/comments-fetcher/internal/domain/comment/entity"
)

const (
	// TopCount limits author, comment and video rankings
	TopCount = 3
	// TopWordsCount limits word rankings
	TopWordsCount = 15
	// DefaultBatchSize is the number of comments tokenized between cancellation checks
	DefaultBatchSize = 500

	largeCorpus = 1000
)

// Analyzer computes comment statistics over a fetched corpus.
// It keeps no state between calls and is safe for concurrent use.
type Analyzer struct {
	batchSize int
}

// Option configures the Analyzer
type Option func(*Analyzer)

// WithBatchSize sets the word counting batch size
func WithBatchSize(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.batchSize = n
		}
	}
}

// New creates a new Analyzer
func New(opts ...Option) *Analyzer {
	a := &Analyzer{batchSize: DefaultBatchSize}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze computes statistics synchronously. It never fails on well-formed input.
func (a *Analyzer) Analyze(comments []entity.Comment, videos []entity.Video) entity.Statistics {
	// Background is never canceled, so AnalyzeContext cannot fail here
	stats, _ := a.AnalyzeContext(context.Background(), comments, videos)
	return *stats
}

// AnalyzeVideos flattens the videos' top-level comments and analyzes them
func (a *Analyzer) AnalyzeVideos(ctx context.Context, videos []entity.Video) (*entity.Statistics, error) {
	return a.AnalyzeContext(ctx, Flatten(videos), videos)
}

// AnalyzeContext computes statistics, honoring ctx cancellation between word
// counting batches. On cancellation it returns ctx.Err() and no result.
func (a *Analyzer) AnalyzeContext(ctx context.Context, comments []entity.Comment, videos []entity.Video) (*entity.Statistics, error) {
	if len(comments) > largeCorpus {
		runtime.Gosched()
	}

	replies := Replies(comments)
	activity := Activity(comments)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	oldest, newest := dateRange(comments)

	stats := &entity.Statistics{
		TotalComments:           len(comments),
		UniqueAuthors:           uniqueAuthors(comments),
		AverageCommentsPerVideo: average(len(comments), len(videos)),
		OldestCommentDate:       oldest,
		NewestCommentDate:       newest,
	}

	analysis, err := a.analyzeComments(ctx, comments, replies, activity)
	if err != nil {
		return nil, err
	}
	stats.CommentAnalysis = *analysis

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats.TopCommentedVideos = topVideos(videos, func(v entity.TopVideo) int64 { return int64(v.CommentsCount) })
	stats.TopLikedCommentsVideos = topVideos(videos, func(v entity.TopVideo) int64 { return v.LikesCount })
	stats.TopRepliedVideos = topVideos(videos, func(v entity.TopVideo) int64 { return int64(v.RepliesCount) })
	stats.TopInteractiveVideos = topVideos(videos, func(v entity.TopVideo) int64 { return int64(v.TotalInteractions) })

	for _, v := range videos {
		stats.TotalReplies += v.ReplyCount()
	}

	return stats, nil
}

func (a *Analyzer) analyzeComments(ctx context.Context, comments, replies, activity []entity.Comment) (*entity.CommentAnalysisResult, error) {
	var (
		words entity.Top[entity.TopWord]
		err   error
	)
	if words.ByComments, err = a.topWords(ctx, comments); err != nil {
		return nil, err
	}
	if words.ByReplies, err = a.topWords(ctx, replies); err != nil {
		return nil, err
	}
	if words.ByActivity, err = a.topWords(ctx, activity); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &entity.CommentAnalysisResult{
		TopAuthors: entity.Top[entity.TopAuthor]{
			ByComments: topAuthors(comments),
			ByReplies:  topAuthors(replies),
			ByActivity: topAuthors(activity),
		},
		TopCommentsByReplies: topComments(comments, entity.MetricReplies),
		TopCommentsByLikes:   topComments(comments, entity.MetricLikes),
		MostUsedWords:        words,
	}, nil
}

func topAuthors(comments []entity.Comment) []entity.TopAuthor {
	groups := groupCount(comments, func(c entity.Comment) string { return c.AuthorDisplayName }, TopCount)

	out := make([]entity.TopAuthor, 0, len(groups))
	for _, g := range groups {
		out = append(out, entity.TopAuthor{AuthorName: g.key, CommentsCount: g.count})
	}
	return out
}

// topComments ranks comments by replies or likes. Comments with a zero
// score are not candidates.
func topComments(comments []entity.Comment, kind entity.MetricKind) []entity.TopComment {
	candidates := make([]scored[entity.TopComment], 0, len(comments))
	for _, c := range comments {
		var score int64
		switch kind {
		case entity.MetricReplies:
			score = int64(c.ReplyCount())
		case entity.MetricLikes:
			score = c.Likes()
		}
		if score <= 0 {
			continue
		}

		candidates = append(candidates, scored[entity.TopComment]{
			item: entity.TopComment{
				CommentText: c.TextDisplay,
				Author:      c.AuthorDisplayName,
				Kind:        kind,
				Count:       score,
			},
			score: score,
		})
	}
	return topK(candidates, TopCount)
}

// topVideos ranks videos by score. Videos without top-level comments or with
// a zero score are not candidates.
func topVideos(videos []entity.Video, score func(entity.TopVideo) int64) []entity.TopVideo {
	candidates := make([]scored[entity.TopVideo], 0, len(videos))
	for _, v := range videos {
		if len(v.Comments) == 0 {
			continue
		}

		tv := toTopVideo(v)
		s := score(tv)
		if s <= 0 {
			continue
		}
		candidates = append(candidates, scored[entity.TopVideo]{item: tv, score: s})
	}
	return topK(candidates, TopCount)
}

func toTopVideo(v entity.Video) entity.TopVideo {
	replies := v.ReplyCount()
	return entity.TopVideo{
		VideoTitle:        v.VideoTitle,
		VideoID:           v.VideoID,
		VideoURL:          v.VideoURL,
		ThumbnailURL:      v.ThumbnailURL,
		CommentsCount:     len(v.Comments),
		LikesCount:        v.LikeCount(),
		RepliesCount:      replies,
		TotalInteractions: len(v.Comments) + replies,
	}
}

func uniqueAuthors(comments []entity.Comment) int {
	seen := make(map[string]struct{}, len(comments))
	for _, c := range comments {
		seen[c.AuthorDisplayName] = struct{}{}
	}
	return len(seen)
}

// average rounds half to even at two decimals
func average(comments, videos int) float64 {
	if videos == 0 {
		return 0
	}
	return math.RoundToEven(float64(comments)/float64(videos)*100) / 100
}

// dateRange returns the oldest and newest publish time. Comments without a
// timestamp are skipped.
func dateRange(comments []entity.Comment) (oldest, newest *time.Time) {
	for _, c := range comments {
		if c.PublishedAt == nil {
			continue
		}
		if oldest == nil || c.PublishedAt.Before(*oldest) {
			t := *c.PublishedAt
			oldest = &t
		}
		if newest == nil || c.PublishedAt.After(*newest) {
			t := *c.PublishedAt
			newest = &t
		}
	}
	return oldest, newest
}
