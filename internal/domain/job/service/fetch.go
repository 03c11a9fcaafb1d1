package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	comment "github.com/vadim/comments-fetcher/internal/domain/comment/entity"
	commentsvc "github.com/vadim/comments-fetcher/internal/domain/comment/service"
	"github.com/vadim/comments-fetcher/internal/domain/job/entity"
	resultentity "github.com/vadim/comments-fetcher/internal/domain/result/entity"
	resultsvc "github.com/vadim/comments-fetcher/internal/domain/result/service"
	"github.com/vadim/comments-fetcher/internal/httpx/upstream/youtube"
)

// Fetch progress checkpoints
const (
	progressChannel   = 1
	progressVideosMin = 10
	progressVideosMax = 80
	progressAnalyzed  = 85
	progressSaving    = 95
	progressDone      = 100
)

// FetchInput represents input for a channel fetch job
type FetchInput struct {
	JobID     string
	ChannelID string
	PageSize  int
	MaxPages  int
	UserID    string
}

// Fetch downloads a channel's comments, analyzes them and stores the result
func (s *Service) Fetch(ctx context.Context, in FetchInput) (*resultentity.Metadata, error) {
	log := s.logger.With("job_id", in.JobID, "channel_id", in.ChannelID)
	log.Info("fetch started", "page_size", in.PageSize, "max_pages", in.MaxPages)

	s.status.ReportProgress(in.JobID, progressChannel)

	playlistID, err := s.yt.GetUploadsPlaylistID(ctx, in.ChannelID)
	if err != nil {
		if errors.Is(err, youtube.ErrChannelNotFound) {
			log.Warn("channel not found")
			return nil, s.fail(in.JobID, entity.MsgChannelNotFound, err)
		}
		return nil, s.fetchFailed(ctx, in.JobID, fmt.Errorf("getting uploads playlist: %w", err))
	}

	videoIDs, err := s.yt.GetVideoIDs(ctx, playlistID, in.PageSize, in.MaxPages)
	if err != nil {
		return nil, s.fetchFailed(ctx, in.JobID, fmt.Errorf("listing videos: %w", err))
	}
	s.status.ReportProgress(in.JobID, progressVideosMin)

	videos := make([]comment.Video, 0, len(videoIDs))
	for i, id := range videoIDs {
		v, err := s.yt.GetVideoComments(ctx, id)
		if err != nil {
			return nil, s.fetchFailed(ctx, in.JobID, fmt.Errorf("fetching comments for video %s: %w", id, err))
		}
		videos = append(videos, *v)
		s.status.ReportProgress(in.JobID, videoProgress(i, len(videoIDs)))
	}

	comments := commentsvc.Flatten(videos)
	log.Info("comments fetched", "videos", len(videos), "comments", len(comments))

	stats, err := s.analyzer.AnalyzeContext(ctx, comments, videos)
	if err != nil {
		return nil, s.fetchFailed(ctx, in.JobID, fmt.Errorf("analyzing comments: %w", err))
	}
	s.status.ReportProgress(in.JobID, progressAnalyzed)

	s.status.ReportProgress(in.JobID, progressSaving)
	meta, err := s.results.Save(ctx, resultsvc.SaveInput{
		JobID:     in.JobID,
		ChannelID: in.ChannelID,
		UserID:    in.UserID,
		Result: &resultentity.FetchResult{
			Videos:     videos,
			Comments:   comments,
			Statistics: stats,
		},
	})
	if err != nil {
		log.Error("failed to save result", "error", err)
		if canceled(err) {
			return nil, s.fail(in.JobID, entity.MsgShutdownCanceled, err)
		}
		return nil, s.fail(in.JobID, entity.MsgSaveFailed, err)
	}

	s.status.ReportProgress(in.JobID, progressDone)
	s.status.MarkCompleted(in.JobID)
	log.Info("fetch completed", "comments", meta.TotalComments, "size", meta.Size)

	return meta, nil
}

func (s *Service) fetchFailed(ctx context.Context, jobID string, err error) error {
	if canceled(err) || ctx.Err() != nil {
		s.logger.Warn("fetch canceled", "job_id", jobID, "error", err)
		return s.fail(jobID, entity.MsgShutdownCanceled, err)
	}
	s.logger.Error("fetch failed", "job_id", jobID, "error", err)
	return s.fail(jobID, entity.MsgFetchFailed, err)
}

// videoProgress maps the i-th of total downloaded videos into the video band
func videoProgress(i, total int) int {
	pct := int(math.Round(float64(i+1) * 100 / float64(total)))
	return progressVideosMin + pct*(progressVideosMax-progressVideosMin)/100
}
