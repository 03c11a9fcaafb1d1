package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	commentsvc "github.com/vadim/comments-fetcher/internal/domain/comment/service"
	"github.com/vadim/comments-fetcher/internal/domain/job/entity"
	resultentity "github.com/vadim/comments-fetcher/internal/domain/result/entity"
	resultsvc "github.com/vadim/comments-fetcher/internal/domain/result/service"
)

var errNullUpload = errors.New("upload is null")

// AnalyzeInput represents input for analyzing an uploaded corpus
type AnalyzeInput struct {
	JobID   string
	Payload []byte
	UserID  string
}

// Analyze decodes an uploaded corpus, recomputes its statistics and stores the result
func (s *Service) Analyze(ctx context.Context, in AnalyzeInput) (*resultentity.Metadata, error) {
	log := s.logger.With("job_id", in.JobID)
	log.Info("analysis started", "size", len(in.Payload))

	meta, err := s.analyze(ctx, in)
	if err != nil {
		return nil, s.fail(in.JobID, analysisMessage(ctx, err), err)
	}

	s.status.ReportProgress(in.JobID, progressDone)
	s.status.MarkCompleted(in.JobID)
	log.Info("analysis completed", "comments", meta.TotalComments)

	return meta, nil
}

func (s *Service) analyze(ctx context.Context, in AnalyzeInput) (*resultentity.Metadata, error) {
	log := s.logger.With("job_id", in.JobID)
	s.status.ReportProgress(in.JobID, 10)

	var upload *resultentity.FetchResult
	if err := json.Unmarshal(in.Payload, &upload); err != nil {
		log.Error("failed to decode upload", "error", err)
		return nil, fmt.Errorf("decoding upload: %w", err)
	}
	if upload == nil {
		return nil, errNullUpload
	}
	s.status.ReportProgress(in.JobID, 20)

	if upload.Comments == nil {
		upload.Comments = commentsvc.Flatten(upload.Videos)
	}
	s.status.ReportProgress(in.JobID, 30)

	log.Info("analyzing upload", "comments", len(upload.Comments), "videos", len(upload.Videos))

	actx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.status.ReportProgress(in.JobID, 40)
	started := time.Now()
	stats, err := s.analyzer.AnalyzeContext(actx, upload.Comments, upload.Videos)
	if err != nil {
		log.Warn("analysis stopped", "error", err)
		return nil, err
	}
	log.Info("analysis finished", "elapsed_ms", time.Since(started).Milliseconds())
	upload.Statistics = stats
	s.status.ReportProgress(in.JobID, 80)

	meta, err := s.results.Save(actx, resultsvc.SaveInput{
		JobID:     in.JobID,
		ChannelID: resultentity.UnknownChannel,
		UserID:    in.UserID,
		Result:    upload,
	})
	if err != nil {
		log.Error("failed to save analysis", "error", err)
		return nil, err
	}
	s.status.ReportProgress(in.JobID, 90)

	return meta, nil
}

// analysisMessage maps an analysis failure to its user-facing message.
// A canceled parent context means shutdown; any other cancellation is the analysis deadline.
func analysisMessage(ctx context.Context, err error) string {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case canceled(err) && errors.Is(ctx.Err(), context.Canceled):
		return entity.MsgShutdownCanceled
	case canceled(err):
		return entity.MsgTimedOut
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, errNullUpload):
		return entity.MsgInvalidJSON
	default:
		return entity.MsgUnexpected
	}
}
