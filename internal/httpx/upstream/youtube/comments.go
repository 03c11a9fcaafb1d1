package youtube

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/vadim/comments-fetcher/internal/domain/comment/entity"
)

type thumbnailRef struct {
	URL string `json:"url"`
}

type videoListResponse struct {
	Items []struct {
		Snippet struct {
			Title      string                  `json:"title"`
			Thumbnails map[string]thumbnailRef `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

type commentSnippet struct {
	AuthorDisplayName string     `json:"authorDisplayName"`
	TextDisplay       string     `json:"textDisplay"`
	PublishedAt       *time.Time `json:"publishedAt"`
	LikeCount         *int64     `json:"likeCount"`
}

type commentThreadListResponse struct {
	Items []struct {
		Snippet struct {
			TopLevelComment struct {
				Snippet commentSnippet `json:"snippet"`
			} `json:"topLevelComment"`
		} `json:"snippet"`
		Replies *struct {
			Comments []struct {
				Snippet commentSnippet `json:"snippet"`
			} `json:"comments"`
		} `json:"replies"`
	} `json:"items"`
}

// GetVideoComments returns a video with its first page of comment threads
func (c *Client) GetVideoComments(ctx context.Context, videoID string) (*entity.Video, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("id", videoID)

	var meta videoListResponse
	if err := c.get(ctx, "videos", params, &meta); err != nil {
		return nil, err
	}

	video := &entity.Video{
		VideoID:  videoID,
		VideoURL: watchURL + videoID,
		Comments: []entity.Comment{},
	}
	if len(meta.Items) > 0 {
		video.VideoTitle = meta.Items[0].Snippet.Title
		video.ThumbnailURL = thumbnail(meta.Items[0].Snippet.Thumbnails)
	}

	params = url.Values{}
	params.Set("part", "snippet,replies")
	params.Set("videoId", videoID)
	params.Set("maxResults", strconv.Itoa(commentPageSize))

	var threads commentThreadListResponse
	if err := c.get(ctx, "commentThreads", params, &threads); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Reason() == "commentsDisabled" {
			return video, nil
		}
		return nil, err
	}

	for _, th := range threads.Items {
		top := toComment(th.Snippet.TopLevelComment.Snippet)
		if th.Replies != nil {
			for _, r := range th.Replies.Comments {
				top.Replies = append(top.Replies, toComment(r.Snippet))
			}
		}
		video.Comments = append(video.Comments, top)
	}

	return video, nil
}

func toComment(s commentSnippet) entity.Comment {
	return entity.Comment{
		AuthorDisplayName: s.AuthorDisplayName,
		TextDisplay:       s.TextDisplay,
		PublishedAt:       s.PublishedAt,
		LikeCount:         s.LikeCount,
		Replies:           []entity.Comment{},
	}
}

// thumbnail picks the largest available thumbnail
func thumbnail(thumbs map[string]thumbnailRef) string {
	for _, size := range []string{"maxres", "standard", "high", "medium", "default"} {
		if t, ok := thumbs[size]; ok && t.URL != "" {
			return t.URL
		}
	}
	return ""
}
