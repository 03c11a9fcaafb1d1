package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(append([]ClientOption{WithBaseURL(srv.URL), WithAPIKey("secret")}, opts...)...)
}

func TestGetUploadsPlaylistID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/channels", r.URL.Path)
		assert.Equal(t, "contentDetails", r.URL.Query().Get("part"))
		assert.Equal(t, "secret", r.URL.Query().Get("key"))

		if r.URL.Query().Get("id") == "UCmissing" {
			_, _ = w.Write([]byte(`{"items":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"items":[{"contentDetails":{"relatedPlaylists":{"uploads":"UUabc"}}}]}`))
	})

	id, err := c.GetUploadsPlaylistID(context.Background(), "UCabc")
	require.NoError(t, err)
	assert.Equal(t, "UUabc", id)

	_, err = c.GetUploadsPlaylistID(context.Background(), "UCmissing")
	assert.ErrorIs(t, err, ErrChannelNotFound)
}

func TestGetVideoIDs_Paginates(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/playlistItems", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("maxResults"))

		switch r.URL.Query().Get("pageToken") {
		case "":
			_, _ = w.Write([]byte(`{"nextPageToken":"p2","items":[{"contentDetails":{"videoId":"v1"}},{"contentDetails":{"videoId":"v2"}}]}`))
		case "p2":
			_, _ = w.Write([]byte(`{"nextPageToken":"p3","items":[{"contentDetails":{"videoId":"v3"}}]}`))
		default:
			_, _ = w.Write([]byte(`{"items":[{"contentDetails":{"videoId":"v4"}}]}`))
		}
	})

	ids, err := c.GetVideoIDs(context.Background(), "UUabc", 50, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2", "v3", "v4"}, ids)
	assert.Equal(t, int32(3), calls.Load())

	calls.Store(0)
	ids, err = c.GetVideoIDs(context.Background(), "UUabc", 50, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2", "v3"}, ids)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetVideoComments(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/videos":
			_, _ = w.Write([]byte(`{"items":[{"snippet":{"title":"Launch day","thumbnails":{"default":{"url":"d.jpg"},"high":{"url":"h.jpg"}}}}]}`))
		case "/commentThreads":
			assert.Equal(t, "snippet,replies", r.URL.Query().Get("part"))
			assert.Equal(t, "100", r.URL.Query().Get("maxResults"))
			_, _ = w.Write([]byte(`{"items":[
				{"snippet":{"topLevelComment":{"snippet":{"authorDisplayName":"ann","textDisplay":"great<br>video","publishedAt":"2024-05-01T10:00:00Z","likeCount":7}}},
				 "replies":{"comments":[{"snippet":{"authorDisplayName":"bob","textDisplay":"agreed","publishedAt":"2024-05-02T10:00:00Z","likeCount":0}}]}},
				{"snippet":{"topLevelComment":{"snippet":{"authorDisplayName":"cid","textDisplay":"meh"}}}}
			]}`))
		default:
			http.NotFound(w, r)
		}
	})

	v, err := c.GetVideoComments(context.Background(), "vid1")
	require.NoError(t, err)

	assert.Equal(t, "vid1", v.VideoID)
	assert.Equal(t, "Launch day", v.VideoTitle)
	assert.Equal(t, "https://www.youtube.com/watch?v=vid1", v.VideoURL)
	assert.Equal(t, "h.jpg", v.ThumbnailURL)
	require.Len(t, v.Comments, 2)

	first := v.Comments[0]
	assert.Equal(t, "ann", first.AuthorDisplayName)
	assert.Equal(t, "great<br>video", first.TextDisplay)
	require.NotNil(t, first.LikeCount)
	assert.Equal(t, int64(7), *first.LikeCount)
	require.NotNil(t, first.PublishedAt)
	assert.True(t, first.PublishedAt.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
	require.Len(t, first.Replies, 1)
	assert.Equal(t, "bob", first.Replies[0].AuthorDisplayName)

	second := v.Comments[1]
	assert.Nil(t, second.LikeCount)
	assert.Nil(t, second.PublishedAt)
	assert.Empty(t, second.Replies)
}

func TestGetVideoComments_CommentsDisabled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/videos" {
			_, _ = w.Write([]byte(`{"items":[{"snippet":{"title":"Quiet"}}]}`))
			return
		}
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"disabled","errors":[{"reason":"commentsDisabled"}]}}`))
	})

	v, err := c.GetVideoComments(context.Background(), "vid1")
	require.NoError(t, err)
	assert.Equal(t, "Quiet", v.VideoTitle)
	assert.Empty(t, v.Comments)
}

func TestAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quota","errors":[{"reason":"quotaExceeded","domain":"youtube.quota"}]}}`))
	})

	_, err := c.GetUploadsPlaylistID(context.Background(), "UCabc")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 403, apiErr.Code)
	assert.Equal(t, "quotaExceeded", apiErr.Reason())
	assert.Contains(t, apiErr.Error(), "quotaExceeded")
}

func TestNonJSONError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := c.GetUploadsPlaylistID(context.Background(), "UCabc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestRateLimit_HonorsContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[{"contentDetails":{"relatedPlaylists":{"uploads":"UUabc"}}}]}`))
	}, WithRateLimit(0.001, 1))

	_, err := c.GetUploadsPlaylistID(context.Background(), "UCabc")
	require.NoError(t, err, "burst allows the first request")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.GetUploadsPlaylistID(ctx, "UCabc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
}
