package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL  = "https://www.googleapis.com/youtube/v3"
	defaultTimeout  = 30 * time.Second
	watchURL        = "https://www.youtube.com/watch?v="
	commentPageSize = 100
)

// ErrChannelNotFound is returned when a channel has no uploads playlist
var ErrChannelNotFound = errors.New("channel not found")

// Client is a YouTube Data API v3 client for reading channel comments
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// ClientOption is a function that configures the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithAPIKey sets the API key sent with every request
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRateLimit caps outgoing requests per second; rps <= 0 disables the limit
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New creates a new YouTube API client
func New(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Inf, 0),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ErrorDetail is one entry of an API error's errors list
type ErrorDetail struct {
	Reason  string `json:"reason"`
	Domain  string `json:"domain"`
	Message string `json:"message"`
}

// APIError represents an error from the YouTube API
type APIError struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Errors  []ErrorDetail `json:"errors"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("youtube API error: %s (code: %d, reason: %s)", e.Message, e.Code, e.Reason())
}

// Reason returns the first error reason, if any
func (e *APIError) Reason() string {
	if len(e.Errors) == 0 {
		return ""
	}
	return e.Errors[0].Reason
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Error APIError `json:"error"`
}

type channelListResponse struct {
	Items []struct {
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// GetUploadsPlaylistID returns the playlist holding a channel's uploads
func (c *Client) GetUploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	params := url.Values{}
	params.Set("part", "contentDetails")
	params.Set("id", channelID)

	var out channelListResponse
	if err := c.get(ctx, "channels", params, &out); err != nil {
		return "", err
	}

	if len(out.Items) == 0 || out.Items[0].ContentDetails.RelatedPlaylists.Uploads == "" {
		return "", ErrChannelNotFound
	}

	return out.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

type playlistItemListResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ContentDetails struct {
			VideoID string `json:"videoId"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// GetVideoIDs pages through a playlist until it ends or maxPages pages were read
func (c *Client) GetVideoIDs(ctx context.Context, playlistID string, pageSize, maxPages int) ([]string, error) {
	var (
		ids       []string
		pageToken string
	)

	for page := 0; page < maxPages; page++ {
		params := url.Values{}
		params.Set("part", "contentDetails,snippet")
		params.Set("playlistId", playlistID)
		params.Set("maxResults", strconv.Itoa(pageSize))
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var out playlistItemListResponse
		if err := c.get(ctx, "playlistItems", params, &out); err != nil {
			return nil, err
		}

		for _, item := range out.Items {
			ids = append(ids, item.ContentDetails.VideoID)
		}

		pageToken = out.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return ids, nil
}
