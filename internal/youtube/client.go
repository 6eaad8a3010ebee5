// Package youtube reads public video metadata used to pre-fill script
// parameters.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"
)

var (
	ErrInvalidLink   = errors.New("could not find a video id in the link")
	ErrVideoNotFound = errors.New("video not found")
)

var videoParts = []string{"snippet", "contentDetails", "statistics"}

type Metadata struct {
	ID           string
	Title        string
	Description  string
	Tags         []string
	ChannelTitle string
	Duration     string
	ViewCount    uint64
}

// ClassificationText is the text the niche classifier reads.
func (m Metadata) ClassificationText() string {
	return m.Title + "\n" + m.Description
}

type Client struct {
	service *ytapi.Service
}

// NewClient builds a client from explicit API options, typically an API key
// or an OAuth HTTP client.
func NewClient(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	service, err := ytapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}
	return &Client{service: service}, nil
}

func NewWithAPIKey(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Client, error) {
	return NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
}

func NewWithAuth(ctx context.Context, auth *Auth) (*Client, error) {
	httpClient, err := auth.Client(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get auth client: %w", err)
	}
	return NewClient(ctx, option.WithHTTPClient(httpClient))
}

func (c *Client) Fetch(ctx context.Context, videoID string) (*Metadata, error) {
	resp, err := c.service.Videos.List(videoParts).Id(videoID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list video %s: %w", videoID, err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, videoID)
	}

	item := resp.Items[0]
	meta := &Metadata{ID: item.Id}
	if s := item.Snippet; s != nil {
		meta.Title = s.Title
		meta.Description = s.Description
		meta.Tags = s.Tags
		meta.ChannelTitle = s.ChannelTitle
	}
	if d := item.ContentDetails; d != nil {
		meta.Duration = d.Duration
	}
	if st := item.Statistics; st != nil {
		meta.ViewCount = st.ViewCount
	}
	return meta, nil
}

// ParseVideoID extracts the video id from youtu.be/<id>, /shorts/<id> and
// watch?v=<id> links.
func ParseVideoID(link string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", ErrInvalidLink
	}

	var id string
	switch {
	case u.Hostname() == "youtu.be":
		id, _, _ = strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	case strings.HasPrefix(u.Path, "/shorts/"):
		id, _, _ = strings.Cut(strings.TrimPrefix(u.Path, "/shorts/"), "/")
	default:
		id = u.Query().Get("v")
	}

	if id == "" {
		return "", ErrInvalidLink
	}
	return id, nil
}
