// Package youtube wraps the YouTube Data API v3 calls a run makes: listing
// comment threads, resolving channel photos, and replacing video thumbnails.
package youtube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

// Client performs authenticated Data API calls.
type Client struct {
	service *yt.Service
}

// NewClient builds a Client on top of an authorized HTTP client. Extra options
// are passed to the service constructor; tests use option.WithEndpoint.
func NewClient(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	service, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &Client{service: service}, nil
}

// LatestCommenter returns the author channel id of the newest top-level
// comment thread on videoID. Threads are requested in time order so the first
// item is the most recent one.
func (c *Client) LatestCommenter(ctx context.Context, videoID string) (string, error) {
	resp, err := c.service.CommentThreads.List([]string{"snippet"}).
		VideoId(videoID).
		Order("time").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", wrapAPIError("commentThreads.list", err)
	}
	if len(resp.Items) == 0 {
		return "", ErrNoComments
	}

	thread := resp.Items[0]
	if thread == nil || thread.Snippet == nil || thread.Snippet.TopLevelComment == nil ||
		thread.Snippet.TopLevelComment.Snippet == nil ||
		thread.Snippet.TopLevelComment.Snippet.AuthorChannelId == nil {
		return "", fmt.Errorf("%w: comment thread without author channel", ErrMalformedResponse)
	}
	id := strings.TrimSpace(thread.Snippet.TopLevelComment.Snippet.AuthorChannelId.Value)
	if id == "" {
		return "", fmt.Errorf("%w: empty author channel id", ErrMalformedResponse)
	}
	return id, nil
}

// ProfilePhotoURL returns the high resolution thumbnail URL of channelID.
// A channel that is missing or has no high thumbnail yields ErrNoPhoto.
func (c *Client) ProfilePhotoURL(ctx context.Context, channelID string) (string, error) {
	resp, err := c.service.Channels.List([]string{"snippet"}).
		Id(channelID).
		Context(ctx).
		Do()
	if err != nil {
		return "", wrapAPIError("channels.list", err)
	}
	if len(resp.Items) == 0 {
		return "", fmt.Errorf("%w: channel %s not returned", ErrNoPhoto, channelID)
	}

	ch := resp.Items[0]
	if ch == nil || ch.Snippet == nil || ch.Snippet.Thumbnails == nil ||
		ch.Snippet.Thumbnails.High == nil || ch.Snippet.Thumbnails.High.Url == "" {
		return "", fmt.Errorf("%w: channel %s has no high thumbnail", ErrNoPhoto, channelID)
	}
	return ch.Snippet.Thumbnails.High.Url, nil
}

// SetThumbnail uploads r as the custom thumbnail of videoID.
func (c *Client) SetThumbnail(ctx context.Context, videoID string, r io.Reader, contentType string) error {
	_, err := c.service.Thumbnails.Set(videoID).
		Media(r, googleapi.ContentType(contentType)).
		Context(ctx).
		Do()
	if err != nil {
		return wrapAPIError("thumbnails.set", err)
	}
	return nil
}
