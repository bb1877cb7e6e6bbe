package httpds

import (
	"context"
	"io"
)

// Source is a datasource.Source that downloads a single URL.
type Source struct {
	client *Client
	url    string
}

// NewSource returns a Source fetching url through client.
func NewSource(client *Client, url string) *Source {
	return &Source{client: client, url: url}
}

// Open performs the GET and returns the response body.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// URL returns the configured feed URL.
func (s *Source) URL() string { return s.url }
