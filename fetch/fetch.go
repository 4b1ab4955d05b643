// Package fetch retrieves linked stylesheets.
package fetch

import (
	"context"
	"fmt"
)

// Response is a retrieved resource.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether status code is 2xx.
func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Fetcher retrieves resources by absolute URL. Any response received from
// the server is returned without error, callers decide on status code.
type Fetcher interface {
	Get(ctx context.Context, url string) (Response, error)
}

// ResourceFetchError reports stylesheet which could not be retrieved.
type ResourceFetchError struct {
	URL    string
	Status int // 0 when no response was received
	Err    error
}

func (e *ResourceFetchError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("the stylesheet %s could not be found: %v", e.URL, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("the stylesheet %s could not be found: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("the stylesheet %s could not be found", e.URL)
}

func (e *ResourceFetchError) Unwrap() error {
	return e.Err
}

// Stylesheet retrieves stylesheet text returning *ResourceFetchError on
// transport failure or non 2xx status.
func Stylesheet(ctx context.Context, f Fetcher, url string) ([]byte, error) {
	resp, err := f.Get(ctx, url)
	if err != nil {
		return nil, &ResourceFetchError{URL: url, Err: err}
	}
	if !resp.OK() {
		return nil, &ResourceFetchError{URL: url, Status: resp.StatusCode}
	}
	return resp.Body, nil
}
