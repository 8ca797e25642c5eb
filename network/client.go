// Package network provides the shared HTTP clients used for catalog requests and downloads.
package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/reelcast/reelcast/constant"
	"github.com/reelcast/reelcast/key"
	"github.com/spf13/viper"
)

// Client serves short metadata requests.
var Client = &http.Client{
	Timeout:   time.Minute,
	Transport: &userAgent{next: newTransport()},
}

// Streaming serves long transfers and has no overall deadline; cancel through the request context.
var Streaming = &http.Client{
	Transport: &userAgent{next: newTransport()},
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 16
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	t.ExpectContinueTimeout = time.Second
	return t
}

type userAgent struct {
	next http.RoundTripper
}

func (u *userAgent) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", constant.UserAgent)
	}
	return u.next.RoundTrip(req)
}

// Available reports whether outbound requests should be attempted.
func Available() bool {
	return !viper.GetBool(key.NetworkOffline)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Get issues a GET request and returns the response for a 2xx status.
// The caller closes the body.
func Get(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}
	return resp, nil
}

// Fetch reads the whole body of a GET request through Client.
func Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := Get(ctx, Client, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}
