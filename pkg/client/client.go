// Package client talks to the submissions server: the long-poll update
// endpoint, the history fragments, the submission form and relayed links.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-go-golems/subwatch/pkg/longpoll"
	"github.com/pkg/errors"
)

const (
	UpdatePath = "/update"

	maxFragmentBytes = 8 << 20
	maxErrorBody     = 512
)

var ErrMissingCursor = errors.New("update response has no cursor")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.Code)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.Code, e.Body)
}

type Client struct {
	base *url.URL

	// longPoll carries /update requests and has no timeout; the server
	// decides how long to hold them.
	longPoll *http.Client
	http     *http.Client
}

type Option func(*Client)

// WithTransport sets the round tripper for every request.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.longPoll.Transport = rt
		c.http.Transport = rt
	}
}

func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("missing base URL")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("unsupported base URL scheme %q", u.Scheme)
	}

	c := &Client{
		base:     u,
		longPoll: &http.Client{},
		http:     &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string {
	return c.base.String()
}

// Update issues one long-poll request. A response without an integer
// cursor field is an error.
func (c *Client) Update(ctx context.Context, cursor longpoll.Cursor) (longpoll.Cursor, error) {
	target, err := c.resolve(UpdatePath)
	if err != nil {
		return longpoll.NoCursor, err
	}
	q := url.Values{}
	q.Set("cursor", cursor.String())
	target += "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return longpoll.NoCursor, errors.Wrap(err, "build update request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(c.longPoll, req)
	if err != nil {
		return longpoll.NoCursor, err
	}
	defer resp.Body.Close()

	var body struct {
		Cursor *int64 `json:"cursor"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return longpoll.NoCursor, errors.Wrap(err, "decode update response")
	}
	if body.Cursor == nil {
		return longpoll.NoCursor, ErrMissingCursor
	}
	return longpoll.Cursor(*body.Cursor), nil
}

// Fragment fetches a pre-rendered HTML fragment.
func (c *Client) Fragment(ctx context.Context, path string) (string, error) {
	target, err := c.resolve(path)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", errors.Wrap(err, "build fragment request")
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.do(c.http, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxFragmentBytes))
	if err != nil {
		return "", errors.Wrap(err, "read fragment")
	}
	return string(b), nil
}

// Get issues a bodiless GET and discards the response.
func (c *Client) Get(ctx context.Context, href string) error {
	target, err := c.resolve(href)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	resp, err := c.do(c.http, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// PostForm submits vals urlencoded to action.
func (c *Client) PostForm(ctx context.Context, action string, vals url.Values) error {
	target, err := c.resolve(action)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(vals.Encode()))
	if err != nil {
		return errors.Wrap(err, "build form request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.do(c.http, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) resolve(ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", errors.Wrapf(err, "parse %q", ref)
	}
	return c.base.ResolveReference(r).String(), nil
}

func (c *Client) do(hc *http.Client, req *http.Request) (*http.Response, error) {
	resp, err := hc.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			Method: req.Method,
			URL:    req.URL.String(),
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}
