package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/distill/internal/cache"
	"github.com/temoto/robotstxt"
)

const (
	robotsTTL      = time.Hour
	robotsMaxBytes = 512 << 10
)

// RobotsChecker checks robots.txt compliance. Parsed files are cached per host.
type RobotsChecker struct {
	cache      cache.Cache
	httpClient *http.Client
	userAgent  string
}

// NewRobotsChecker creates a robots.txt checker sharing httpClient with the reader
func NewRobotsChecker(userAgent string, httpClient *http.Client, c cache.Cache) *RobotsChecker {
	if c == nil {
		c = cache.NewMemory(robotsTTL)
	}
	return &RobotsChecker{
		cache:      c,
		httpClient: httpClient,
		userAgent:  NormalizeUserAgent(userAgent),
	}
}

// CanFetch checks if the URL can be fetched according to robots.txt.
// An unreachable robots.txt allows the fetch.
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("parse URL: %w", err)
	}

	body, err := r.robots(ctx, parsed)
	if err != nil {
		return true, nil
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return true, nil
	}

	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, r.userAgent), nil
}

// robots returns the robots.txt body for the URL's host. Missing files are
// cached as empty, which allows everything.
func (r *RobotsChecker) robots(ctx context.Context, u *url.URL) ([]byte, error) {
	return cache.Remember(r.cache, cache.Key("robots", u.Scheme, u.Host), robotsTTL, func() ([]byte, error) {
		return r.fetch(ctx, fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host))
	})
}

func (r *RobotsChecker) fetch(ctx context.Context, robotsURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("fetch robots.txt: status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return []byte{}, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, robotsMaxBytes))
	if err != nil {
		return nil, fmt.Errorf("read robots.txt: %w", err)
	}
	return body, nil
}

// NormalizeUserAgent reduces a user agent string to its product token for robots.txt matching
func NormalizeUserAgent(ua string) string {
	parts := strings.Fields(ua)
	if len(parts) > 0 {
		return strings.Split(parts[0], "/")[0]
	}
	return ua
}
