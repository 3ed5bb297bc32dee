// Package source reads documents from files, standard input and URLs.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/distill/internal/cache"
)

const (
	maxRedirects  = 3
	fetchAttempts = 3
	fetchBackoff  = time.Second
)

// ErrDisallowed is returned when robots.txt forbids fetching a URL
var ErrDisallowed = errors.New("disallowed by robots.txt")

// Options configures a Reader
type Options struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBytes     int64
	HTTPProxy    string
	HTTPSProxy   string
	NoProxy      string
	IgnoreRobots bool
	Cache        cache.Cache // Holds robots.txt bodies; nil uses a private cache
}

// Document is the text of one source
type Document struct {
	Ref         string `json:"ref"`
	Title       string `json:"title"`
	Text        string `json:"text"`
	ContentType string `json:"content_type,omitempty"`
}

// Reader resolves a reference ("-", a path or an http(s) URL) to text
type Reader struct {
	httpClient *http.Client
	robots     *RobotsChecker
	userAgent  string
	maxBytes   int64
	stdin      io.Reader
	logger     *slog.Logger
}

// NewReader creates a Reader
func NewReader(opts Options, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = NewProxyFunc(opts.HTTPProxy, opts.HTTPSProxy, opts.NoProxy)

	client := &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	r := &Reader{
		httpClient: client,
		userAgent:  opts.UserAgent,
		maxBytes:   opts.MaxBytes,
		stdin:      os.Stdin,
		logger:     logger,
	}
	if !opts.IgnoreRobots {
		r.robots = NewRobotsChecker(opts.UserAgent, client, opts.Cache)
	}
	return r
}

// Read returns the text behind ref
func (r *Reader) Read(ctx context.Context, ref string) (*Document, error) {
	switch {
	case ref == "-":
		return r.readStream(r.stdin, "-", "")
	case isURL(ref):
		return r.fetch(ctx, ref)
	default:
		return r.readFile(ref)
	}
}

func (r *Reader) readFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	contentType := ""
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		contentType = "text/html"
	}
	return r.readStream(f, path, contentType)
}

func (r *Reader) readStream(in io.Reader, ref, contentType string) (*Document, error) {
	body, err := io.ReadAll(r.limit(in))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref, err)
	}
	return decode(body, ref, contentType)
}

func (r *Reader) fetch(ctx context.Context, rawURL string) (*Document, error) {
	if r.robots != nil {
		allowed, err := r.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("fetch %s: %w", rawURL, ErrDisallowed)
		}
	}

	var lastErr error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			delay := fetchBackoff << (attempt - 1)
			r.logger.Debug("Retrying fetch", "url", rawURL, "attempt", attempt+1, "delay", delay, "error", lastErr)
			if err := fetchSleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		doc, err := r.fetchOnce(ctx, rawURL)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if !isRetryable(err) {
			break
		}
	}
	return nil, lastErr
}

func (r *Reader) fetchOnce(ctx context.Context, rawURL string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(r.limit(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	finalURL := resp.Request.URL.String()
	r.logger.Debug("Fetched document", "url", finalURL, "status", resp.StatusCode, "bytes", len(body))

	return decode(body, finalURL, resp.Header.Get("Content-Type"))
}

// StatusError is a non-2xx HTTP response
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// isRetryable reports transient failures: 429, 5xx and transport errors
func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	var ue *url.Error
	return errors.As(err, &ue)
}

// fetchSleep waits between attempts; tests replace it
var fetchSleep = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (r *Reader) limit(in io.Reader) io.Reader {
	if r.maxBytes <= 0 {
		return in
	}
	return io.LimitReader(in, r.maxBytes)
}

// decode converts HTML to text; everything else is taken as text
func decode(body []byte, ref, contentType string) (*Document, error) {
	doc := &Document{Ref: ref, ContentType: contentType}

	if isHTML(contentType, body) {
		text, title, err := HTMLText(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		doc.Text, doc.Title = text, title
	} else {
		doc.Text = strings.TrimSpace(strings.ReplaceAll(string(body), "\r\n", "\n"))
	}

	if doc.Title == "" {
		doc.Title = TitleFromRef(ref)
	}
	return doc, nil
}

func isHTML(contentType string, body []byte) bool {
	if contentType != "" {
		media, _, err := mime.ParseMediaType(contentType)
		return err == nil && (media == "text/html" || media == "application/xhtml+xml")
	}
	return strings.HasPrefix(http.DetectContentType(body), "text/html")
}

func isURL(ref string) bool {
	u, err := url.Parse(ref)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// TitleFromRef derives a human-readable title from a URL or file path
func TitleFromRef(ref string) string {
	if ref == "-" || ref == "" {
		return ""
	}

	path := ref
	if parsed, err := url.Parse(ref); err == nil && parsed.Host != "" {
		path = strings.Trim(parsed.Path, "/")
		if path == "" {
			return parsed.Host
		}
	}

	last := filepath.Base(filepath.FromSlash(path))

	if idx := strings.LastIndex(last, "."); idx > 0 {
		last = last[:idx]
	}
	last = strings.ReplaceAll(last, "_", " ")
	last = strings.ReplaceAll(last, "-", " ")

	return last
}
