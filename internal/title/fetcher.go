package title

import (
	"context"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/abdusco/linkzip/internal/metrics"
	"github.com/rs/zerolog"
)

const (
	DefaultTimeout = 5 * time.Second
	maxBodyBytes   = 1 << 20
	userAgent      = "linkzip-title-fetcher/1.0"
)

var titlePattern = regexp.MustCompile(`(?is)<title[^>]*>([^<]+)</title>`)

// Fetcher reads a page's <title> on a best-effort basis.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	logger  zerolog.Logger
}

func NewFetcher(timeout time.Duration, logger zerolog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		logger:  logger.With().Str("component", "title").Logger(),
	}
}

// Fetch returns the page title of rawURL, or rawURL itself when the page cannot be fetched
// within the timeout or has no title.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) string {
	title, err := f.fetch(ctx, rawURL)
	if err != nil || title == "" {
		metrics.TitleFetches.WithLabelValues("fallback").Inc()
		ev := f.logger.Debug().Str("url", rawURL)
		if err != nil {
			ev = ev.Err(err)
		}
		ev.Msg("failed to fetch page title, using url")
		return rawURL
	}

	metrics.TitleFetches.WithLabelValues("ok").Inc()
	return title
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}

	return extractTitle(string(body)), nil
}

func extractTitle(page string) string {
	m := titlePattern.FindStringSubmatch(page)
	if m == nil {
		return ""
	}
	return strings.Join(strings.Fields(html.UnescapeString(m[1])), " ")
}
