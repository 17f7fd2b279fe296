// Package fetch retrieves the single page a scan audits and reduces it to
// visible text.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"sentry/internal/scan/probe"
)

const (
	// DefaultTimeout bounds the page fetch.
	DefaultTimeout = 15 * time.Second

	// MaxBodyBytes caps how much markup is read.
	MaxBodyBytes = 5 << 20

	maxRedirects = 10
)

// Page is the fetched document. Fetched is false when no 2xx body was read;
// HTML and Text are empty in that case.
type Page struct {
	URL        string
	FinalURL   string
	HTML       string
	Text       string
	Fetched    bool
	StatusCode int
	Size       int
}

// Fetcher performs one GET per call. No retries.
type Fetcher struct {
	client   *http.Client
	timeout  time.Duration
	logger   *slog.Logger
	tracer   trace.Tracer
	observer probe.Observer
}

// Option configures a Fetcher.
type Option func(*Fetcher)

func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithObserver reports each fetch as the "fetch" probe.
func WithObserver(o probe.Observer) Option {
	return func(f *Fetcher) {
		f.observer = o
	}
}

func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		timeout: DefaultTimeout,
		logger:  slog.New(slog.DiscardHandler),
		tracer:  otel.Tracer("sentry/internal/scan/fetch"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Fetch retrieves target. Failures are logged and reported through
// Page.Fetched, never returned.
func (f *Fetcher) Fetch(ctx context.Context, target string) Page {
	page := Page{URL: target}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	ctx, span := f.tracer.Start(ctx, "fetch.page", trace.WithAttributes(attribute.String("url", target)))
	defer span.End()

	start := time.Now()
	html, status, final, err := f.get(ctx, target)
	if f.observer != nil {
		f.observer.ObserveProbe("fetch", time.Since(start), err)
	}
	page.StatusCode = status
	page.FinalURL = final
	if err != nil {
		span.RecordError(err)
		f.logger.DebugContext(ctx, "page fetch failed",
			"url", target,
			"status", status,
			"error", err,
		)
		return page
	}

	page.HTML = html
	page.Text = StripMarkup(html)
	page.Size = len(html)
	page.Fetched = true
	span.SetAttributes(attribute.Int("page.size", page.Size))
	return page
}

var errNotSuccess = errors.New("non-2xx response")

func (f *Fetcher) get(ctx context.Context, target string) (string, int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", 0, "", err
	}
	req.Header.Set("User-Agent", probe.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", 0, "", err
	}
	defer resp.Body.Close()

	final := target
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", resp.StatusCode, final, fmt.Errorf("%w: %d", errNotSuccess, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return "", resp.StatusCode, final, err
	}
	return string(body), resp.StatusCode, final, nil
}

var (
	scriptBlock = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleBlock  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	anyTag      = regexp.MustCompile(`<[^>]+>`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// StripMarkup removes script and style blocks, then all tags, then collapses
// whitespace.
func StripMarkup(html string) string {
	text := scriptBlock.ReplaceAllString(html, " ")
	text = styleBlock.ReplaceAllString(text, " ")
	text = anyTag.ReplaceAllString(text, " ")
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
