// Package enricher backfills job images from a link-preview service with a
// domain logo fallback.
package enricher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobpulse/internal/metrics"
	"github.com/amishk599/jobpulse/internal/model"
)

const (
	defaultPreviewURL  = "https://api.microlink.io/"
	defaultLogoURL     = "https://logo.clearbit.com"
	defaultConcurrency = 8
	defaultTimeout     = 5 * time.Second
	defaultCacheTTL    = time.Hour
)

// Resolution labels reported to metrics.
const (
	resultPreview = "preview"
	resultLogo    = "logo"
	resultNone    = "none"
	resultCached  = "cached"
)

// Options configures the enricher. Zero values select defaults.
type Options struct {
	PreviewURL  string
	LogoURL     string
	Concurrency int
	Timeout     time.Duration // per preview lookup
	CacheTTL    time.Duration
}

// previewResponse is the subset of the link-preview payload we read.
type previewResponse struct {
	Status string `json:"status"`
	Data   struct {
		Image *struct {
			URL string `json:"url"`
		} `json:"image"`
		Logo *struct {
			URL string `json:"url"`
		} `json:"logo"`
	} `json:"data"`
}

// Enricher resolves images for jobs that have none. It never fails: a job
// whose lookups all fail keeps an empty ImageURL.
type Enricher struct {
	client  *http.Client
	opts    Options
	cache   *gocache.Cache
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates an enricher. m may be nil.
func New(client *http.Client, opts Options, m *metrics.Metrics, logger *slog.Logger) *Enricher {
	if opts.PreviewURL == "" {
		opts.PreviewURL = defaultPreviewURL
	}
	if opts.LogoURL == "" {
		opts.LogoURL = defaultLogoURL
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	return &Enricher{
		client:  client,
		opts:    opts,
		cache:   gocache.New(opts.CacheTTL, 2*opts.CacheTTL),
		metrics: m,
		logger:  logger,
	}
}

// Enrich returns a copy of jobs with ImageURL filled where possible. Jobs
// that already have an image or lack a safe link are left untouched. At most
// Options.Concurrency lookups run at once, in no particular order.
func (e *Enricher) Enrich(ctx context.Context, jobs []model.Job) []model.Job {
	out := make([]model.Job, len(jobs))
	copy(out, jobs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i := range out {
		if out[i].ImageURL != "" {
			continue
		}
		link, ok := model.SafeURL(out[i].URL)
		if !ok {
			continue
		}
		g.Go(func() error {
			out[i].ImageURL = e.Resolve(gctx, link)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Resolve finds an image for link: the preview image or logo first, then the
// domain logo. Returns "" when neither is available.
func (e *Enricher) Resolve(ctx context.Context, link string) string {
	if cached, ok := e.cache.Get(link); ok {
		e.metrics.ObserveEnrichment(resultCached)
		return cached.(string)
	}

	image, result := "", resultNone
	if img, err := e.preview(ctx, link); err != nil {
		e.logger.Debug("link preview failed", "url", link, "error", err)
	} else if img != "" {
		image, result = img, resultPreview
	}
	if image == "" {
		if logo := e.logo(link); logo != "" {
			image, result = logo, resultLogo
		}
	}

	// Cancelled lookups are not cached so a later request can retry them.
	if ctx.Err() == nil {
		e.cache.SetDefault(link, image)
	}
	e.metrics.ObserveEnrichment(result)
	return image
}

func (e *Enricher) preview(ctx context.Context, link string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	params := url.Values{}
	params.Set("url", link)
	params.Set("audio", "false")
	params.Set("video", "false")
	params.Set("screenshot", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.opts.PreviewURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &model.HTTPError{StatusCode: resp.StatusCode, Err: fmt.Errorf("link preview for %s", link)}
	}

	var body previewResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode link preview: %w", err)
	}
	if body.Data.Image != nil && body.Data.Image.URL != "" {
		return body.Data.Image.URL, nil
	}
	if body.Data.Logo != nil && body.Data.Logo.URL != "" {
		return body.Data.Logo.URL, nil
	}
	return "", nil
}

func (e *Enricher) logo(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.TrimRight(e.opts.LogoURL, "/") + "/" + u.Hostname()
}
