// Package httpapi exposes the aggregation pipeline over HTTP+JSON.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/amishk599/jobpulse/internal/aggregator"
	"github.com/amishk599/jobpulse/internal/filter"
	"github.com/amishk599/jobpulse/internal/metrics"
	"github.com/amishk599/jobpulse/internal/model"
)

// Runner runs one aggregation. *aggregator.Aggregator satisfies it.
type Runner interface {
	Run(ctx context.Context, q model.Query) (*aggregator.Result, error)
}

// Options configure the router.
type Options struct {
	// CORSOrigins lists allowed browser origins. Empty allows any origin.
	CORSOrigins []string
	// MaxEnrichJobs caps the jobs accepted by one enrich request.
	// Zero means defaultMaxEnrichJobs.
	MaxEnrichJobs int
	// MaxBodyBytes caps the enrich request body. Zero means defaultMaxBodyBytes.
	MaxBodyBytes int64
}

const (
	defaultMaxEnrichJobs       = 100
	defaultMaxBodyBytes  int64 = 1 << 20
)

type jobsResponse struct {
	Jobs []model.Job `json:"jobs"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handler struct {
	runner        Runner
	enricher      model.ImageEnricher
	logger        *slog.Logger
	maxEnrichJobs int
	maxBodyBytes  int64
}

// NewRouter builds the gin engine. enricher and m may be nil.
func NewRouter(runner Runner, enricher model.ImageEnricher, m *metrics.Metrics, opts Options, logger *slog.Logger) *gin.Engine {
	h := &handler{
		runner:        runner,
		enricher:      enricher,
		logger:        logger,
		maxEnrichJobs: opts.MaxEnrichJobs,
		maxBodyBytes:  opts.MaxBodyBytes,
	}
	if h.maxEnrichJobs <= 0 {
		h.maxEnrichJobs = defaultMaxEnrichJobs
	}
	if h.maxBodyBytes <= 0 {
		h.maxBodyBytes = defaultMaxBodyBytes
	}

	r := gin.New()
	r.Use(requestID(), requestLogger(logger), recovery(logger))
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(m.Handler()))

	api := r.Group("/api")
	{
		api.GET("/jobs", h.searchJobs)
		api.POST("/jobs/enrich", h.enrichJobs)
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", requestIDHeader}
	cfg.ExposeHeaders = []string{requestIDHeader, totalCountHeader}
	return cfg
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// searchJobs serves GET /api/jobs. Malformed optional parameters fall back
// to their defaults; the only failure status is 500.
func (h *handler) searchJobs(c *gin.Context) {
	q := parseQuery(c)

	res, err := h.runner.Run(c.Request.Context(), q)
	if err != nil {
		h.logger.Error("search failed", "request_id", c.GetString(requestIDKey), "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	jobs := res.Jobs
	if jobs == nil {
		jobs = []model.Job{}
	}
	c.Header(totalCountHeader, strconv.Itoa(res.Total))
	c.JSON(http.StatusOK, jobsResponse{Jobs: jobs})
}

// enrichJobs serves POST /api/jobs/enrich.
func (h *handler) enrichJobs(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)

	var req jobsResponse
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)})
			return
		}
		c.JSON(http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid JSON body: %v", err)})
		return
	}
	if len(req.Jobs) > h.maxEnrichJobs {
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse{
			Error: fmt.Sprintf("too many jobs: %d, at most %d per request", len(req.Jobs), h.maxEnrichJobs),
		})
		return
	}
	jobs := req.Jobs
	if jobs == nil {
		jobs = []model.Job{}
	}
	if h.enricher != nil {
		jobs = h.enricher.Enrich(c.Request.Context(), jobs)
	}
	c.JSON(http.StatusOK, jobsResponse{Jobs: jobs})
}

func parseQuery(c *gin.Context) model.Query {
	sort := strings.ToLower(strings.TrimSpace(c.Query("sort")))
	if !filter.ValidSort(sort) {
		sort = ""
	}
	return model.Query{
		Text: strings.TrimSpace(c.Query("q")),
		Filters: model.Filters{
			Source:     strings.TrimSpace(c.Query("source")),
			Location:   strings.TrimSpace(c.Query("location")),
			Company:    strings.TrimSpace(c.Query("company")),
			Remote:     parseFlag(c.Query("remote")),
			Type:       strings.TrimSpace(c.Query("type")),
			DatePosted: strings.TrimSpace(c.Query("datePosted")),
			Keywords:   strings.TrimSpace(c.Query("keywords")),
			SalaryMin:  parsePositive(c.Query("salaryMin")),
		},
		Sort:     sort,
		Page:     parsePositive(c.Query("page")),
		PageSize: parsePositive(c.Query("pageSize")),
	}
}

// parseFlag accepts 1, true, yes and on, case-insensitively.
func parseFlag(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func parsePositive(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
