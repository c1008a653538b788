package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

const (
	jsearchHost    = "jsearch.p.rapidapi.com"
	jsearchBaseURL = "https://" + jsearchHost + "/search"
	jsearchSource  = "JSearch"
)

// jsearchJob represents a single posting in the JSearch response.
type jsearchJob struct {
	JobID                  string   `json:"job_id"`
	JobTitle               string   `json:"job_title"`
	EmployerName           string   `json:"employer_name"`
	EmployerLogo           string   `json:"employer_logo"`
	JobCity                string   `json:"job_city"`
	JobCountry             string   `json:"job_country"`
	JobIsRemote            bool     `json:"job_is_remote"`
	JobMinSalary           *float64 `json:"job_min_salary"`
	JobMaxSalary           *float64 `json:"job_max_salary"`
	JobEmploymentType      string   `json:"job_employment_type"`
	JobDescription         string   `json:"job_description"`
	JobRequiredSkills      []string `json:"job_required_skills"`
	JobPostedAtDatetimeUTC string   `json:"job_posted_at_datetime_utc"`
	JobPublisher           string   `json:"job_publisher"`
	JobApplyLink           string   `json:"job_apply_link"`
	JobGoogleLink          string   `json:"job_google_link"`
}

type jsearchResponse struct {
	Data []jsearchJob `json:"data"`
}

// JSearchOptions configures the credentialed RapidAPI search adapter.
type JSearchOptions struct {
	APIKey  string
	BaseURL string // defaults to the public RapidAPI endpoint
	// TokenQuery embeds location:, company: and remote tokens in the query text.
	TokenQuery bool
}

// JSearchAdapter fetches jobs from the JSearch API on RapidAPI.
type JSearchAdapter struct {
	opts   JSearchOptions
	client *http.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewJSearchAdapter creates a new JSearch adapter.
func NewJSearchAdapter(opts JSearchOptions, client *http.Client, logger *slog.Logger) *JSearchAdapter {
	if opts.BaseURL == "" {
		opts.BaseURL = jsearchBaseURL
	}
	return &JSearchAdapter{
		opts:   opts,
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// FetchJobs queries JSearch for a single page of results. Without an API key
// it returns no jobs and no error.
func (a *JSearchAdapter) FetchJobs(ctx context.Context, q model.Query) ([]model.Job, error) {
	if a.opts.APIKey == "" {
		a.logger.Debug("jsearch skipped, no api key configured")
		return nil, nil
	}

	params := url.Values{}
	params.Set("query", a.composeQuery(q))
	params.Set("page", "1")
	params.Set("num_pages", "1")

	header := http.Header{}
	header.Set("X-RapidAPI-Key", a.opts.APIKey)
	header.Set("X-RapidAPI-Host", jsearchHost)

	var resp jsearchResponse
	if err := getJSON(ctx, a.client, a.opts.BaseURL+"?"+params.Encode(), header, &resp); err != nil {
		return nil, fmt.Errorf("jsearch fetch for %q: %w", q.Text, err)
	}
	return mapJSearch(resp.Data, a.now()), nil
}

func (a *JSearchAdapter) composeQuery(q model.Query) string {
	if !a.opts.TokenQuery {
		return q.Text
	}
	tokens := make([]string, 0, 4)
	if q.Text != "" {
		tokens = append(tokens, q.Text)
	}
	if q.Filters.Location != "" {
		tokens = append(tokens, "location:"+q.Filters.Location)
	}
	if q.Filters.Company != "" {
		tokens = append(tokens, "company:"+q.Filters.Company)
	}
	if q.Filters.Remote {
		tokens = append(tokens, "remote")
	}
	return strings.Join(tokens, " ")
}

// mapJSearch normalises raw JSearch postings. now stands in for missing
// posting dates.
func mapJSearch(items []jsearchJob, now time.Time) []model.Job {
	jobs := make([]model.Job, 0, len(items))
	for idx, it := range items {
		link := orDefault(it.JobApplyLink, orDefault(it.JobGoogleLink, model.URLPlaceholder))
		image := it.EmployerLogo
		if image == "" {
			image = logoURL(link)
		}
		jobs = append(jobs, model.Job{
			ID:           orDefault(it.JobID, fmt.Sprintf("j-%d", idx)),
			Title:        orDefault(it.JobTitle, model.TitlePlaceholder),
			Company:      orDefault(it.EmployerName, model.CompanyPlaceholder),
			Location:     joinLocation(it.JobCity, it.JobCountry),
			Remote:       it.JobIsRemote,
			Salary:       formatSalary(it.JobMinSalary, it.JobMaxSalary),
			Type:         normalizeContractType(it.JobEmploymentType),
			Description:  it.JobDescription,
			Requirements: nonNil(it.JobRequiredSkills),
			PostedAt:     parseTime(it.JobPostedAtDatetimeUTC, now),
			Source:       orDefault(it.JobPublisher, jsearchSource),
			ImageURL:     image,
			URL:          link,
		})
	}
	return jobs
}
