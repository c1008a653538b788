package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

const (
	remotiveBaseURL  = "https://remotive.com/api/remote-jobs"
	remotiveSource   = "Remotive"
	remotiveLocation = "Remote"
)

// remotiveJob represents a single job in the Remotive API response.
type remotiveJob struct {
	ID                        int64  `json:"id"`
	URL                       string `json:"url"`
	Title                     string `json:"title"`
	CompanyName               string `json:"company_name"`
	CompanyLogoURL            string `json:"company_logo_url"`
	JobType                   string `json:"job_type"`
	PublicationDate           string `json:"publication_date"`
	CandidateRequiredLocation string `json:"candidate_required_location"`
	Salary                    string `json:"salary"`
	Description               string `json:"description"`
}

type remotiveResponse struct {
	Jobs []remotiveJob `json:"jobs"`
}

// RemotiveAdapter fetches jobs from the Remotive remote-jobs API. Every
// posting it returns is remote.
type RemotiveAdapter struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
	now     func() time.Time
}

// NewRemotiveAdapter creates a new Remotive adapter. An empty baseURL selects
// the public endpoint.
func NewRemotiveAdapter(baseURL string, client *http.Client, logger *slog.Logger) *RemotiveAdapter {
	if baseURL == "" {
		baseURL = remotiveBaseURL
	}
	return &RemotiveAdapter{
		baseURL: baseURL,
		client:  client,
		logger:  logger,
		now:     time.Now,
	}
}

// FetchJobs searches Remotive with the free-text part of the query.
func (a *RemotiveAdapter) FetchJobs(ctx context.Context, q model.Query) ([]model.Job, error) {
	rawURL := a.baseURL + "?search=" + url.QueryEscape(q.Text)

	var resp remotiveResponse
	if err := getJSON(ctx, a.client, rawURL, nil, &resp); err != nil {
		return nil, fmt.Errorf("remotive fetch for %q: %w", q.Text, err)
	}
	a.logger.Debug("remotive fetched", "query", q.Text, "count", len(resp.Jobs))
	return mapRemotive(resp.Jobs, a.now()), nil
}

func mapRemotive(items []remotiveJob, now time.Time) []model.Job {
	jobs := make([]model.Job, 0, len(items))
	for idx, it := range items {
		id := fmt.Sprintf("rem-%d", idx)
		if it.ID != 0 {
			id = fmt.Sprintf("rem-%d", it.ID)
		}
		jobs = append(jobs, model.Job{
			ID:           id,
			Title:        orDefault(it.Title, model.TitlePlaceholder),
			Company:      orDefault(it.CompanyName, model.CompanyPlaceholder),
			Location:     orDefault(it.CandidateRequiredLocation, remotiveLocation),
			Remote:       true,
			Salary:       orDefault(it.Salary, model.SalaryPlaceholder),
			Type:         normalizeContractType(it.JobType),
			Description:  it.Description,
			Requirements: []string{},
			PostedAt:     parseTime(it.PublicationDate, now),
			Source:       remotiveSource,
			ImageURL:     it.CompanyLogoURL,
			URL:          orDefault(it.URL, model.URLPlaceholder),
		})
	}
	return jobs
}
