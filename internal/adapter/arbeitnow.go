package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

const (
	arbeitnowBaseURL = "https://www.arbeitnow.com/api/job-board-api"
	arbeitnowSource  = "Arbeitnow"
)

// arbeitnowJob represents a single job in the Arbeitnow job-board response.
type arbeitnowJob struct {
	Slug        string   `json:"slug"`
	CompanyName string   `json:"company_name"`
	Company     string   `json:"company"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Remote      bool     `json:"remote"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags"`
	JobTypes    []string `json:"job_types"`
	Location    string   `json:"location"`
	Salary      string   `json:"salary"`
	CreatedAt   int64    `json:"created_at"` // unix seconds
}

type arbeitnowResponse struct {
	Data []arbeitnowJob `json:"data"`
}

// ArbeitnowAdapter fetches the Arbeitnow board. The upstream has no search
// parameter, so the free text is matched after the fetch.
type ArbeitnowAdapter struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
	now     func() time.Time
}

// NewArbeitnowAdapter creates a new Arbeitnow adapter. An empty baseURL
// selects the public endpoint.
func NewArbeitnowAdapter(baseURL string, client *http.Client, logger *slog.Logger) *ArbeitnowAdapter {
	if baseURL == "" {
		baseURL = arbeitnowBaseURL
	}
	return &ArbeitnowAdapter{
		baseURL: baseURL,
		client:  client,
		logger:  logger,
		now:     time.Now,
	}
}

// FetchJobs retrieves the first board page and keeps postings whose title,
// company or description contain the query text.
func (a *ArbeitnowAdapter) FetchJobs(ctx context.Context, q model.Query) ([]model.Job, error) {
	var resp arbeitnowResponse
	if err := getJSON(ctx, a.client, a.baseURL, nil, &resp); err != nil {
		return nil, fmt.Errorf("arbeitnow fetch: %w", err)
	}

	items := matchArbeitnow(resp.Data, q.Text)
	a.logger.Debug("arbeitnow fetched", "total", len(resp.Data), "matched", len(items))
	return mapArbeitnow(items, a.now()), nil
}

func matchArbeitnow(items []arbeitnowJob, text string) []arbeitnowJob {
	needle := strings.ToLower(text)
	if needle == "" {
		return items
	}
	kept := make([]arbeitnowJob, 0, len(items))
	for _, it := range items {
		hay := strings.ToLower(it.Title + " " + it.company() + " " + it.Description)
		if strings.Contains(hay, needle) {
			kept = append(kept, it)
		}
	}
	return kept
}

// company prefers the documented company_name field and falls back to the
// legacy company key.
func (j arbeitnowJob) company() string {
	if j.CompanyName != "" {
		return j.CompanyName
	}
	return j.Company
}

func mapArbeitnow(items []arbeitnowJob, now time.Time) []model.Job {
	jobs := make([]model.Job, 0, len(items))
	for idx, it := range items {
		id := fmt.Sprintf("arb-%d", idx)
		if it.Slug != "" {
			id = "arb-" + it.Slug
		}

		location := it.Location
		if location == "" {
			location = "—"
			if it.Remote {
				location = "Remote"
			}
		}

		var contract string
		if len(it.JobTypes) > 0 {
			contract = normalizeContractType(it.JobTypes[0])
		}

		postedAt := now
		if it.CreatedAt > 0 {
			postedAt = time.Unix(it.CreatedAt, 0).UTC()
		}

		jobs = append(jobs, model.Job{
			ID:           id,
			Title:        orDefault(it.Title, model.TitlePlaceholder),
			Company:      orDefault(it.company(), model.CompanyPlaceholder),
			Location:     location,
			Remote:       it.Remote,
			Salary:       orDefault(it.Salary, model.SalaryPlaceholder),
			Type:         contract,
			Description:  it.Description,
			Requirements: nonNil(it.Tags),
			PostedAt:     postedAt,
			Source:       arbeitnowSource,
			URL:          orDefault(it.URL, model.URLPlaceholder),
		})
	}
	return jobs
}
