package model

import (
	"context"
	"time"
)

// Placeholders used when an upstream omits a field. Consumers must treat
// URLPlaceholder as "no link".
const (
	TitlePlaceholder   = "Poste"
	CompanyPlaceholder = "Entreprise non spécifiée"
	SalaryPlaceholder  = "—"
	URLPlaceholder     = "#"
)

// Contract types produced by adapter normalisation.
const (
	ContractCDI        = "CDI"
	ContractCDD        = "CDD"
	ContractInterim    = "Intérim"
	ContractStage      = "Stage"
	ContractAlternance = "Alternance"
)

// Unified representation of a job posting from any upstream source.
type Job struct {
	ID           string    `json:"id"`           // stable per posting within its source
	Title        string    `json:"title"`        // never empty
	Company      string    `json:"company"`      // never empty
	Location     string    `json:"location"`     // "City, Country", fragments may be missing
	Remote       bool      `json:"remote"`       // explicit flag or remote-only provider
	Salary       string    `json:"salary"`       // "45k-65k€", "80k€" or SalaryPlaceholder
	Experience   string    `json:"experience"`   // always empty today, kept for consumers
	Type         string    `json:"type"`         // CDI/CDD/Intérim/Stage/Alternance or raw upstream value
	Description  string    `json:"description"`  // raw HTML or plain text
	Requirements []string  `json:"requirements"` // skills/tags, never nil
	PostedAt     time.Time `json:"postedAt"`     // aggregation time when upstream omits it
	Source       string    `json:"source"`       // publisher name, may vary inside one adapter
	ImageURL     string    `json:"imageUrl"`     // may be empty, candidate for enrichment
	URL          string    `json:"url"`          // apply/view link or URLPlaceholder
	Applied      bool      `json:"applied"`      // owned by the external tracking store
	Saved        bool      `json:"saved"`        // owned by the external tracking store
}

// Filters are the structured, user-supplied search restrictions. Zero values
// disable the corresponding filter.
type Filters struct {
	Source     string
	Location   string
	Company    string
	Remote     bool
	Type       string
	DatePosted string // 24h, 7d, 14d or 30d
	Keywords   string // title substring
	SalaryMin  int    // in k€
}

// Query is the canonical request handed to every adapter and to the aggregator.
type Query struct {
	Text    string
	Filters Filters

	Sort     string // recent, salary, company or empty for source order
	Page     int    // 1-based, zero means first page
	PageSize int    // zero means the configured page cap
}

// JobFetcher fetches postings from one upstream source for a canonical query.
type JobFetcher interface {
	FetchJobs(ctx context.Context, q Query) ([]Job, error)
}

// JobStore tracks which dedup keys each saved-search watch has already
// reported.
type JobStore interface {
	HasSeen(watch, key string) (bool, error)
	MarkSeen(watch, key string) error
	Cleanup(olderThan time.Duration) error
	IsEmpty(watch string) (bool, error)
}

// Notifier sends notifications for new job matches.
type Notifier interface {
	Notify(jobs []Job) error
}

// JobFilter decides whether a job matches the user's criteria.
type JobFilter interface {
	Match(job Job) bool
}

// ImageEnricher backfills ImageURL for jobs missing one. Failures are absorbed.
type ImageEnricher interface {
	Enrich(ctx context.Context, jobs []Job) []Job
}
