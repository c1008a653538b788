package filter

import (
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/amishk599/jobpulse/internal/model"
)

// datePostedDays maps the supported age buckets onto a window in days.
var datePostedDays = map[string]int{
	"24h": 1,
	"7d":  7,
	"14d": 14,
	"30d": 30,
}

// predicate is one named step of the ordered filter chain.
type predicate struct {
	name  string
	match func(model.Job) bool
}

// Options tunes how a Criteria filter is built.
type Options struct {
	// MatchSource compares a job's source with the requested one.
	// Defaults to SubstringSourceMatch.
	MatchSource SourceMatcher
	// SkipSource leaves out the source step, for profiles that already
	// resolved the requested source upstream.
	SkipSource bool
	// Now anchors the datePosted window. Defaults to time.Now.
	Now func() time.Time
}

// Criteria matches jobs against structured user filters. Steps run in a fixed
// order: source, location, company, remote, type, datePosted, keywords,
// salaryMin. Zero-valued filters are skipped.
type Criteria struct {
	steps []predicate
}

// New builds the ordered filter chain for f.
func New(f model.Filters, opts Options) *Criteria {
	if opts.MatchSource == nil {
		opts.MatchSource = SubstringSourceMatch
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	var steps []predicate
	if f.Source != "" && !opts.SkipSource {
		want := f.Source
		steps = append(steps, predicate{"source", func(j model.Job) bool {
			return opts.MatchSource(j.Source, want)
		}})
	}
	if f.Location != "" {
		steps = append(steps, predicate{"location", containsFold(f.Location, func(j model.Job) string { return j.Location })})
	}
	if f.Company != "" {
		steps = append(steps, predicate{"company", containsFold(f.Company, func(j model.Job) string { return j.Company })})
	}
	if f.Remote {
		steps = append(steps, predicate{"remote", func(j model.Job) bool { return j.Remote }})
	}
	if f.Type != "" {
		steps = append(steps, predicate{"type", containsFold(f.Type, func(j model.Job) string { return j.Type })})
	}
	if days := datePostedDays[f.DatePosted]; days > 0 {
		since := opts.Now().Add(-time.Duration(days) * 24 * time.Hour)
		steps = append(steps, predicate{"datePosted", func(j model.Job) bool {
			return !j.PostedAt.Before(since)
		}})
	}
	if f.Keywords != "" {
		steps = append(steps, predicate{"keywords", containsFold(f.Keywords, func(j model.Job) string { return j.Title })})
	}
	if f.SalaryMin > 0 {
		floor := f.SalaryMin
		steps = append(steps, predicate{"salaryMin", func(j model.Job) bool {
			return ExtractSalary(j.Salary) >= floor
		}})
	}
	return &Criteria{steps: steps}
}

// Match reports whether job passes every configured step.
func (c *Criteria) Match(job model.Job) bool {
	for _, s := range c.steps {
		if !s.match(job) {
			return false
		}
	}
	return true
}

// Apply returns the jobs that pass every step, preserving order.
func (c *Criteria) Apply(jobs []model.Job) []model.Job {
	return lo.Filter(jobs, func(j model.Job, _ int) bool { return c.Match(j) })
}

// Steps lists the active step names in evaluation order.
func (c *Criteria) Steps() []string {
	return lo.Map(c.steps, func(s predicate, _ int) string { return s.name })
}

func containsFold(needle string, field func(model.Job) string) func(model.Job) bool {
	n := strings.ToLower(needle)
	return func(j model.Job) bool {
		return strings.Contains(strings.ToLower(field(j)), n)
	}
}
