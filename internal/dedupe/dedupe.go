// Package dedupe collapses postings that refer to the same job.
package dedupe

import (
	"strings"

	"github.com/amishk599/jobpulse/internal/model"
)

// Key returns the identity of a job: its URL when usable, otherwise its ID.
// An empty key means the job cannot be identified.
func Key(job model.Job) string {
	if u := strings.TrimSpace(job.URL); u != "" && u != model.URLPlaceholder {
		return u
	}
	return strings.TrimSpace(job.ID)
}

// Dedupe keeps the first job for each key and drops unkeyable jobs. Output
// order follows first occurrence in the input.
func Dedupe(jobs []model.Job) []model.Job {
	seen := make(map[string]struct{}, len(jobs))
	out := make([]model.Job, 0, len(jobs))
	for _, j := range jobs {
		k := Key(j)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, j)
	}
	return out
}
