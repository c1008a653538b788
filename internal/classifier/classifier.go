// Package classifier selects digital/tech postings with a keyword taxonomy.
package classifier

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/amishk599/jobpulse/internal/model"
)

//go:embed taxonomy.yaml
var defaultTaxonomy []byte

// Taxonomy is a versioned, closed vocabulary of lowercase keyword stems.
type Taxonomy struct {
	Version  int      `yaml:"version"`
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// ParseTaxonomy decodes a YAML taxonomy and lowercases its keywords.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing taxonomy: %w", err)
	}
	t.Keywords = lo.Uniq(lo.FilterMap(t.Keywords, func(k string, _ int) (string, bool) {
		k = strings.ToLower(strings.TrimSpace(k))
		return k, k != ""
	}))
	if len(t.Keywords) == 0 {
		return nil, fmt.Errorf("taxonomy %q has no keywords", t.Name)
	}
	return &t, nil
}

// DefaultTaxonomy returns the built-in digital job taxonomy.
func DefaultTaxonomy() *Taxonomy {
	t, err := ParseTaxonomy(defaultTaxonomy)
	if err != nil {
		panic(fmt.Sprintf("embedded taxonomy: %v", err))
	}
	return t
}

// Classifier keeps jobs whose title or description mention a taxonomy keyword.
type Classifier struct {
	taxonomy *Taxonomy
}

// New creates a classifier over t.
func New(t *Taxonomy) *Classifier {
	return &Classifier{taxonomy: t}
}

// Taxonomy returns the vocabulary in use.
func (c *Classifier) Taxonomy() *Taxonomy {
	return c.taxonomy
}

// IsDigital reports whether any keyword is a substring of the lowercased
// "title description".
func (c *Classifier) IsDigital(job model.Job) bool {
	text := strings.ToLower(job.Title + " " + job.Description)
	for _, k := range c.taxonomy.Keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// Classify returns the digital subset of jobs, or jobs unchanged when no
// record matches. Order is preserved.
func (c *Classifier) Classify(jobs []model.Job) []model.Job {
	digital := lo.Filter(jobs, func(j model.Job, _ int) bool { return c.IsDigital(j) })
	if len(digital) == 0 {
		return jobs
	}
	return digital
}
