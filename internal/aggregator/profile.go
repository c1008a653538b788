package aggregator

import (
	"fmt"
	"time"

	"github.com/amishk599/jobpulse/internal/filter"
)

// Strategy selects how sources are combined.
type Strategy string

const (
	// MergeAll queries every source concurrently and merges the results.
	MergeAll Strategy = "merge_all"
	// PreferSource queries the first source alone and keeps its records from
	// the requested publisher. Only when none match does it query the rest.
	PreferSource Strategy = "prefer_source"
)

// Profile names.
const (
	ProfilePublic   = "public"
	ProfileInternal = "internal"
)

// DefaultAllowList is the editorial set of publishers kept by the public
// profile. Entries are lowercase substrings.
var DefaultAllowList = []string{
	"linkedin",
	"welcome to the jungle",
	"welcometothejungle",
	"monster",
	"indeed",
}

// Profile captures the policies that differ between deployments.
type Profile struct {
	Name           string
	AllowList      []string // empty disables the allow-list
	PageCap        int
	Strategy       Strategy
	DefaultSource  string // PreferSource only, used when no source is requested
	SourceMatch    filter.SourceMatcher
	AdapterTimeout time.Duration // zero means no per-source deadline
}

// PublicProfile mirrors the public search endpoint: editorial allow-list,
// up to 100 jobs, every source merged.
func PublicProfile() Profile {
	return Profile{
		Name:           ProfilePublic,
		AllowList:      append([]string(nil), DefaultAllowList...),
		PageCap:        100,
		Strategy:       MergeAll,
		SourceMatch:    filter.SubstringSourceMatch,
		AdapterTimeout: 10 * time.Second,
	}
}

// InternalProfile mirrors the internal server: no allow-list, up to 60 jobs,
// LinkedIn preferred with a fallback to every source.
func InternalProfile() Profile {
	return Profile{
		Name:           ProfileInternal,
		PageCap:        60,
		Strategy:       PreferSource,
		DefaultSource:  "LinkedIn",
		SourceMatch:    filter.NormalizedSourceMatch,
		AdapterTimeout: 10 * time.Second,
	}
}

// ProfileByName returns a built-in profile.
func ProfileByName(name string) (Profile, error) {
	switch name {
	case "", ProfilePublic:
		return PublicProfile(), nil
	case ProfileInternal:
		return InternalProfile(), nil
	}
	return Profile{}, fmt.Errorf("unknown profile %q", name)
}
