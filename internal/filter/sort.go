package filter

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/amishk599/jobpulse/internal/model"
)

// Sort orders accepted by SortJobs.
const (
	SortRecent  = "recent"
	SortSalary  = "salary"
	SortCompany = "company"
)

var salaryRegex = regexp.MustCompile(`(\d+)k`)

// ExtractSalary returns the first "<n>k" figure of a formatted salary, or 0.
func ExtractSalary(s string) int {
	m := salaryRegex.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// ValidSort reports whether order is a known sort order or empty.
func ValidSort(order string) bool {
	switch order {
	case "", SortRecent, SortSalary, SortCompany:
		return true
	}
	return false
}

// SortJobs returns a stably sorted copy of jobs. An empty or unknown order
// keeps the input order.
func SortJobs(jobs []model.Job, order string) []model.Job {
	out := make([]model.Job, len(jobs))
	copy(out, jobs)

	var less func(a, b model.Job) bool
	switch order {
	case SortRecent:
		less = func(a, b model.Job) bool { return a.PostedAt.After(b.PostedAt) }
	case SortSalary:
		less = func(a, b model.Job) bool { return ExtractSalary(a.Salary) > ExtractSalary(b.Salary) }
	case SortCompany:
		less = func(a, b model.Job) bool { return strings.ToLower(a.Company) < strings.ToLower(b.Company) }
	default:
		return out
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Paginate returns the 1-based page of size pageSize. Pages past the end are
// empty. A non-positive page is treated as 1 and a non-positive size returns
// jobs unchanged.
func Paginate(jobs []model.Job, page, pageSize int) []model.Job {
	if pageSize <= 0 {
		return jobs
	}
	if page < 1 {
		page = 1
	}
	pages := len(jobs) / pageSize
	if len(jobs)%pageSize != 0 {
		pages++
	}
	if page-1 >= pages {
		return []model.Job{}
	}
	start := (page - 1) * pageSize
	end := min(start+pageSize, len(jobs))
	return jobs[start:end]
}
