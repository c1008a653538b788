package filter

import (
	"math"
	"testing"

	"github.com/amishk599/jobpulse/internal/model"
)

func ids(jobs []model.Job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.ID
	}
	return out
}

func TestExtractSalary(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"45k-65k€", 45},
		{"80k€", 80},
		{"—", 0},
		{"$100k - $120k", 100},
		{"", 0},
	}
	for _, tt := range tests {
		if got := ExtractSalary(tt.in); got != tt.want {
			t.Errorf("ExtractSalary(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSortJobs(t *testing.T) {
	jobs := []model.Job{
		{ID: "a", Company: "beta", Salary: "40k€", PostedAt: daysAgo(3)},
		{ID: "b", Company: "Alpha", Salary: "—", PostedAt: daysAgo(1)},
		{ID: "c", Company: "gamma", Salary: "70k€", PostedAt: daysAgo(2)},
		{ID: "d", Company: "alpha", Salary: "40k€", PostedAt: daysAgo(1)},
	}

	tests := []struct {
		order string
		want  []string
	}{
		{SortRecent, []string{"b", "d", "c", "a"}},
		{SortSalary, []string{"c", "a", "d", "b"}},
		{SortCompany, []string{"b", "d", "a", "c"}},
		{"", []string{"a", "b", "c", "d"}},
		{"bogus", []string{"a", "b", "c", "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.order, func(t *testing.T) {
			got := ids(SortJobs(jobs, tt.order))
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("SortJobs(%q) = %v, want %v", tt.order, got, tt.want)
				}
			}
		})
	}

	if jobs[0].ID != "a" {
		t.Error("SortJobs must not mutate its input")
	}
}

func TestPaginate(t *testing.T) {
	jobs := make([]model.Job, 13)
	for i := range jobs {
		jobs[i] = model.Job{ID: string(rune('a' + i))}
	}

	tests := []struct {
		name           string
		page, pageSize int
		wantLen        int
		wantFirst      string
	}{
		{"first page", 1, 6, 6, "a"},
		{"second page", 2, 6, 6, "g"},
		{"last partial page", 3, 6, 1, "m"},
		{"past the end", 4, 6, 0, ""},
		{"zero page is first", 0, 6, 6, "a"},
		{"no size returns all", 1, 0, 13, "a"},
		{"huge page is empty", math.MaxInt, 2, 0, ""},
		{"huge page and size", math.MaxInt, math.MaxInt, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Paginate(jobs, tt.page, tt.pageSize)
			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
			}
			if tt.wantLen > 0 && got[0].ID != tt.wantFirst {
				t.Errorf("first = %s, want %s", got[0].ID, tt.wantFirst)
			}
		})
	}
}

func TestValidSort(t *testing.T) {
	for _, s := range []string{"", "recent", "salary", "company"} {
		if !ValidSort(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	if ValidSort("price") {
		t.Error("expected price to be invalid")
	}
}
