package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

func TestRemotiveAdapter_FetchJobs_Success(t *testing.T) {
	payload := `{
		"job-count": 2,
		"jobs": [
			{
				"id": 1903210,
				"url": "https://remotive.com/remote-jobs/software-dev/backend-engineer-1903210",
				"title": "Backend Engineer",
				"company_name": "Acme",
				"company_logo_url": "https://remotive.com/job/1903210/logo",
				"job_type": "full_time",
				"publication_date": "2024-01-15T10:21:33",
				"candidate_required_location": "Europe",
				"salary": "$100k - $120k",
				"description": "<p>Go and Postgres</p>"
			},
			{
				"title": "",
				"company_name": "",
				"job_type": "freelance",
				"candidate_required_location": "",
				"salary": ""
			}
		]
	}`
	var gotSearch string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSearch = r.URL.Query().Get("search")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	a := NewRemotiveAdapter("", rewriteClient(srv), discardLogger())
	a.now = fixedNow

	jobs, err := a.FetchJobs(context.Background(), model.Query{Text: "go developer"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotSearch != "go developer" {
		t.Errorf("expected search 'go developer', got %q", gotSearch)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}

	j := jobs[0]
	if j.ID != "rem-1903210" {
		t.Errorf("expected ID rem-1903210, got %s", j.ID)
	}
	if j.Location != "Europe" {
		t.Errorf("expected location Europe, got %q", j.Location)
	}
	if !j.Remote {
		t.Error("expected every remotive job to be remote")
	}
	if j.Salary != "$100k - $120k" {
		t.Errorf("expected salary passthrough, got %q", j.Salary)
	}
	if j.Type != "CDI" {
		t.Errorf("expected type CDI, got %q", j.Type)
	}
	if j.Source != "Remotive" {
		t.Errorf("expected source Remotive, got %q", j.Source)
	}
	if want := time.Date(2024, 1, 15, 10, 21, 33, 0, time.UTC); !j.PostedAt.Equal(want) {
		t.Errorf("expected postedAt %v, got %v", want, j.PostedAt)
	}

	j = jobs[1]
	if j.ID != "rem-1" {
		t.Errorf("expected synthesized ID rem-1, got %s", j.ID)
	}
	if j.Location != "Remote" {
		t.Errorf("expected default location Remote, got %q", j.Location)
	}
	if j.Salary != "—" || j.URL != "#" {
		t.Errorf("expected placeholders, got salary=%q url=%q", j.Salary, j.URL)
	}
	if j.Type != "freelance" {
		t.Errorf("expected raw type passthrough, got %q", j.Type)
	}
	if len(j.Requirements) != 0 || j.Requirements == nil {
		t.Errorf("expected empty non-nil requirements, got %#v", j.Requirements)
	}
}

func TestRemotiveAdapter_FetchJobs_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	a := NewRemotiveAdapter("", rewriteClient(srv), discardLogger())
	if _, err := a.FetchJobs(context.Background(), model.Query{}); err == nil {
		t.Fatal("expected error for 502")
	}
}

func TestRemotiveAdapter_FetchJobs_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	a := NewRemotiveAdapter("", rewriteClient(srv), discardLogger())
	if _, err := a.FetchJobs(ctx, model.Query{}); err == nil {
		t.Fatal("expected error on deadline")
	}
}

func TestRemotiveAdapter_FetchJobs_MalformedJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"truncated", `{"jobs": [{"id": 1`},
		{"wrong shape", `{"jobs": "none today"}`},
		{"not json", `<html>maintenance</html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			a := NewRemotiveAdapter("", rewriteClient(srv), discardLogger())
			jobs, err := a.FetchJobs(context.Background(), model.Query{})
			if err == nil {
				t.Fatal("expected error for malformed payload")
			}
			if len(jobs) != 0 {
				t.Errorf("expected no jobs, got %d", len(jobs))
			}
		})
	}
}
