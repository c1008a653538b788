package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

const jsearchPayload = `{
	"status": "OK",
	"data": [
		{
			"job_id": "abc123",
			"job_title": "Senior Go Developer",
			"employer_name": "Doctolib",
			"employer_logo": "https://cdn.example.com/doctolib.png",
			"job_city": "Paris",
			"job_country": "FR",
			"job_is_remote": false,
			"job_min_salary": 45000,
			"job_max_salary": 65000,
			"job_employment_type": "FULLTIME",
			"job_description": "<p>Build APIs</p>",
			"job_required_skills": ["go", "postgres"],
			"job_posted_at_datetime_utc": "2025-05-30T08:00:00.000Z",
			"job_publisher": "LinkedIn",
			"job_apply_link": "https://www.linkedin.com/jobs/view/1"
		},
		{
			"job_title": "",
			"employer_name": "",
			"job_city": "",
			"job_country": "DE",
			"job_is_remote": true,
			"job_max_salary": 80000,
			"job_employment_type": "INTERNSHIP",
			"job_required_skills": null,
			"job_publisher": "",
			"job_google_link": "https://www.google.com/search?q=job"
		}
	]
}`

func TestJSearchAdapter_FetchJobs_Success(t *testing.T) {
	var gotQuery, gotKey, gotHost string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		gotKey = r.Header.Get("X-RapidAPI-Key")
		gotHost = r.Header.Get("X-RapidAPI-Host")
		if r.URL.Query().Get("page") != "1" || r.URL.Query().Get("num_pages") != "1" {
			t.Errorf("expected page=1&num_pages=1, got %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(jsearchPayload))
	}))
	defer srv.Close()

	a := NewJSearchAdapter(JSearchOptions{APIKey: "secret"}, rewriteClient(srv), discardLogger())
	a.now = fixedNow

	jobs, err := a.FetchJobs(context.Background(), model.Query{Text: "golang"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery != "golang" {
		t.Errorf("expected query golang, got %q", gotQuery)
	}
	if gotKey != "secret" || gotHost != "jsearch.p.rapidapi.com" {
		t.Errorf("unexpected auth headers: key=%q host=%q", gotKey, gotHost)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}

	j := jobs[0]
	if j.ID != "abc123" {
		t.Errorf("expected ID abc123, got %s", j.ID)
	}
	if j.Location != "Paris, FR" {
		t.Errorf("expected location 'Paris, FR', got %q", j.Location)
	}
	if j.Salary != "45k-65k€" {
		t.Errorf("expected salary 45k-65k€, got %q", j.Salary)
	}
	if j.Type != "CDI" {
		t.Errorf("expected type CDI, got %q", j.Type)
	}
	if j.Source != "LinkedIn" {
		t.Errorf("expected source LinkedIn, got %q", j.Source)
	}
	if j.ImageURL != "https://cdn.example.com/doctolib.png" {
		t.Errorf("expected employer logo, got %q", j.ImageURL)
	}
	if !reflect.DeepEqual(j.Requirements, []string{"go", "postgres"}) {
		t.Errorf("unexpected requirements %v", j.Requirements)
	}
	if want := time.Date(2025, 5, 30, 8, 0, 0, 0, time.UTC); !j.PostedAt.Equal(want) {
		t.Errorf("expected postedAt %v, got %v", want, j.PostedAt)
	}
	if j.Applied || j.Saved {
		t.Error("expected applied and saved to be false")
	}

	// Second record exercises every fallback.
	j = jobs[1]
	if j.ID != "j-1" {
		t.Errorf("expected synthesized ID j-1, got %s", j.ID)
	}
	if j.Title != "Poste" || j.Company != "Entreprise non spécifiée" {
		t.Errorf("expected placeholders, got title=%q company=%q", j.Title, j.Company)
	}
	if j.Location != "DE" {
		t.Errorf("expected location DE, got %q", j.Location)
	}
	if !j.Remote {
		t.Error("expected remote true")
	}
	if j.Salary != "80k€" {
		t.Errorf("expected salary 80k€, got %q", j.Salary)
	}
	if j.Type != "Stage" {
		t.Errorf("expected type Stage, got %q", j.Type)
	}
	if j.Source != "JSearch" {
		t.Errorf("expected source JSearch, got %q", j.Source)
	}
	if j.URL != "https://www.google.com/search?q=job" {
		t.Errorf("expected google link, got %q", j.URL)
	}
	if j.ImageURL != "https://logo.clearbit.com/www.google.com" {
		t.Errorf("expected clearbit logo, got %q", j.ImageURL)
	}
	if j.Requirements == nil || len(j.Requirements) != 0 {
		t.Errorf("expected empty requirements, got %#v", j.Requirements)
	}
	if !j.PostedAt.Equal(fixedNow()) {
		t.Errorf("expected postedAt to default to now, got %v", j.PostedAt)
	}
}

func TestJSearchAdapter_FetchJobs_MissingKey(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	a := NewJSearchAdapter(JSearchOptions{}, rewriteClient(srv), discardLogger())
	jobs, err := a.FetchJobs(context.Background(), model.Query{Text: "go"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("expected no jobs, got %d", len(jobs))
	}
	if calls.Load() != 0 {
		t.Errorf("expected no upstream call, got %d", calls.Load())
	}
}

func TestJSearchAdapter_FetchJobs_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := NewJSearchAdapter(JSearchOptions{APIKey: "k"}, rewriteClient(srv), discardLogger())
	_, err := a.FetchJobs(context.Background(), model.Query{})
	if err == nil {
		t.Fatal("expected error")
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %T", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.StatusCode)
	}
	if httpErr.RetryAfter != 30*time.Second {
		t.Errorf("expected RetryAfter 30s, got %v", httpErr.RetryAfter)
	}
}

func TestJSearchAdapter_FetchJobs_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": "not an array"}`))
	}))
	defer srv.Close()

	a := NewJSearchAdapter(JSearchOptions{APIKey: "k"}, rewriteClient(srv), discardLogger())
	if _, err := a.FetchJobs(context.Background(), model.Query{}); err == nil {
		t.Fatal("expected error for unexpected shape")
	}
}

func TestJSearchAdapter_ComposeQuery(t *testing.T) {
	q := model.Query{
		Text: "react",
		Filters: model.Filters{
			Location: "Paris",
			Company:  "Doctolib",
			Remote:   true,
		},
	}

	plain := NewJSearchAdapter(JSearchOptions{APIKey: "k"}, http.DefaultClient, discardLogger())
	if got := plain.composeQuery(q); got != "react" {
		t.Errorf("plain query = %q, want react", got)
	}

	tokens := NewJSearchAdapter(JSearchOptions{APIKey: "k", TokenQuery: true}, http.DefaultClient, discardLogger())
	if got := tokens.composeQuery(q); got != "react location:Paris company:Doctolib remote" {
		t.Errorf("token query = %q", got)
	}
	if got := tokens.composeQuery(model.Query{Filters: model.Filters{Remote: true}}); got != "remote" {
		t.Errorf("token query without text = %q, want remote", got)
	}
}

func TestMapJSearch_Idempotent(t *testing.T) {
	f := 50000.0
	items := []jsearchJob{
		{JobID: "x", JobTitle: "Dev", JobMinSalary: &f, JobMaxSalary: &f, JobApplyLink: "https://a.io/1"},
		{JobTitle: "Ops"},
	}
	now := fixedNow()
	first := mapJSearch(items, now)
	second := mapJSearch(items, now)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("mapping is not idempotent:\n%+v\n%+v", first, second)
	}
}
