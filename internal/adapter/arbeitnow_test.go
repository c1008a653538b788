package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

const arbeitnowPayload = `{
	"data": [
		{
			"slug": "golang-engineer-berlin-123",
			"company_name": "Berlin Tech",
			"title": "Golang Engineer",
			"description": "Kubernetes and Go",
			"remote": false,
			"url": "https://www.arbeitnow.com/jobs/companies/berlin-tech/golang-engineer-berlin-123",
			"tags": ["Go", "Kubernetes"],
			"job_types": ["Full Time", "Permanent"],
			"location": "Berlin",
			"created_at": 1717200000
		},
		{
			"slug": "",
			"company_name": "Remote Co",
			"title": "Accountant",
			"description": "Finance role",
			"remote": true,
			"url": "",
			"tags": null,
			"job_types": [],
			"location": "",
			"created_at": 0
		},
		{
			"slug": "barista",
			"company_name": "Cafe",
			"title": "Barista",
			"description": "Coffee",
			"remote": false,
			"location": ""
		}
	],
	"links": {},
	"meta": {}
}`

func TestArbeitnowAdapter_FetchJobs_NoQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(arbeitnowPayload))
	}))
	defer srv.Close()

	a := NewArbeitnowAdapter("", rewriteClient(srv), discardLogger())
	a.now = fixedNow

	jobs, err := a.FetchJobs(context.Background(), model.Query{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}

	j := jobs[0]
	if j.ID != "arb-golang-engineer-berlin-123" {
		t.Errorf("unexpected ID %s", j.ID)
	}
	if j.Company != "Berlin Tech" {
		t.Errorf("expected company Berlin Tech, got %q", j.Company)
	}
	if j.Type != "CDI" {
		t.Errorf("expected type CDI from first job type, got %q", j.Type)
	}
	if !reflect.DeepEqual(j.Requirements, []string{"Go", "Kubernetes"}) {
		t.Errorf("unexpected requirements %v", j.Requirements)
	}
	if want := time.Unix(1717200000, 0).UTC(); !j.PostedAt.Equal(want) {
		t.Errorf("expected postedAt %v, got %v", want, j.PostedAt)
	}
	if j.Source != "Arbeitnow" {
		t.Errorf("expected source Arbeitnow, got %q", j.Source)
	}

	j = jobs[1]
	if j.ID != "arb-1" {
		t.Errorf("expected synthesized ID arb-1, got %s", j.ID)
	}
	if j.Location != "Remote" {
		t.Errorf("expected Remote location for remote job, got %q", j.Location)
	}
	if j.URL != "#" {
		t.Errorf("expected URL placeholder, got %q", j.URL)
	}
	if !j.PostedAt.Equal(fixedNow()) {
		t.Errorf("expected postedAt to default to now, got %v", j.PostedAt)
	}
	if j.Type != "" {
		t.Errorf("expected empty type, got %q", j.Type)
	}

	if jobs[2].Location != "—" {
		t.Errorf("expected placeholder location for on-site job, got %q", jobs[2].Location)
	}
}

func TestArbeitnowAdapter_FetchJobs_FiltersByText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(arbeitnowPayload))
	}))
	defer srv.Close()

	a := NewArbeitnowAdapter("", rewriteClient(srv), discardLogger())

	tests := []struct {
		query string
		want  []string
	}{
		{"GOLANG", []string{"arb-golang-engineer-berlin-123"}},
		{"remote co", []string{"arb-0"}},
		{"finance", []string{"arb-0"}},
		{"nothing-matches", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			jobs, err := a.FetchJobs(context.Background(), model.Query{Text: tt.query})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var ids []string
			for _, j := range jobs {
				ids = append(ids, j.ID)
			}
			if !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("ids = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestArbeitnowAdapter_FetchJobs_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := NewArbeitnowAdapter("", rewriteClient(srv), discardLogger())
	if _, err := a.FetchJobs(context.Background(), model.Query{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestArbeitnowAdapter_FetchJobs_MalformedJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"truncated", `{"data": [{"slug": "a"`},
		{"wrong shape", `{"data": {"slug": "a"}}`},
		{"not json", `<html>maintenance</html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			a := NewArbeitnowAdapter("", rewriteClient(srv), discardLogger())
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
