package browse

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobpulse/internal/aggregator"
	"github.com/amishk599/jobpulse/internal/metrics"
	"github.com/amishk599/jobpulse/internal/model"
)

type fixedEnricher struct {
	image string
	calls int
}

func (e *fixedEnricher) Enrich(_ context.Context, jobs []model.Job) []model.Job {
	e.calls++
	out := make([]model.Job, len(jobs))
	copy(out, jobs)
	for i := range out {
		out[i].ImageURL = e.image
	}
	return out
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func press(t *testing.T, m browseModel, msg tea.Msg) (browseModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(browseModel)
	require.True(t, ok)
	return out, cmd
}

func sampleResult() *aggregator.Result {
	a := model.Job{ID: "j1", Title: "Développeur Go", Company: "Acme", URL: "https://acme.example/jobs/1", Source: "LinkedIn",
		Salary: "45k-55k€", Description: "<p>Build <b>APIs</b></p><p>Paris &amp; remote</p>", PostedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	b := model.Job{ID: "arb-x", Title: "Boulanger", Company: "Fournil", URL: model.URLPlaceholder, Source: "arbeitnow"}
	return &aggregator.Result{
		Fetched: []model.Job{a, b},
		Jobs:    []model.Job{a},
		Total:   1,
		Sources: []aggregator.SourceStat{
			{Name: "jsearch", Outcome: metrics.OutcomeOK, Jobs: 1},
			{Name: "remotive", Outcome: metrics.OutcomeTimeout},
		},
	}
}

func readyModel(t *testing.T, enricher model.ImageEnricher) browseModel {
	t.Helper()
	m := newBrowseModel("golang", sampleResult(), enricher)
	m, _ = press(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func TestBrowse_PanesAndSwitching(t *testing.T) {
	m := readyModel(t, nil)

	view := m.View()
	assert.Contains(t, view, "Fetched (2)")
	assert.Contains(t, view, "Results (1 of 1)")
	assert.Contains(t, view, "jsearch ok 1 · remotive timeout")

	m, _ = press(t, m, runes("j"))
	assert.Equal(t, 1, m.leftCursor)
	m, _ = press(t, m, runes("j"))
	assert.Equal(t, 1, m.leftCursor, "cursor is clamped to the last job")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, paneResults, m.activePane)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, viewDetail, m.view)
	assert.Equal(t, "j1", m.detailJob.ID)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, viewList, m.view)
}

func TestBrowse_OpenUsesSafeURL(t *testing.T) {
	m := readyModel(t, nil)
	var opened []string
	m.openURL = func(u string) error {
		opened = append(opened, u)
		return nil
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = press(t, m, runes("o"))
	assert.Equal(t, []string{"https://acme.example/jobs/1"}, opened)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	m, _ = press(t, m, runes("j"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, "arb-x", m.detailJob.ID)
	m, _ = press(t, m, runes("o"))
	assert.Len(t, opened, 1, "placeholder link must not be opened")
	assert.Contains(t, m.notice, "no usable link")
}

func TestBrowse_OpenFailureShowsNotice(t *testing.T) {
	m := readyModel(t, nil)
	m.openURL = func(string) error { return errors.New("no browser") }

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = press(t, m, runes("o"))
	assert.Contains(t, m.notice, "no browser")
}

func TestBrowse_EnrichUpdatesBothPanes(t *testing.T) {
	enr := &fixedEnricher{image: "https://logo.example/acme.png"}
	m := readyModel(t, enr)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, cmd := press(t, m, runes("i"))
	require.NotNil(t, cmd)
	assert.True(t, m.enrichLoading)

	m, _ = press(t, m, cmd())
	assert.False(t, m.enrichLoading)
	assert.Equal(t, 1, enr.calls)
	assert.Equal(t, "https://logo.example/acme.png", m.detailJob.ImageURL)
	assert.Equal(t, "https://logo.example/acme.png", m.fetched[0].ImageURL)
	assert.Equal(t, "https://logo.example/acme.png", m.results[0].ImageURL)

	_, cmd = press(t, m, runes("i"))
	assert.Nil(t, cmd, "jobs that already have an image are not enriched again")
}

func TestBrowse_EnrichWithoutResult(t *testing.T) {
	m := readyModel(t, &fixedEnricher{})

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, cmd := press(t, m, runes("i"))
	require.NotNil(t, cmd)
	m, _ = press(t, m, cmd())
	assert.Contains(t, m.notice, "no image found")
}

func TestBrowse_EnrichDisabled(t *testing.T) {
	m := readyModel(t, nil)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	_, cmd := press(t, m, runes("i"))
	assert.Nil(t, cmd)
}

func TestBrowse_DescriptionToggle(t *testing.T) {
	m := readyModel(t, nil)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, m.renderDetail(), "press r")

	m, _ = press(t, m, runes("r"))
	detail := m.renderDetail()
	assert.Contains(t, detail, "Build APIs")
	assert.Contains(t, detail, "Paris & remote")
}

func TestBrowse_NilResult(t *testing.T) {
	m := newBrowseModel("empty", nil, nil)
	m, _ = press(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Contains(t, m.View(), "(no jobs)")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, viewList, m.view)
}

func TestExtractText(t *testing.T) {
	got := extractText("<h2>Missions</h2><ul><li>Build&nbsp;APIs</li><li>Ship   it</li></ul>")
	assert.Equal(t, "Missions\nBuild APIs\nShip it", got)
	assert.Equal(t, "plain text", extractText("  plain   text "))
}

func TestWordWrap(t *testing.T) {
	got := wordWrap("one two three four\nfive", 9)
	assert.Equal(t, "one two\nthree\nfour\nfive", got)
	for _, line := range strings.Split(wordWrap("développeur très expérimenté", 12), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), 12)
	}
}

func TestPicker(t *testing.T) {
	m := pickerModel{items: []SearchItem{{Name: "paris-go", Query: "golang"}, {Name: "remote-react"}}, chosen: -1}

	next, _ := m.Update(runes("j"))
	m = next.(pickerModel)
	assert.Equal(t, 1, m.cursor)
	assert.Contains(t, m.View(), `paris-go ("golang")`)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(pickerModel)
	assert.Equal(t, 1, m.chosen)
	assert.NotNil(t, cmd)
}

func TestLoader(t *testing.T) {
	res := sampleResult()
	m := loaderModel{label: "golang", timeout: time.Second, searchFn: func(context.Context) (*aggregator.Result, error) {
		return res, nil
	}}

	msg := m.doSearch()()
	next, cmd := m.Update(msg)
	m = next.(loaderModel)
	assert.True(t, m.done)
	assert.Same(t, res, m.result)
	assert.NotNil(t, cmd)

	m = loaderModel{label: "golang"}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.ErrorIs(t, next.(loaderModel).err, errCancelled)
}
