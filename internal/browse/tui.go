package browse

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobpulse/internal/aggregator"
	"github.com/amishk599/jobpulse/internal/model"
)

// Lines per job item in the list view (title + subtitle + blank separator).
const jobItemHeight = 3

const enrichTimeout = 15 * time.Second

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

const (
	paneFetched = iota
	paneResults
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39")) // bright blue

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")) // dim gray

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("39"))

	inactiveHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	jobTitleStyle = lipgloss.NewStyle().
			Bold(true)

	jobSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedJobTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedJobSubtitleStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("252")).
					Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(14)

	detailValueStyle = lipgloss.NewStyle()

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	descDividerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	descHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	descBodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

// jobEnrichedMsg is sent when an async image lookup completes.
type jobEnrichedMsg struct {
	job model.Job
}

type browseModel struct {
	title         string
	fetched       []model.Job
	results       []model.Job
	total         int
	sources       []aggregator.SourceStat
	leftViewport  viewport.Model
	rightViewport viewport.Model
	activePane    int
	leftCursor    int
	rightCursor   int
	width         int
	height        int
	ready         bool

	// Detail view state
	view            viewState
	detailJob       model.Job
	detailViewport  viewport.Model
	showDescription bool
	notice          string

	enricher      model.ImageEnricher
	enrichLoading bool
	openURL       func(string) error
}

func newBrowseModel(title string, res *aggregator.Result, enricher model.ImageEnricher) browseModel {
	m := browseModel{
		title:    title,
		enricher: enricher,
		openURL:  openInBrowser,
	}
	if res != nil {
		m.fetched = res.Fetched
		m.results = res.Jobs
		m.total = res.Total
		m.sources = res.Sources
	}
	return m
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case jobEnrichedMsg:
		m.enrichLoading = false
		if msg.job.ImageURL == "" {
			m.notice = "no image found for this posting"
		} else {
			m.notice = ""
			m.updateJobInLists(msg.job)
			if m.detailJob.ID == msg.job.ID {
				m.detailJob = msg.job
			}
		}
		m.recalcContent()
		m.detailViewport.SetContent(m.renderDetail())
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m browseModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "left", "right":
		m.activePane = 1 - m.activePane
		m.recalcContent()
		return m, nil
	case "up", "k":
		m.moveCursor(-1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		return m.openDetailView(), nil
	}

	// Forward other keys (pgup/pgdn/home/end) to the active viewport.
	var cmd tea.Cmd
	if m.activePane == paneFetched {
		m.leftViewport, cmd = m.leftViewport.Update(msg)
	} else {
		m.rightViewport, cmd = m.rightViewport.Update(msg)
	}
	return m, cmd
}

func (m browseModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		m.notice = ""
		return m, nil
	case "o":
		link, ok := model.SafeURL(m.detailJob.URL)
		if !ok {
			m.notice = "this posting has no usable link"
		} else if err := m.openURL(link); err != nil {
			m.notice = fmt.Sprintf("could not open browser: %v", err)
		}
		m.detailViewport.SetContent(m.renderDetail())
		return m, nil
	case "r":
		if m.detailJob.Description != "" {
			m.showDescription = !m.showDescription
			m.detailViewport.SetContent(m.renderDetail())
			m.detailViewport.SetYOffset(0)
		}
		return m, nil
	case "i":
		if m.enricher != nil && !m.enrichLoading && m.detailJob.ImageURL == "" {
			m.enrichLoading = true
			m.notice = ""
			m.detailViewport.SetContent(m.renderDetail())
			return m, m.enrichJobCmd(m.detailJob)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m browseModel) enrichJobCmd(job model.Job) tea.Cmd {
	enricher := m.enricher
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), enrichTimeout)
		defer cancel()
		out := enricher.Enrich(ctx, []model.Job{job})
		if len(out) == 0 {
			return jobEnrichedMsg{job: job}
		}
		return jobEnrichedMsg{job: out[0]}
	}
}

func (m *browseModel) moveCursor(delta int) {
	if m.activePane == paneFetched {
		m.leftCursor = clamp(m.leftCursor+delta, 0, max(len(m.fetched)-1, 0))
	} else {
		m.rightCursor = clamp(m.rightCursor+delta, 0, max(len(m.results)-1, 0))
	}
}

func (m *browseModel) ensureCursorVisible() {
	var vp *viewport.Model
	var cursor int
	if m.activePane == paneFetched {
		vp = &m.leftViewport
		cursor = m.leftCursor
	} else {
		vp = &m.rightViewport
		cursor = m.rightCursor
	}

	cursorTop := cursor * jobItemHeight
	cursorBottom := cursorTop + jobItemHeight - 1

	if cursorTop < vp.YOffset {
		vp.SetYOffset(cursorTop)
	} else if cursorBottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(cursorBottom - vp.Height + 1)
	}
}

func (m browseModel) openDetailView() browseModel {
	jobs := m.activeJobs()
	if len(jobs) == 0 {
		return m
	}

	m.view = viewDetail
	m.detailJob = jobs[m.activeCursor()]
	m.notice = ""
	m.showDescription = false
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m
}

// updateJobInLists replaces every copy of job in both panes. IDs are unique
// per source but the same posting appears in both panes.
func (m *browseModel) updateJobInLists(job model.Job) {
	for i := range m.fetched {
		if m.fetched[i].ID == job.ID && m.fetched[i].URL == job.URL {
			m.fetched[i] = job
		}
	}
	for i := range m.results {
		if m.results[i].ID == job.ID && m.results[i].URL == job.URL {
			m.results[i] = job
		}
	}
}

func (m *browseModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)

	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.leftViewport = viewport.New(paneWidth, paneHeight)
		m.rightViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.leftViewport.Width = paneWidth
		m.leftViewport.Height = paneHeight
		m.rightViewport.Width = paneWidth
		m.rightViewport.Height = paneHeight
	}

	m.recalcContent()
}

func (m *browseModel) recalcContent() {
	m.leftViewport.SetContent(renderJobs(m.fetched, m.leftCursor, m.activePane == paneFetched))
	m.rightViewport.SetContent(renderJobs(m.results, m.rightCursor, m.activePane == paneResults))
}

func (m browseModel) activeJobs() []model.Job {
	if m.activePane == paneFetched {
		return m.fetched
	}
	return m.results
}

func (m browseModel) activeCursor() int {
	if m.activePane == paneFetched {
		return m.leftCursor
	}
	return m.rightCursor
}

func (m browseModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.view == viewDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m browseModel) viewList() string {
	paneWidth := m.leftViewport.Width

	leftHeader := fmt.Sprintf(" Fetched (%d)", len(m.fetched))
	rightHeader := fmt.Sprintf(" Results (%d of %d)", len(m.results), m.total)

	leftHeaderRendered := inactiveHeaderStyle.Render(leftHeader)
	rightHeaderRendered := inactiveHeaderStyle.Render(rightHeader)
	leftBorder := inactiveBorderStyle.Width(paneWidth)
	rightBorder := inactiveBorderStyle.Width(paneWidth)
	if m.activePane == paneFetched {
		leftHeaderRendered = activeHeaderStyle.Render(leftHeader)
		leftBorder = activeBorderStyle.Width(paneWidth)
	} else {
		rightHeaderRendered = activeHeaderStyle.Render(rightHeader)
		rightBorder = activeBorderStyle.Width(paneWidth)
	}

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth+2).Render(leftHeaderRendered),
		" ",
		lipgloss.NewStyle().Width(paneWidth+2).Render(rightHeaderRendered),
	)
	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		leftBorder.Render(m.leftViewport.View()), " ", rightBorder.Render(m.rightViewport.View()))

	statusText := fmt.Sprintf(" %s | %s    ←/→/Tab switch  ↑/↓ cursor  Enter detail  q quit",
		m.title, summarizeSources(m.sources))
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return headerRow + "\n" + panes + "\n" + statusBar
}

// summarizeSources renders per-source outcomes, e.g. "jsearch ok 10 · remotive timeout".
func summarizeSources(stats []aggregator.SourceStat) string {
	if len(stats) == 0 {
		return "no sources called"
	}
	parts := make([]string, 0, len(stats))
	for _, s := range stats {
		part := s.Name + " " + s.Outcome
		if s.Jobs > 0 {
			part += fmt.Sprintf(" %d", s.Jobs)
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " · ")
}

func (m browseModel) viewDetail() string {
	title := detailTitleStyle.Render("Job Details")
	if m.enrichLoading {
		title += "  (looking up image...)"
	}

	border := activeBorderStyle.Width(m.width - 2)
	content := border.Render(m.detailViewport.View())

	keys := []string{"o open URL"}
	if m.detailJob.Description != "" {
		keys = append(keys, "r desc")
	}
	if m.enricher != nil && m.detailJob.ImageURL == "" && !m.enrichLoading {
		keys = append(keys, "i image")
	}
	keys = append(keys, "esc/backspace back", "↑/↓ scroll", "q quit")
	statusBar := statusBarStyle.Width(m.width).Render(" " + strings.Join(keys, "  "))

	return title + "\n" + content + "\n" + statusBar
}

func (m browseModel) renderDetail() string {
	j := m.detailJob
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteByte('\n')
	}

	addField("Title", j.Title)
	addField("Company", j.Company)
	addField("Location", j.Location)
	addField("Remote", yesNo(j.Remote))
	addField("Salary", j.Salary)
	addField("Type", j.Type)
	addField("Experience", j.Experience)
	addField("Source", j.Source)
	addField("Job ID", j.ID)

	b.WriteByte('\n')
	if !j.PostedAt.IsZero() {
		addField("Posted At", j.PostedAt.Local().Format("2006-01-02 15:04 MST"))
	}
	if len(j.Requirements) > 0 {
		addField("Skills", strings.Join(j.Requirements, ", "))
	}
	addField("Applied", yesNo(j.Applied))
	addField("Saved", yesNo(j.Saved))

	b.WriteByte('\n')
	if link, ok := model.SafeURL(j.URL); ok {
		addField("Job URL", link)
	} else {
		addField("Job URL", "(none)")
	}
	addField("Image", j.ImageURL)

	if m.notice != "" {
		b.WriteByte('\n')
		b.WriteString(noticeStyle.Render("⚠ "+m.notice) + "\n")
	}

	wrapWidth := max(m.width-8, 20)
	if j.Description != "" {
		b.WriteByte('\n')
		if m.showDescription {
			fill := strings.Repeat("─", max(wrapWidth-18, 3))
			b.WriteString(descDividerStyle.Render("── Description "+fill) + "\n\n")
			b.WriteString(descBodyStyle.Render(wordWrap(extractText(j.Description), wrapWidth)) + "\n")
		} else {
			b.WriteString(descHintStyle.Render("  press r to read the description") + "\n")
		}
	}

	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func renderJobs(jobs []model.Job, cursor int, isActive bool) string {
	if len(jobs) == 0 {
		return "  (no jobs)"
	}

	var b strings.Builder
	for i, j := range jobs {
		isSelected := isActive && i == cursor

		titleSt := jobTitleStyle
		subtitleSt := jobSubtitleStyle
		prefix := "  "
		if isSelected {
			titleSt = selectedJobTitleStyle
			subtitleSt = selectedJobSubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(j.Title + " · " + j.Company))
		b.WriteByte('\n')

		posted := "n/a"
		if !j.PostedAt.IsZero() {
			posted = j.PostedAt.Format("2006-01-02")
		}
		location := j.Location
		if location == "" {
			location = "—"
		}
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %s · %s · %s", location, j.Salary, j.Source, posted)))
		b.WriteByte('\n')

		if i < len(jobs)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// openInBrowser opens url in the default system browser, fire-and-forget.
func openInBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}
	return cmd.Start()
}

// RunBrowseTUI launches the split-pane browser for one aggregation. enricher
// may be nil; when set, the 'i' key looks up an image for the open posting.
func RunBrowseTUI(title string, res *aggregator.Result, enricher model.ImageEnricher) error {
	m := newBrowseModel(title, res, enricher)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
