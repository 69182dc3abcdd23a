package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"chronodocs/internal/adapters/tui/styles"
	"chronodocs/internal/domain"
	"chronodocs/internal/ports"
)

// DashboardKeyMap defines key bindings for the dashboard
type DashboardKeyMap struct {
	Reconcile key.Binding
	DryRun    key.Binding
	Refresh   key.Binding
	Quit      key.Binding
}

var DashboardKeys = DashboardKeyMap{
	Reconcile: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reconcile"),
	),
	DryRun: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "dry run"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// fileRow is one line of the canonical order listing.
type fileRow struct {
	Ordinal string
	Name    string
	Pending bool
}

// RefreshDoneMsg carries a reloaded snapshot of order and history.
type RefreshDoneMsg struct {
	Files []fileRow
	Runs  []ports.RunRecord
	Err   error
}

// ReconcileDoneMsg carries the outcome of a reconciliation run.
type ReconcileDoneMsg struct {
	Result *domain.Result
	Err    error
}

// DashboardModel shows the phase directory's canonical order and the
// recent run history, and triggers reconciliations on demand.
type DashboardModel struct {
	reconciler ports.Reconciler
	creation   ports.CreationIndex
	history    ports.RunHistory

	spinner spinner.Model
	busy    bool
	files   []fileRow
	runs    []ports.RunRecord
	message string
	isError bool

	width  int
	height int
}

// NewDashboardModel creates the dashboard.
func NewDashboardModel(reconciler ports.Reconciler, creation ports.CreationIndex, history ports.RunHistory) *DashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return &DashboardModel{
		reconciler: reconciler,
		creation:   creation,
		history:    history,
		spinner:    s,
	}
}

// Init loads the initial snapshot.
func (m *DashboardModel) Init() tea.Cmd {
	return m.refresh()
}

// SetSize updates the layout dimensions.
func (m *DashboardModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles messages for the dashboard.
func (m *DashboardModel) Update(msg tea.Msg) (*DashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DashboardKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, DashboardKeys.Reconcile):
			return m, m.reconcile(false)
		case key.Matches(msg, DashboardKeys.DryRun):
			return m, m.reconcile(true)
		case key.Matches(msg, DashboardKeys.Refresh):
			return m, m.refresh()
		}

	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case RefreshDoneMsg:
		if msg.Err != nil {
			m.message = msg.Err.Error()
			m.isError = true
			return m, nil
		}
		m.files = msg.Files
		m.runs = msg.Runs
		return m, nil

	case ReconcileDoneMsg:
		m.busy = false
		if msg.Err != nil {
			m.message = msg.Err.Error()
			m.isError = true
			return m, m.refresh()
		}
		m.isError = false
		m.message = describeRun(msg.Result)
		return m, m.refresh()
	}

	return m, nil
}

func describeRun(result *domain.Result) string {
	verb := "renamed"
	if result.DryRun {
		verb = "would rename"
	}
	s := fmt.Sprintf("%s %d file(s) in %s", verb, len(result.Renamed), result.Duration.Round(time.Millisecond))
	if len(result.Errors) > 0 {
		s += fmt.Sprintf(", %d error(s)", len(result.Errors))
	}
	return s
}

// reconcile runs the engine off the UI goroutine.
func (m *DashboardModel) reconcile(dryRun bool) tea.Cmd {
	if m.busy {
		return nil
	}
	m.busy = true
	m.message = ""
	run := func() tea.Msg {
		result, err := m.reconciler.Reconcile(context.Background(), dryRun)
		return ReconcileDoneMsg{Result: result, Err: err}
	}
	return tea.Batch(m.spinner.Tick, run)
}

// refresh reloads the creation order and run history.
func (m *DashboardModel) refresh() tea.Cmd {
	return func() tea.Msg {
		if err := m.creation.Load(); err != nil {
			return RefreshDoneMsg{Err: err}
		}
		all := m.creation.All()
		ordered := make([]domain.CreationRecord, 0, len(all))
		for _, rec := range all {
			ordered = append(ordered, rec)
		}
		domain.SortCanonical(ordered)

		files := make([]fileRow, 0, len(ordered))
		for i, rec := range ordered {
			want := domain.OrdinalName(i, rec.Filename)
			files = append(files, fileRow{
				Ordinal: fmt.Sprintf("%02d", i),
				Name:    domain.StripOrdinalPrefix(rec.Filename),
				Pending: rec.Filename != want,
			})
		}

		var runs []ports.RunRecord
		if m.history != nil {
			var err error
			if runs, err = m.history.Recent(5); err != nil {
				return RefreshDoneMsg{Files: files, Err: err}
			}
		}
		return RefreshDoneMsg{Files: files, Runs: runs}
	}
}

// View renders the dashboard.
func (m *DashboardModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("ChronoDocs"))
	b.WriteString("\n")
	b.WriteString(styles.Subtitle.Render(m.reconciler.Directory()))
	b.WriteString("\n\n")

	if m.busy {
		b.WriteString(m.spinner.View())
		b.WriteString(" reconciling...\n\n")
	}

	if len(m.files) == 0 {
		b.WriteString(styles.MutedText.Render("No files tracked yet."))
		b.WriteString("\n")
	}
	for _, f := range m.files {
		name := styles.FileName.Render(f.Name)
		if f.Pending {
			name = styles.FilePending.Render(f.Name + " (pending rename)")
		}
		fmt.Fprintf(&b, "%s %s\n", styles.Ordinal.Render(f.Ordinal), name)
	}

	if len(m.runs) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.Subtitle.Render("Recent runs"))
		b.WriteString("\n")
		for _, run := range m.runs {
			line := fmt.Sprintf("%s  %s  renamed=%d errors=%d", run.Started, run.Trigger, run.Renamed, run.Errors)
			style := styles.RunOK
			if run.Errors > 0 {
				style = styles.RunErrors
			}
			if run.DryRun {
				style = styles.RunDry
			}
			b.WriteString(style.Render(line))
			b.WriteString("\n")
		}
	}

	if m.message != "" {
		b.WriteString("\n")
		if m.isError {
			b.WriteString(styles.ErrorMsg.Render(m.message))
		} else {
			b.WriteString(styles.Success.Render(m.message))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderHelp())
	return styles.App.Render(b.String())
}

func renderHelp() string {
	bindings := []key.Binding{
		DashboardKeys.Reconcile,
		DashboardKeys.DryRun,
		DashboardKeys.Refresh,
		DashboardKeys.Quit,
	}
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		h := binding.Help()
		parts = append(parts, styles.HelpKey.Render(h.Key)+" "+styles.HelpDesc.Render(h.Desc))
	}
	return strings.Join(parts, styles.MutedText.Render(" • "))
}
