package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"chronodocs/internal/adapters/tui/views"
	"chronodocs/internal/ports"
)

// App is the main TUI application model
type App struct {
	dashboard *views.DashboardModel

	width  int
	height int
}

// NewApp creates a new TUI application
func NewApp(reconciler ports.Reconciler, creation ports.CreationIndex, history ports.RunHistory) *App {
	return &App{
		dashboard: views.NewDashboardModel(reconciler, creation, history),
	}
}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	return a.dashboard.Init()
}

// Update handles messages for the application
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		a.width = msg.Width
		a.height = msg.Height
		a.dashboard.SetSize(msg.Width, msg.Height)
		return a, nil
	}

	var cmd tea.Cmd
	a.dashboard, cmd = a.dashboard.Update(msg)
	return a, cmd
}

// View renders the current view
func (a *App) View() string {
	return a.dashboard.View()
}
