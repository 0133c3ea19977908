package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/haryoiro/vidstream/internal/constants"
	"github.com/haryoiro/vidstream/internal/router"
	"github.com/haryoiro/vidstream/internal/structures"
	"github.com/haryoiro/vidstream/internal/systems"
	"github.com/mattn/go-runewidth"
)

func init() {
	runewidth.DefaultCondition.EastAsianWidth = false
}

type Model struct {
	systems      *systems.Systems
	config       *structures.Config
	themeManager *ThemeManager
	router       *router.Router
	keyDebouncer *KeyDebouncer
	width        int
	height       int

	feed      feedState
	auth      authState
	dashboard dashboardState

	status      string
	statusError bool

	unsubscribe []func()
}

// storeChangedMsg reports a store notification; ch is listened to again
type storeChangedMsg struct {
	ch <-chan struct{}
}

type feedLoadedMsg struct{ err error }
type ownedLoadedMsg struct{ err error }

type authDoneMsg struct {
	identity structures.Identity
	err      error
}

type uploadDoneMsg struct {
	video structures.Video
	err   error
}

type editDoneMsg struct {
	video structures.Video
	err   error
}

type deleteDoneMsg struct {
	id  string
	err error
}

type renameDoneMsg struct {
	identity structures.Identity
	err      error
}

type logoutDoneMsg struct{ err error }

// NewModel creates the root model positioned on the feed
func NewModel(s *systems.Systems, config *structures.Config) *Model {
	return &Model{
		systems:      s,
		config:       config,
		themeManager: NewThemeManager(config.Theme),
		router:       router.New(),
		keyDebouncer: NewKeyDebouncer(constants.RefreshDebounce),
		auth:         newAuthState(),
		dashboard:    newDashboardState(),
	}
}

// Run starts the interactive client and blocks until it exits
func Run(s *systems.Systems, config *structures.Config) error {
	m := NewModel(s, config)
	defer m.close()

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func (m *Model) Init() tea.Cmd {
	sessionCh, cancelSession := m.systems.Session.Subscribe()
	collectionCh, cancelCollection := m.systems.Collection.Subscribe()
	m.unsubscribe = append(m.unsubscribe, cancelSession, cancelCollection)

	return tea.Batch(
		listenTo(sessionCh),
		listenTo(collectionCh),
		m.loadFeed(),
	)
}

func (m *Model) close() {
	for _, cancel := range m.unsubscribe {
		cancel()
	}
	m.unsubscribe = nil
}

// listenTo waits for the next notification on ch
func listenTo(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return storeChangedMsg{ch: ch}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case storeChangedMsg:
		// Views read straight from the stores; only clamp the cursors
		m.feed.list.clamp(len(m.visibleFeed()))
		m.dashboard.list.clamp(len(m.systems.Collection.OwnedVideos()))
		return m, listenTo(msg.ch)

	case feedLoadedMsg:
		if msg.err != nil {
			m.setError(msg.err)
		}
		return m, nil

	case ownedLoadedMsg:
		if msg.err != nil {
			m.setError(msg.err)
		}
		return m, nil

	case authDoneMsg:
		return m.handleAuthDone(msg)

	case uploadDoneMsg:
		return m.handleUploadDone(msg)

	case editDoneMsg:
		return m.handleEditDone(msg)

	case deleteDoneMsg:
		return m.handleDeleteDone(msg)

	case renameDoneMsg:
		return m.handleRenameDone(msg)

	case logoutDoneMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.dashboard = newDashboardState()
		m.router.Reset(router.FeedPath, false)
		m.setStatus("Signed out")
		return m, nil
	}

	return m, nil
}

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	mainStyle := m.themeManager.BorderStyle().Padding(0, 1)
	frameH, frameV := mainStyle.GetFrameSize()
	contentWidth := max(m.width-frameH, 10)
	contentHeight := max(m.height-frameV, 5)

	header := m.renderHeader(contentWidth)
	footer := m.renderFooter(contentWidth)
	bodyHeight := max(contentHeight-lipgloss.Height(header)-lipgloss.Height(footer), 1)

	var body string
	switch m.router.Current() {
	case router.Auth:
		body = m.renderAuth(contentWidth, bodyHeight)
	case router.Dashboard:
		body = m.renderDashboard(contentWidth, bodyHeight)
	default:
		body = m.renderFeed(contentWidth, bodyHeight)
	}

	body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)

	// Width includes the padding but not the border
	return mainStyle.
		Width(contentWidth + mainStyle.GetHorizontalPadding()).
		Height(contentHeight).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, body, footer))
}

func (m *Model) renderHeader(width int) string {
	title := m.themeManager.RenderTitle("vidstream")

	user := "not signed in"
	if identity, ok := m.systems.Session.Identity(); ok {
		user = "signed in as " + identity.Name
	}
	if m.systems.Session.IsLoading() || m.systems.Collection.IsLoading() {
		user = "loading… · " + user
	}

	right := m.themeManager.RenderSubtitle(truncate(user, max(width-lipgloss.Width(title)-1, 0)))
	gap := max(width-lipgloss.Width(title)-lipgloss.Width(right), 1)
	return title + strings.Repeat(" ", gap) + right
}

func (m *Model) renderFooter(width int) string {
	var lines []string
	if m.status != "" {
		text := truncate(m.status, width)
		if m.statusError {
			lines = append(lines, m.themeManager.RenderError(text))
		} else {
			lines = append(lines, m.themeManager.RenderSuccess(text))
		}
	} else {
		lines = append(lines, "")
	}
	lines = append(lines, m.themeManager.RenderHelp(truncate(m.helpText(), width)))
	return strings.Join(lines, "\n")
}

func (m *Model) helpText() string {
	kb := m.config.KeyBindings
	switch m.router.Current() {
	case router.Auth:
		return "enter submit · " + kb.ToggleAuth + " sign in/up · tab next field · esc back"
	case router.Dashboard:
		return kb.NextTab + " next tab · " + kb.Refresh + " refresh · " + kb.Edit + " edit · " +
			kb.Delete + " delete · " + kb.Logout + " logout · esc back"
	default:
		if m.feed.searching {
			return "type to filter · enter/esc done"
		}
		return kb.Search + " search · " + kb.Refresh + " refresh · " + kb.Auth + " sign in · " +
			kb.Dashboard + " dashboard · ctrl+c quit"
	}
}

func (m *Model) setStatus(text string) {
	m.status = text
	m.statusError = false
}

func (m *Model) setError(err error) {
	m.status = structures.UserMessage(err)
	m.statusError = true
}

func (m *Model) clearStatus() {
	m.status = ""
	m.statusError = false
}

// navigate enters path, running the dashboard guard
func (m *Model) navigate(path string) tea.Cmd {
	prev := m.router.Current()
	next := m.router.Navigate(path, m.systems.Session.Authenticated())
	if next == prev {
		return nil
	}
	return m.enter(next)
}

func (m *Model) back() tea.Cmd {
	next := m.router.Back(m.systems.Session.Authenticated())
	return m.enter(next)
}

// enter runs the per-screen setup for a newly active screen
func (m *Model) enter(screen router.Screen) tea.Cmd {
	switch screen {
	case router.Dashboard:
		return m.loadOwned()
	case router.Auth:
		m.auth.active().focus = 0
	}
	return nil
}
