package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/haryoiro/vidstream/internal/structures"
)

// ThemeManager manages UI styles based on the configured theme
type ThemeManager struct {
	theme structures.Theme

	// Cached styles
	baseStyle     lipgloss.Style
	selectedStyle lipgloss.Style
	accentStyle   lipgloss.Style
	borderStyle   lipgloss.Style
	titleStyle    lipgloss.Style
	subtitleStyle lipgloss.Style
	helpStyle     lipgloss.Style
	errorStyle    lipgloss.Style
	successStyle  lipgloss.Style
	tabStyle      lipgloss.Style
	activeTab     lipgloss.Style
}

// NewThemeManager creates a new theme manager with the given theme
func NewThemeManager(theme structures.Theme) *ThemeManager {
	tm := &ThemeManager{theme: theme}
	tm.initStyles()
	return tm
}

func (tm *ThemeManager) initStyles() {
	// Foreground only, no background, to avoid partial coloring
	tm.baseStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(tm.theme.Foreground))

	tm.selectedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(tm.theme.Selected)).
		Bold(true)

	tm.accentStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(tm.theme.Accent)).
		Bold(true)

	tm.borderStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(tm.theme.Border))

	tm.titleStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(tm.theme.Foreground)).
		Bold(true)

	tm.subtitleStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(tm.theme.Foreground)).
		Faint(true)

	tm.helpStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(tm.theme.Foreground)).
		Faint(true).
		Italic(true)

	tm.errorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(tm.theme.Error)).
		Bold(true)

	tm.successStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(tm.theme.Success))

	tm.tabStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(tm.theme.Foreground)).
		Faint(true).
		Padding(0, 1)

	tm.activeTab = lipgloss.NewStyle().
		Foreground(lipgloss.Color(tm.theme.Selected)).
		Bold(true).
		Underline(true).
		Padding(0, 1)
}

// Update updates the theme and reinitializes styles
func (tm *ThemeManager) Update(theme structures.Theme) {
	tm.theme = theme
	tm.initStyles()
}

func (tm *ThemeManager) BorderStyle() lipgloss.Style {
	return tm.borderStyle
}

func (tm *ThemeManager) RenderBase(text string) string {
	return tm.baseStyle.Render(text)
}

func (tm *ThemeManager) RenderTitle(text string) string {
	return tm.titleStyle.Render(text)
}

func (tm *ThemeManager) RenderSubtitle(text string) string {
	return tm.subtitleStyle.Render(text)
}

func (tm *ThemeManager) RenderSelected(text string) string {
	return tm.selectedStyle.Render(text)
}

func (tm *ThemeManager) RenderAccent(text string) string {
	return tm.accentStyle.Render(text)
}

func (tm *ThemeManager) RenderHelp(text string) string {
	return tm.helpStyle.Render(text)
}

func (tm *ThemeManager) RenderError(text string) string {
	return tm.errorStyle.Render(text)
}

func (tm *ThemeManager) RenderSuccess(text string) string {
	return tm.successStyle.Render(text)
}

// RenderTab renders a tab label, highlighted when active
func (tm *ThemeManager) RenderTab(text string, active bool) string {
	if active {
		return tm.activeTab.Render(text)
	}
	return tm.tabStyle.Render(text)
}
