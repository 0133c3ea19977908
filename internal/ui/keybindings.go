package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/haryoiro/vidstream/internal/logger"
	"github.com/haryoiro/vidstream/internal/router"
)

// contains reports whether key is one of the configured bindings
func contains(bindings []string, key string) bool {
	for _, binding := range bindings {
		if binding == key {
			return true
		}
	}
	return false
}

// isKey checks if the pressed key matches a single configured binding
func isKey(key, binding string) bool {
	return binding != "" && key == binding
}

// handleKeyPress processes keyboard input and delegates to the active screen
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	kb := m.config.KeyBindings
	key := getKeyString(msg)

	logger.Debug("Key event: type=%d, string=%s, runes=%v", msg.Type, key, msg.Runes)

	// Global quit (always processed)
	if contains(kb.Quit, key) {
		return m, tea.Quit
	}

	var cmd tea.Cmd
	switch m.router.Current() {
	case router.Auth:
		cmd = m.handleAuthKey(msg, key)
	case router.Dashboard:
		cmd = m.handleDashboardKey(msg, key)
	default:
		cmd = m.handleFeedKey(msg, key)
	}
	return m, cmd
}

// editForm applies text-editing keys to f. It reports whether the key was
// consumed.
func (m *Model) editForm(f *form, msg tea.KeyMsg, key string) bool {
	kb := m.config.KeyBindings
	switch {
	case contains(kb.NextField, key):
		f.focusNext()
	case contains(kb.PrevField, key):
		f.focusPrev()
	case msg.Type == tea.KeyBackspace:
		f.backspace()
	default:
		text, ok := typedText(msg)
		if !ok {
			return false
		}
		f.insert(text)
	}
	return true
}

// refreshAllowed debounces a held refresh key
func (m *Model) refreshAllowed(screen router.Screen) bool {
	return m.keyDebouncer.ShouldProcess("refresh:" + screen.String())
}
