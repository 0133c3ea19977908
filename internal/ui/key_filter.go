package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// getKeyString converts a tea.KeyMsg to the identifier used by key bindings
func getKeyString(msg tea.KeyMsg) string {
	switch msg.Type {
	case tea.KeySpace:
		return "space"
	case tea.KeyRunes:
		if msg.Alt {
			return "alt+" + string(msg.Runes)
		}
		return string(msg.Runes)
	default:
		return msg.String()
	}
}

// typedText returns the characters a key inserts into a text field
func typedText(msg tea.KeyMsg) (string, bool) {
	switch msg.Type {
	case tea.KeySpace:
		return " ", true
	case tea.KeyRunes:
		if msg.Alt || len(msg.Runes) == 0 {
			return "", false
		}
		// Filter out escape sequences that reach us as runes
		for _, r := range msg.Runes {
			if r < 0x20 || r == 0x7f {
				return "", false
			}
		}
		return string(msg.Runes), true
	}
	return "", false
}
