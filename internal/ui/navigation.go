package ui

// listState is the cursor and scroll position of a vertical list
type listState struct {
	selected int
	offset   int
}

func (l *listState) moveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

func (l *listState) moveDown(n int) {
	if l.selected < n-1 {
		l.selected++
	}
}

func (l *listState) jumpTop() {
	l.selected = 0
	l.offset = 0
}

func (l *listState) jumpBottom(n int) {
	l.selected = max(n-1, 0)
}

func (l *listState) pageUp(visible int) {
	l.selected = max(l.selected-max(visible, 1), 0)
}

func (l *listState) pageDown(n, visible int) {
	l.selected = min(l.selected+max(visible, 1), max(n-1, 0))
}

// clamp keeps the cursor inside a list of n items
func (l *listState) clamp(n int) {
	if l.selected >= n {
		l.selected = max(n-1, 0)
	}
	if l.selected < 0 {
		l.selected = 0
	}
}

// window adjusts the scroll offset so the cursor is visible and returns
// the half-open range of rows to draw
func (l *listState) window(n, visible int) (int, int) {
	if visible <= 0 || n == 0 {
		return 0, 0
	}
	l.clamp(n)

	if l.selected < l.offset {
		l.offset = l.selected
	}
	if l.selected >= l.offset+visible {
		l.offset = l.selected - visible + 1
	}
	if maxOffset := max(n-visible, 0); l.offset > maxOffset {
		l.offset = maxOffset
	}

	return l.offset, min(l.offset+visible, n)
}

// handleListKey applies the shared list navigation keys. It reports whether
// the key was consumed.
func (m *Model) handleListKey(l *listState, key string, n, visible int) bool {
	kb := m.config.KeyBindings
	switch {
	case contains(kb.MoveUp, key):
		l.moveUp()
	case contains(kb.MoveDown, key):
		l.moveDown(n)
	case key == "home" || key == "g":
		l.jumpTop()
	case key == "end" || key == "G":
		l.jumpBottom(n)
	case key == "pgup" || key == "ctrl+b":
		l.pageUp(visible)
	case key == "pgdown" || key == "ctrl+f":
		l.pageDown(n, visible)
	default:
		return false
	}
	return true
}

// listHeight is the number of rows available to a list on the current
// terminal, after the border, header and footer
func (m *Model) listHeight(reserved int) int {
	return max(m.height-2-1-2-reserved, 1)
}
