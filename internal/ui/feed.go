package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/haryoiro/vidstream/internal/router"
	"github.com/haryoiro/vidstream/internal/structures"
)

// detail line count under the feed list, including the separator
const feedDetailLines = 4

type feedState struct {
	list      listState
	searching bool
	query     string
}

func (m *Model) loadFeed() tea.Cmd {
	collection := m.systems.Collection
	return func() tea.Msg {
		_, err := collection.LoadPublicFeed(context.Background())
		return feedLoadedMsg{err: err}
	}
}

// visibleFeed is the public feed narrowed by the search query
func (m *Model) visibleFeed() []structures.Video {
	return m.systems.Collection.Search(m.feed.query)
}

func (m *Model) handleFeedKey(msg tea.KeyMsg, key string) tea.Cmd {
	kb := m.config.KeyBindings
	videos := m.visibleFeed()
	visible := m.listHeight(feedDetailLines + 1)

	if m.feed.searching {
		switch {
		case contains(kb.Select, key):
			m.feed.searching = false
		case contains(kb.Back, key):
			m.feed.searching = false
			m.feed.query = ""
			m.feed.list.jumpTop()
		case msg.Type == tea.KeyBackspace:
			if q := []rune(m.feed.query); len(q) > 0 {
				m.feed.query = string(q[:len(q)-1])
				m.feed.list.jumpTop()
			}
		default:
			if text, ok := typedText(msg); ok {
				m.feed.query += text
				m.feed.list.jumpTop()
				return nil
			}
			m.handleListKey(&m.feed.list, key, len(videos), visible)
		}
		return nil
	}

	if m.handleListKey(&m.feed.list, key, len(videos), visible) {
		return nil
	}

	switch {
	case isKey(key, kb.Search):
		m.feed.searching = true
		m.clearStatus()
	case contains(kb.Back, key):
		if m.feed.query != "" {
			m.feed.query = ""
			m.feed.list.jumpTop()
		}
	case isKey(key, kb.Refresh):
		if m.refreshAllowed(router.Feed) {
			m.clearStatus()
			return m.loadFeed()
		}
	case isKey(key, kb.Auth):
		m.clearStatus()
		return m.navigate(router.AuthPath)
	case isKey(key, kb.Dashboard):
		m.clearStatus()
		return m.navigate(router.DashboardPath)
	}
	return nil
}

func (m *Model) renderFeed(width, height int) string {
	videos := m.visibleFeed()

	var b strings.Builder

	heading := fmt.Sprintf("Public feed · %d videos", len(videos))
	if m.feed.searching {
		heading = "Search: " + m.feed.query + "▏"
	} else if m.feed.query != "" {
		heading = fmt.Sprintf("Public feed · %d matching %q", len(videos), m.feed.query)
	}
	b.WriteString(m.themeManager.RenderAccent(truncate(heading, width)))
	b.WriteString("\n")

	visible := max(height-1-feedDetailLines, 1)
	if len(videos) == 0 {
		empty := "No videos yet"
		if m.feed.query != "" {
			empty = "No videos match your search"
		}
		b.WriteString(m.themeManager.RenderSubtitle(empty))
		return b.String()
	}

	start, end := m.feed.list.window(len(videos), visible)
	for i := start; i < end; i++ {
		b.WriteString(m.renderVideoRow(videos[i], i == m.feed.list.selected, width))
		b.WriteString("\n")
	}

	b.WriteString(m.renderVideoDetail(videos[m.feed.list.selected], width))
	return b.String()
}

func (m *Model) renderVideoRow(v structures.Video, selected bool, width int) string {
	prefix := "  "
	if selected {
		prefix = "> "
	}

	text := singleLine(v.Title)
	if desc := singleLine(v.Description); desc != "" {
		text += " · " + desc
	}
	if m.systems.Collection.IsOwned(v.ID) {
		text += " · yours"
	}

	row := prefix + padRight(text, max(width-cursorWidth, 0))
	if selected {
		return m.themeManager.RenderSelected(row)
	}
	return m.themeManager.RenderBase(row)
}

func (m *Model) renderVideoDetail(v structures.Video, width int) string {
	lines := []string{
		strings.Repeat("─", width),
		m.themeManager.RenderTitle(truncate(singleLine(v.Title), width)),
		m.themeManager.RenderSubtitle(truncate("media: "+orNone(v.MediaRef), width)),
		m.themeManager.RenderSubtitle(truncate("thumbnail: "+orNone(v.ThumbnailRef), width)),
	}
	return strings.Join(lines, "\n")
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
