package ui

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

const ellipsis = "…"

// Pre-calculated width of the list cursor
var cursorWidth = runewidth.StringWidth("> ")

// truncate shortens s to at most width terminal cells
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, ellipsis)
}

// padRight fills s with spaces up to width cells
func padRight(s string, width int) string {
	return runewidth.FillRight(truncate(s, width), width)
}

// singleLine collapses newlines so list rows stay one line tall
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// maskPassword hides every rune of s
func maskPassword(s string) string {
	return strings.Repeat("•", utf8.RuneCountInString(s))
}
