package ui

import (
	"strings"
	"unicode/utf8"
)

// field is a single-line text input
type field struct {
	key      string
	label    string
	value    string
	secret   bool
	required bool
}

// form is an ordered set of fields with one focused field
type form struct {
	fields []*field
	focus  int
}

func newForm(fields ...*field) *form {
	return &form{fields: fields}
}

func textField(key, label string, required bool) *field {
	return &field{key: key, label: label, required: required}
}

func secretField(key, label string) *field {
	return &field{key: key, label: label, secret: true, required: true}
}

// focusNext moves focus forward, wrapping around
func (f *form) focusNext() {
	if len(f.fields) > 0 {
		f.focus = (f.focus + 1) % len(f.fields)
	}
}

// focusPrev moves focus backward, wrapping around
func (f *form) focusPrev() {
	if len(f.fields) > 0 {
		f.focus = (f.focus - 1 + len(f.fields)) % len(f.fields)
	}
}

func (f *form) focused() *field {
	if f.focus < 0 || f.focus >= len(f.fields) {
		return nil
	}
	return f.fields[f.focus]
}

func (f *form) insert(s string) {
	if fd := f.focused(); fd != nil {
		fd.value += s
	}
}

func (f *form) backspace() {
	fd := f.focused()
	if fd == nil || fd.value == "" {
		return
	}
	_, size := utf8.DecodeLastRuneInString(fd.value)
	fd.value = fd.value[:len(fd.value)-size]
}

func (f *form) get(key string) *field {
	for _, fd := range f.fields {
		if fd.key == key {
			return fd
		}
	}
	return nil
}

// value returns the trimmed value of key, or "" for unknown keys
func (f *form) value(key string) string {
	if fd := f.get(key); fd != nil {
		return strings.TrimSpace(fd.value)
	}
	return ""
}

// raw returns the value of key as typed
func (f *form) raw(key string) string {
	if fd := f.get(key); fd != nil {
		return fd.value
	}
	return ""
}

func (f *form) set(key, value string) {
	if fd := f.get(key); fd != nil {
		fd.value = value
	}
}

// missing lists the labels of required fields left empty
func (f *form) missing() []string {
	var labels []string
	for _, fd := range f.fields {
		if fd.required && strings.TrimSpace(fd.value) == "" {
			labels = append(labels, fd.label)
		}
	}
	return labels
}

func (f *form) reset() {
	for _, fd := range f.fields {
		fd.value = ""
	}
	f.focus = 0
}

// renderForm draws one "label: value" line per field, marking the focused one
func (m *Model) renderForm(f *form, width int) string {
	labelWidth := 0
	for _, fd := range f.fields {
		labelWidth = max(labelWidth, len(fd.label))
	}

	lines := make([]string, 0, len(f.fields))
	for i, fd := range f.fields {
		value := fd.value
		if fd.secret {
			value = maskPassword(value)
		}

		prefix := "  "
		if i == f.focus {
			prefix = "> "
			value += "▏"
		}

		label := padRight(fd.label, labelWidth)
		line := truncate(prefix+label+"  "+value, width)
		if i == f.focus {
			lines = append(lines, m.themeManager.RenderSelected(line))
		} else {
			lines = append(lines, m.themeManager.RenderBase(line))
		}
	}
	return strings.Join(lines, "\n")
}
