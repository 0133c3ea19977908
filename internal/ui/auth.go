package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/haryoiro/vidstream/internal/router"
	"github.com/haryoiro/vidstream/internal/structures"
)

type authState struct {
	signUp     bool
	submitting bool
	signIn     *form
	register   *form
}

func newAuthState() authState {
	return authState{
		signIn: newForm(
			textField("email", "Email", true),
			secretField("password", "Password"),
		),
		register: newForm(
			textField("name", "Name", true),
			textField("email", "Email", true),
			secretField("password", "Password"),
		),
	}
}

// active returns the form of the current mode
func (a *authState) active() *form {
	if a.signUp {
		return a.register
	}
	return a.signIn
}

func (a *authState) toggle() {
	a.signUp = !a.signUp
	a.active().focus = 0
}

func (m *Model) handleAuthKey(msg tea.KeyMsg, key string) tea.Cmd {
	kb := m.config.KeyBindings
	f := m.auth.active()

	switch {
	case contains(kb.Back, key):
		m.clearStatus()
		return m.back()
	case isKey(key, kb.ToggleAuth):
		m.auth.toggle()
		m.clearStatus()
		return nil
	case contains(kb.Select, key):
		return m.submitAuth()
	}

	m.editForm(f, msg, key)
	return nil
}

func (m *Model) submitAuth() tea.Cmd {
	if m.auth.submitting {
		return nil
	}

	f := m.auth.active()
	if missing := f.missing(); len(missing) > 0 {
		m.status = "Please fill in " + strings.Join(missing, ", ")
		m.statusError = true
		return nil
	}

	m.auth.submitting = true
	m.setStatus("Signing in…")

	session := m.systems.Session
	if m.auth.signUp {
		profile := structures.Profile{
			Name:     f.value("name"),
			Email:    f.value("email"),
			Password: f.raw("password"),
		}
		return func() tea.Msg {
			identity, err := session.SignUp(context.Background(), profile)
			return authDoneMsg{identity: identity, err: err}
		}
	}

	creds := structures.Credentials{
		Email:    f.value("email"),
		Password: f.raw("password"),
	}
	return func() tea.Msg {
		identity, err := session.SignIn(context.Background(), creds)
		return authDoneMsg{identity: identity, err: err}
	}
}

func (m *Model) handleAuthDone(msg authDoneMsg) (tea.Model, tea.Cmd) {
	m.auth.submitting = false

	if msg.err != nil {
		m.setError(msg.err)
		m.auth.active().set("password", "")
		return m, nil
	}

	m.auth.signIn.reset()
	m.auth.register.reset()
	m.setStatus(fmt.Sprintf("Welcome, %s", msg.identity.Name))

	if m.router.Current() != router.Auth {
		return m, nil
	}
	m.router.Reset(router.FeedPath, true)
	return m, m.navigate(router.DashboardPath)
}

func (m *Model) renderAuth(width, height int) string {
	var b strings.Builder

	title := "Sign in"
	other := "No account? " + m.config.KeyBindings.ToggleAuth + " to sign up"
	if m.auth.signUp {
		title = "Create account"
		other = "Have an account? " + m.config.KeyBindings.ToggleAuth + " to sign in"
	}

	b.WriteString(m.themeManager.RenderAccent(title))
	b.WriteString("\n\n")
	b.WriteString(m.renderForm(m.auth.active(), width))
	b.WriteString("\n")
	b.WriteString(m.themeManager.RenderSubtitle(truncate(other, width)))
	b.WriteString("\n")
	b.WriteString(m.themeManager.RenderSubtitle(truncate("esc back to home", width)))

	return b.String()
}
