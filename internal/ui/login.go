package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// loginForm collects the credentials for the login exchange.
type loginForm struct {
	email      textinput.Model
	password   textinput.Model
	focused    int // 0 = email, 1 = password
	submitting bool
	err        string
}

func newLoginForm(lastEmail string) loginForm {
	email := textinput.New()
	email.Placeholder = "voce@empresa.com"
	email.Prompt = ""
	email.CharLimit = 254
	email.SetValue(lastEmail)

	password := textinput.New()
	password.Placeholder = "senha"
	password.Prompt = ""
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	f := loginForm{email: email, password: password}
	if strings.TrimSpace(lastEmail) != "" {
		f.focused = 1
	}
	return f
}

// focus focuses the active field and blurs the other.
func (f *loginForm) focus() tea.Cmd {
	if f.focused == 0 {
		f.password.Blur()
		return f.email.Focus()
	}
	f.email.Blur()
	return f.password.Focus()
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.login.submitting {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.NextField), key.Matches(msg, m.keys.PrevField):
		m.login.focused = 1 - m.login.focused
		return m, m.login.focus()

	case key.Matches(msg, m.keys.Confirm):
		if m.login.focused == 0 {
			m.login.focused = 1
			return m, m.login.focus()
		}
		m.login.submitting = true
		m.login.err = ""
		return m, m.loginCmd(m.login.email.Value(), m.login.password.Value())
	}

	var cmd tea.Cmd
	if m.login.focused == 0 {
		m.login.email, cmd = m.login.email.Update(msg)
	} else {
		m.login.password, cmd = m.login.password.Update(msg)
	}
	return m, cmd
}

func (m Model) loginCmd(email, password string) tea.Cmd {
	client, ctx := m.client, m.ctx
	if client == nil {
		return nil
	}
	return func() tea.Msg {
		_, err := client.Login(ctx, email, password)
		return loginResultMsg{err: err}
	}
}

func (m Model) renderLogin() string {
	styles := m.theme.Styles()

	label := func(text string, focused bool) string {
		if focused {
			return styles.AccentText.Bold(true).Render(text)
		}
		return styles.MutedText.Render(text)
	}

	var b strings.Builder
	b.WriteString(styles.Logo.Render("backoffice"))
	b.WriteString("\n\n")
	b.WriteString(label("E-mail", m.login.focused == 0))
	b.WriteString("\n")
	b.WriteString(m.login.email.View())
	b.WriteString("\n\n")
	b.WriteString(label("Senha", m.login.focused == 1))
	b.WriteString("\n")
	b.WriteString(m.login.password.View())
	b.WriteString("\n\n")

	switch {
	case m.login.submitting:
		b.WriteString(m.spinner.View() + " " + styles.MutedText.Render("Entrando..."))
	case m.login.err != "":
		b.WriteString(styles.DangerText.Render(m.login.err))
	default:
		b.WriteString(styles.FaintText.Render("enter para entrar · tab troca de campo · ctrl+c sai"))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		Padding(1, 3).
		Width(48).
		Render(b.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
