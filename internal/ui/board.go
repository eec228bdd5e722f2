package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/backoffice/internal/api"
	"github.com/five82/backoffice/internal/appointments"
	"github.com/five82/backoffice/internal/state"
)

// handleBoardKey processes keyboard input for the appointment board.
func (m Model) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.snapshot.Data.Items

	switch {
	case key.Matches(msg, m.keys.PrevDay):
		return m.applyFilter(m.filter.Shift(-1))
	case key.Matches(msg, m.keys.NextDay):
		return m.applyFilter(m.filter.Shift(1))
	case key.Matches(msg, m.keys.Today):
		return m.applyFilter(appointments.Day(m.now(), m.filter.Status))
	case key.Matches(msg, m.keys.CycleStatus):
		f := m.filter
		f.Status = f.Status.Next()
		m.prefs.LastStatus = string(f.Status)
		m.savePrefs()
		return m.applyFilter(f)
	case key.Matches(msg, m.keys.Reload):
		return m, m.listCmd(m.filter)
	case key.Matches(msg, m.keys.New):
		if !m.snapshot.HasData && m.snapshot.LastError == nil {
			m.setNotice("Aguarde a agenda carregar para criar um agendamento.", true)
			return m, nil
		}
		m.create = newCreateForm()
		m.screen = screenCreate
		return m, m.create.focus()
	case key.Matches(msg, m.keys.Down):
		if m.selectedRow < len(items)-1 {
			m.selectedRow++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case key.Matches(msg, m.keys.Top):
		m.selectedRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selectedRow = maxInt(len(items)-1, 0)
	}
	return m, nil
}

// applyFilter switches the board to f and starts listing it. The previous
// list, if still running, is superseded.
func (m Model) applyFilter(f appointments.Filter) (tea.Model, tea.Cmd) {
	m.filter = f
	m.selectedRow = 0
	m.setNotice("", false)
	return m, m.listCmd(f)
}

func (m *Model) clampSelection() {
	n := len(m.snapshot.Data.Items)
	if m.selectedRow >= n {
		m.selectedRow = maxInt(n-1, 0)
	}
}

// renderBoard renders the header, summary, table and footer.
func (m Model) renderBoard() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderSummary())
	b.WriteString("\n\n")
	b.WriteString(m.renderTable())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	parts := []string{
		bg.Render("backoffice", styles.Logo),
		bg.Render(m.filter.Date.Format("Mon 02/01/2006"), styles.Text.Bold(true)),
		bg.Render("Status: "+m.filter.Status.Label(), styles.AccentText),
	}
	switch m.snapshot.Phase {
	case state.PhaseLoading:
		parts = append(parts, bg.Render(m.spinner.View()+" carregando", styles.MutedText))
	case state.PhaseFailed:
		if m.snapshot.IsOffline() {
			parts = append(parts, bg.Render("sem conexão", styles.DangerText))
		} else {
			parts = append(parts, bg.Render("falhou", styles.WarningText))
		}
	}
	if !m.snapshot.LastUpdated.IsZero() {
		parts = append(parts, bg.Render("atualizado "+m.snapshot.LastUpdated.Format("15:04:05"), styles.FaintText))
	}
	if m.client != nil {
		if s := m.client.Store().Get(); s.UserID != "" {
			parts = append(parts, bg.Render("usuário "+s.UserID, styles.FaintText))
		}
	}
	return bg.FillLine(bg.Join(parts, " │ "), m.width)
}

func (m Model) renderSummary() string {
	styles := m.theme.Styles()
	sum := m.snapshot.Data.Summary
	shown := m.snapshot.Data.Filter
	if !m.snapshot.HasData {
		return styles.MutedText.Render("Nenhum dado carregado ainda.")
	}

	line := fmt.Sprintf("%s %d   %s %d   %s %s",
		styles.MutedText.Render("Agendamentos"), sum.TotalCount,
		styles.MutedText.Render("Concluídos"), sum.CompletedCount,
		styles.MutedText.Render("Faturamento"), styles.SuccessText.Render(formatBRL(sum.CompletedRevenue)),
	)
	if !shown.Equal(m.filter) {
		line += "  " + styles.FaintText.Render("(exibindo "+shown.DateString()+")")
	}
	return line
}

// tableColumn defines a column in the appointment table.
type tableColumn struct {
	title string
	width int
}

func (m Model) columns() []tableColumn {
	cols := []tableColumn{
		{"Hora", 6},
		{"Cliente", 20},
		{"Profissional", 16},
		{"Serviços", 24},
		{"Status", 14},
		{"Valor", 12},
	}
	if m.width > 0 && m.width < LayoutCompactWidth {
		// Drop the professional and services columns on narrow terminals.
		cols = []tableColumn{cols[0], cols[1], cols[4], cols[5]}
	}
	return cols
}

func (m Model) renderTable() string {
	styles := m.theme.Styles()
	cols := m.columns()
	items := m.snapshot.Data.Items

	var b strings.Builder
	header := make([]string, 0, len(cols))
	for _, c := range cols {
		header = append(header, padRight(c.title, c.width))
	}
	b.WriteString(styles.MutedText.Bold(true).Render(strings.Join(header, " ")))
	b.WriteString("\n")

	if len(items) == 0 {
		if m.snapshot.HasData {
			b.WriteString(styles.FaintText.Render("Nenhum agendamento para este filtro."))
		}
		b.WriteString("\n")
		return b.String()
	}

	for i, item := range items {
		row := m.renderRow(item, cols)
		if i == m.selectedRow {
			row = styles.Selected.Render(row)
		}
		b.WriteString(row)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderRow(item appointments.Appointment, cols []tableColumn) string {
	styles := m.theme.Styles()
	cells := make([]string, 0, len(cols))
	for _, c := range cols {
		var cell string
		switch c.title {
		case "Hora":
			cell = padRight(item.ScheduledAt.Local().Format("15:04"), c.width)
		case "Cliente":
			cell = padRight(truncate(orDash(item.ClientName), c.width), c.width)
		case "Profissional":
			cell = padRight(truncate(orDash(item.ProfessionalName), c.width), c.width)
		case "Serviços":
			cell = padRight(truncate(orDash(strings.Join(item.ServiceNames, ", ")), c.width), c.width)
		case "Status":
			label := truncate(item.Status.Label(), c.width-2)
			cell = styles.StatusStyle(string(item.Status)).Render(label)
			cell += strings.Repeat(" ", maxInt(c.width-lipgloss.Width(cell), 0))
		case "Valor":
			cell = fmt.Sprintf("%*s", c.width, formatBRL(item.PricePaid))
		}
		cells = append(cells, cell)
	}
	return strings.Join(cells, " ")
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	var b strings.Builder
	if m.notice != "" {
		if m.noticeIsErr {
			b.WriteString(styles.DangerText.Render(m.notice))
		} else {
			b.WriteString(styles.SuccessText.Render(m.notice))
		}
		b.WriteString("\n")
	} else if err := m.snapshot.LastError; err != nil {
		b.WriteString(styles.WarningText.Render(api.UserMessage(err)))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
