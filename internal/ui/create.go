package ui

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/backoffice/internal/api"
	"github.com/five82/backoffice/internal/appointments"
)

// Create form fields, in tab order.
const (
	fieldClient = iota
	fieldProfessional
	fieldServices
	fieldTime
	fieldPrice
	fieldPayment
	fieldStatus
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Cliente (id)",
	"Profissional (id)",
	"Serviços (ids separados por vírgula)",
	"Horário (HH:MM)",
	"Valor (R$)",
	"Forma de pagamento",
	"Status (agendado, em_andamento, concluido)",
}

// createForm collects a new appointment.
type createForm struct {
	inputs     [fieldCount]textinput.Model
	focused    int
	submitting bool
	err        string
}

func newCreateForm() createForm {
	var f createForm
	for i := range f.inputs {
		in := textinput.New()
		in.Prompt = "› "
		in.CharLimit = 64
		f.inputs[i] = in
	}
	f.inputs[fieldPayment].Placeholder = "pix"
	f.inputs[fieldStatus].Placeholder = string(appointments.StatusScheduled)
	f.inputs[fieldTime].Placeholder = "09:30"
	return f
}

func (f *createForm) focus() tea.Cmd {
	var cmd tea.Cmd
	for i := range f.inputs {
		if i == f.focused {
			cmd = f.inputs[i].Focus()
			continue
		}
		f.inputs[i].Blur()
	}
	return cmd
}

func (f createForm) value(field int) string {
	return strings.TrimSpace(f.inputs[field].Value())
}

// draft turns the form into a Draft for day. Malformed numbers become
// values that fail Draft.Validate with the matching field message.
func (f createForm) draft(day time.Time) (appointments.Draft, error) {
	d := appointments.Draft{
		ClientID:       parseID(f.value(fieldClient)),
		ProfessionalID: parseID(f.value(fieldProfessional)),
		ServiceIDs:     parseIDs(f.value(fieldServices)),
		PaymentType:    f.value(fieldPayment),
		Price:          parsePrice(f.value(fieldPrice)),
		Status:         appointments.Status(f.value(fieldStatus)),
	}
	if raw := f.value(fieldTime); raw != "" {
		clock, err := time.Parse("15:04", raw)
		if err != nil {
			return d, api.Validation("Horário inválido. Use HH:MM.")
		}
		y, mo, dd := day.Date()
		d.ScheduledAt = time.Date(y, mo, dd, clock.Hour(), clock.Minute(), 0, 0, day.Location())
	}
	return d, d.Validate()
}

func parseID(raw string) int64 {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func parseIDs(raw string) []int64 {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' || r == ';' })
	ids := make([]int64, 0, len(fields))
	for _, field := range fields {
		ids = append(ids, parseID(field))
	}
	return ids
}

// parsePrice accepts 50, 50.5 and 50,50. Blank is zero; anything else is NaN.
func parsePrice(raw string) float64 {
	if raw == "" {
		return 0
	}
	normalized := raw
	if strings.Contains(raw, ",") {
		normalized = strings.ReplaceAll(strings.ReplaceAll(raw, ".", ""), ",", ".")
	}
	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func (m Model) handleCreateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.create.submitting {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Escape):
		m.screen = screenBoard
		return m, nil

	case key.Matches(msg, m.keys.NextField):
		m.create.focused = (m.create.focused + 1) % fieldCount
		return m, m.create.focus()

	case key.Matches(msg, m.keys.PrevField):
		m.create.focused = (m.create.focused + fieldCount - 1) % fieldCount
		return m, m.create.focus()

	case key.Matches(msg, m.keys.Confirm):
		if m.create.focused < fieldCount-1 {
			m.create.focused++
			return m, m.create.focus()
		}
		draft, err := m.create.draft(m.filter.Date)
		if err != nil {
			m.create.err = api.UserMessage(err)
			return m, nil
		}
		m.create.submitting = true
		m.create.err = ""
		return m, m.createCmd(draft)
	}

	var cmd tea.Cmd
	m.create.inputs[m.create.focused], cmd = m.create.inputs[m.create.focused].Update(msg)
	return m, cmd
}

func (m Model) createCmd(d appointments.Draft) tea.Cmd {
	svc, ctx := m.svc, m.ctx
	if svc == nil {
		return nil
	}
	return func() tea.Msg {
		created, err := svc.Create(ctx, d)
		return createResultMsg{appointment: created, err: err}
	}
}

func (m Model) renderCreate() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Novo agendamento · " + m.filter.Date.Format("02/01/2006")))
	b.WriteString("\n\n")
	for i := range m.create.inputs {
		label := styles.MutedText.Render(fieldLabels[i])
		if i == m.create.focused {
			label = styles.Text.Bold(true).Render(fieldLabels[i])
		}
		b.WriteString(label)
		b.WriteString("\n")
		b.WriteString(m.create.inputs[i].View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	switch {
	case m.create.submitting:
		b.WriteString(m.spinner.View() + " " + styles.MutedText.Render("Salvando..."))
	case m.create.err != "":
		b.WriteString(styles.DangerText.Render(m.create.err))
	default:
		b.WriteString(styles.FaintText.Render("enter avança/salva · tab troca de campo · esc cancela"))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(60).
		Render(b.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
