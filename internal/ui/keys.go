package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the board.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Escape     key.Binding

	// View switching
	ViewBoard key.Binding
	ViewLogs  key.Binding

	// Board actions
	PrevDay     key.Binding
	NextDay     key.Binding
	Today       key.Binding
	CycleStatus key.Binding
	Reload      key.Binding
	New         key.Binding
	Logout      key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Forms
	NextField key.Binding
	PrevField key.Binding
	Confirm   key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Sair"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Ajuda"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Trocar tema"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Voltar"),
		),

		ViewBoard: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Agenda"),
		),
		ViewLogs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Logs"),
		),

		PrevDay: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "Dia anterior"),
		),
		NextDay: key.NewBinding(
			key.WithKeys("right", "L"),
			key.WithHelp("→/L", "Próximo dia"),
		),
		Today: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "Hoje"),
		),
		CycleStatus: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Filtrar status"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Recarregar"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Novo agendamento"),
		),
		Logout: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "Sair da conta"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "Subir"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "Descer"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Início"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Fim"),
		),

		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "Próximo campo"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "Campo anterior"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirmar"),
		),
	}
}

// ShortHelp returns key bindings for the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevDay, k.NextDay, k.CycleStatus, k.New, k.Reload, k.Help, k.Quit}
}

// FullHelp returns key bindings for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ViewBoard, k.ViewLogs, k.Escape},
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.PrevDay, k.NextDay, k.Today, k.CycleStatus},
		{k.New, k.Reload, k.Logout},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
