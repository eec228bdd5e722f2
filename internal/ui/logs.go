package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/backoffice/internal/logtail"
)

// logsCmd reads the tail of the client log file.
func (m Model) logsCmd() tea.Cmd {
	path := m.logPath
	if path == "" {
		return func() tea.Msg {
			return logsMsg{lines: []string{"Nenhum arquivo de log configurado."}}
		}
	}
	return func() tea.Msg {
		records, err := logtail.ReadRecords(path, LogTailLimit)
		if err != nil {
			return logsMsg{lines: []string{fmt.Sprintf("Erro ao ler %s: %v", path, err)}}
		}
		lines := make([]string, 0, len(records))
		for _, rec := range records {
			lines = append(lines, rec.String())
		}
		return logsMsg{lines: lines}
	}
}

func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Background)

	title := styles.AccentText.Bold(true).Render("Logs")
	path := styles.MutedText.Render(truncate(m.logPath, maxInt(m.width-20, 10)))
	count := styles.FaintText.Render(fmt.Sprintf("%d linhas", len(m.logLines)))
	header := bg.FillLine(bg.Join([]string{title, path, count}, " │ "), m.width)

	footer := styles.FaintText.Render("a agenda · ↑/↓ rolar · ? ajuda · q sair")

	return strings.Join([]string{header, "", m.logViewport.View(), footer}, "\n")
}
