package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/bundlectl/internal/logtail"
)

// clientLogLines is how much of the client log file the log view loads.
const clientLogLines = 400

type clientLogMsg struct {
	lines []string
	err   error
}

func readClientLogCmd(path string) tea.Cmd {
	return func() tea.Msg {
		lines, err := logtail.Read(path, clientLogLines)
		return clientLogMsg{lines: lines, err: err}
	}
}

// refreshLogViewport re-renders the generation log when the buffer changed.
func (m *Model) refreshLogViewport() {
	logs := m.console.Logs()
	version := logs.Version()
	if version == m.logVersion && m.logVersion != 0 {
		return
	}
	m.logVersion = version
	m.logViewport.SetContent(m.colorizeLog(logs.Text()))
	if m.logFollow {
		m.logViewport.GotoBottom()
	}
}

// colorizeLog styles each server log line by its severity.
func (m Model) colorizeLog(text string) string {
	if text == "" {
		return ""
	}
	styles := m.theme.Styles()
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = styles.LevelStyle(logtail.Classify(line)).Render(line)
	}
	return strings.Join(lines, "\n")
}

// renderLogPanel renders the live generation log box.
func (m Model) renderLogPanel(focused bool) string {
	title := "Generation log"
	if !m.console.CanSubmit() {
		title = fmt.Sprintf("Generation log %s", m.spinner.View())
	}
	if !m.logFollow {
		title += " (paused)"
	}

	var content string
	if m.console.Logs().Len() == 0 {
		content = m.theme.Styles().FaintText.Render("Output from the next generation appears here.")
	} else {
		content = m.logViewport.View()
	}
	return m.renderTitledBox(title, content, m.width, m.logPanelHeight(), focused)
}

func (m *Model) updateClientViewport() {
	styles := m.theme.Styles()
	switch {
	case m.clientErr != nil:
		m.clientViewport.SetContent(styles.DangerText.Render(m.clientErr.Error()))
		return
	case len(m.clientLines) == 0:
		m.clientViewport.SetContent(styles.FaintText.Render("No client log entries."))
		return
	}

	follow := m.clientViewport.AtBottom() || m.clientViewport.TotalLineCount() == 0
	lines := make([]string, len(m.clientLines))
	for i, line := range m.clientLines {
		lines[i] = styles.LevelStyle(logtail.Classify(line)).Render(line)
	}
	m.clientViewport.SetContent(strings.Join(lines, "\n"))
	if follow {
		m.clientViewport.GotoBottom()
	}
}

func (m *Model) handleClientLogKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Top):
		m.clientViewport.GotoTop()
		return nil
	case key.Matches(msg, m.keys.Bottom):
		m.clientViewport.GotoBottom()
		return nil
	case key.Matches(msg, m.keys.Refresh):
		return readClientLogCmd(m.config.LogFile)
	}

	var cmd tea.Cmd
	m.clientViewport, cmd = m.clientViewport.Update(msg)
	return cmd
}

// renderClientLog renders this client's own log file.
func (m Model) renderClientLog() string {
	title := "Client log"
	if m.config.LogFile != "" {
		title += " " + truncateMiddle(m.config.LogFile, maxInt(m.width/2, 20))
	}
	return m.renderTitledBox(title, m.clientViewport.View(), m.width, m.contentHeight(), true)
}
