package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/bundlectl/internal/bundlegen"
	"github.com/five82/bundlectl/internal/state"
)

const bundleDateLayout = "2006-01-02 15:04:05"

func newBundleTable(theme Theme) table.Model {
	t := table.New(
		table.WithColumns(bundleColumns(100)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(tableStyles(theme))
	return t
}

func tableStyles(theme Theme) table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(theme.BorderMuted)).
		BorderBottom(true).
		Foreground(lipgloss.Color(theme.Muted)).
		Bold(true)
	s.Cell = s.Cell.Foreground(lipgloss.Color(theme.Text))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(theme.SelectionText)).
		Background(lipgloss.Color(theme.SelectionBg)).
		Bold(false)
	return s
}

// bundleColumns splits width between the four columns. The command column
// takes whatever the fixed ones leave.
func bundleColumns(width int) []table.Column {
	const (
		dateWidth = 19
		sizeWidth = 10
		padding   = 8
	)
	nameWidth := 32
	if width < LayoutCompactWidth {
		nameWidth = 24
	}
	cmdWidth := maxInt(width-dateWidth-sizeWidth-nameWidth-padding, 10)
	return []table.Column{
		{Title: "Date", Width: dateWidth},
		{Title: "Name", Width: nameWidth},
		{Title: "Command", Width: cmdWidth},
		{Title: "Size", Width: sizeWidth},
	}
}

// setBundles replaces the table rows while keeping the selection on the same
// bundle when it is still listed.
func (m *Model) setBundles(snap state.Snapshot) {
	selected := m.selectedBundle()
	m.bundles = snap.Bundles

	rows := make([]table.Row, 0, len(snap.Bundles))
	cursor := 0
	for i, b := range snap.Bundles {
		rows = append(rows, bundleRow(b))
		if b.Name == selected {
			cursor = i
		}
	}
	m.table.SetRows(rows)
	if len(rows) > 0 {
		m.table.SetCursor(cursor)
	}
}

func bundleRow(b bundlegen.Bundle) table.Row {
	date := ""
	if !b.Date.IsZero() {
		date = b.Date.Local().Format(bundleDateLayout)
	}
	return table.Row{date, b.Name, b.Command, formatSize(b.SizeMB)}
}

// selectedBundle returns the name of the highlighted bundle, or "".
func (m Model) selectedBundle() string {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.bundles) {
		return ""
	}
	return m.bundles[idx].Name
}

func (m *Model) handleBundlesKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Refresh):
		m.status = "Refreshing..."
		return m.console.Refresh()

	case key.Matches(msg, m.keys.Delete):
		name := m.selectedBundle()
		if name == "" {
			return nil
		}
		c := m.console
		m.modal = confirmModal{
			prompt: fmt.Sprintf("Delete bundle %q?", name),
			onConfirm: func() tea.Cmd {
				return c.Delete(name)
			},
		}
		return nil

	case key.Matches(msg, m.keys.Download):
		name := m.selectedBundle()
		if name == "" || m.downloader == nil {
			return nil
		}
		m.status = "Downloading " + name + "..."
		return downloadCmd(m.ctx, m.downloader, name, m.config.DownloadDir)

	case key.Matches(msg, m.keys.ToggleFollow):
		m.logFollow = !m.logFollow
		if m.logFollow {
			m.logViewport.GotoBottom()
		}
		return nil

	case key.Matches(msg, m.keys.PageUp):
		m.logFollow = false
		m.logViewport.PageUp()
		return nil
	case key.Matches(msg, m.keys.PageDown):
		m.logViewport.PageDown()
		return nil
	case key.Matches(msg, m.keys.HalfPageUp):
		m.logFollow = false
		m.logViewport.HalfPageUp()
		return nil
	case key.Matches(msg, m.keys.HalfPageDown):
		m.logViewport.HalfPageDown()
		return nil

	case key.Matches(msg, m.keys.Top):
		m.table.GotoTop()
		return nil
	case key.Matches(msg, m.keys.Bottom):
		m.table.GotoBottom()
		return nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return cmd
}

// renderBundles renders the bundle list above the generation log.
func (m Model) renderBundles() string {
	height := m.contentHeight() - m.logPanelHeight()
	title := fmt.Sprintf("Bundles (%d)", len(m.bundles))

	var content string
	switch {
	case len(m.bundles) == 0 && !m.snapshot.HasBundles:
		content = m.theme.Styles().MutedText.Render("Loading bundles...")
	case len(m.bundles) == 0:
		content = m.theme.Styles().MutedText.Render("No bundles yet. Press n to generate one.")
	default:
		content = m.table.View()
	}
	if m.status != "" {
		content = strings.TrimRight(content, "\n") + "\n" + m.theme.Styles().InfoText.Render(m.status)
	}

	top := m.renderTitledBox(title, content, m.width, height, true)
	return lipgloss.JoinVertical(lipgloss.Left, top, m.renderLogPanel(false))
}
