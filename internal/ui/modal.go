package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/bundlectl/internal/console"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// noticeModal shows the outcome of a generation cycle until dismissed.
type noticeModal struct {
	notice console.Notification
}

func (n noticeModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(km, keys.Confirm, keys.Cancel) || km.String() == " " {
			return n, nil, true
		}
	}
	return n, nil, false
}

func (n noticeModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	titleStyle, border := styles.SuccessText, theme.Success
	if n.notice.Kind == console.NotifyError {
		titleStyle, border = styles.DangerText, theme.Danger
	}
	body := titleStyle.Render(n.notice.Title) + "\n\n" +
		styles.Text.Render(n.notice.Text) + "\n\n" +
		styles.FaintText.Render("enter to dismiss")
	return placeModal(theme, border, body, width, height)
}

// confirmModal asks before running a destructive action.
type confirmModal struct {
	prompt    string
	onConfirm func() tea.Cmd
}

func (c confirmModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch {
	case key.Matches(km, keys.Confirm):
		var cmd tea.Cmd
		if c.onConfirm != nil {
			cmd = c.onConfirm()
		}
		return c, cmd, true
	case key.Matches(km, keys.Cancel):
		return c, nil, true
	}
	return c, nil, false
}

func (c confirmModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	body := styles.WarningText.Bold(true).Render("Confirm") + "\n\n" +
		styles.Text.Render(c.prompt) + "\n\n" +
		styles.FaintText.Render("y/enter confirm · n/esc cancel")
	return placeModal(theme, theme.Warning, body, width, height)
}

func placeModal(theme Theme, border, body string, width, height int) string {
	modalWidth := minInt(60, maxInt(width-4, 20))
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Padding(1, 2).
		Width(modalWidth).
		Render(strings.TrimRight(body, "\n"))
	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
