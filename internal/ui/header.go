package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"

	"github.com/five82/bundlectl/internal/socketio"
)

// renderHeader renders the status bar: server, log channel, bundle list state
// and generation state.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("bundlectl", styles.Logo)}

	if m.serverURL != "" && !compact {
		parts = append(parts, bg.Render(truncateMiddle(m.serverURL, 40), styles.MutedText))
	}

	if m.console.ConnectionState() == socketio.Connected {
		parts = append(parts, bg.Render("● LIVE", styles.SuccessText))
	} else {
		parts = append(parts, bg.Render("● NO LOG", styles.WarningText))
	}

	// Refresh failures only reach the client log; the header keeps showing
	// the last good list.
	switch {
	case !m.snapshot.HasBundles && m.snapshot.LastAttempt.IsZero():
		parts = append(parts, bg.Render("Loading...", styles.MutedText))
	case !m.snapshot.HasBundles:
		parts = append(parts, bg.Field("Bundles:", "n/a", styles.MutedText, styles.MutedText))
	default:
		parts = append(parts, bg.Field("Bundles:", fmt.Sprintf("%d", len(m.snapshot.Bundles)), styles.MutedText, styles.Text))
	}

	if !m.console.CanSubmit() {
		parts = append(parts, styles.BadgeStyle(m.theme.Accent).Render(m.spinner.View()+" GENERATING"))
	}

	if ts := m.formatTimestamp(); ts != "" {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	return styles.Header.Width(m.width).Render(bg.Line(parts...))
}

// formatTimestamp formats the last successful refresh with a relative age.
func (m Model) formatTimestamp() string {
	last := m.snapshot.LastUpdated
	if last.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s (%s)", last.Format("15:04:05"), humanizeDuration(time.Since(last)))
}

// renderCommandBar renders the key hints for the active view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	var bindings []key.Binding
	switch m.currentView {
	case ViewGenerate:
		bindings = m.keys.formHelp()
	case ViewClientLog:
		bindings = m.keys.clientLogHelp()
	default:
		bindings = m.keys.bundleHelp()
	}

	segments := make([]string, 0, len(bindings)+1)
	for _, b := range bindings {
		h := b.Help()
		desc := h.Desc
		if m.currentView == ViewBundles && b.Help().Key == m.keys.ToggleFollow.Help().Key {
			desc = "Pause log"
			if !m.logFollow {
				desc = "Follow log"
			}
		}
		segments = append(segments, bg.Hint(h.Key, desc, styles.AccentText, styles.MutedText))
	}

	segments = append(segments, bg.Hint("T", m.theme.Name, styles.AccentText, styles.FaintText))

	return styles.Header.Width(m.width).Render(bg.Line(segments...))
}
