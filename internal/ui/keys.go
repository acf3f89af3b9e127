package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding
	Escape     key.Binding

	// View switching
	ViewBundles   key.Binding
	ViewGenerate  key.Binding
	ViewClientLog key.Binding

	// Bundle actions
	Refresh  key.Binding
	Delete   key.Binding
	Download key.Binding

	// Navigation
	Up           key.Binding
	Down         key.Binding
	Top          key.Binding
	Bottom       key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding

	// Logs actions
	ToggleFollow key.Binding

	// Form
	Submit     key.Binding
	NextField  key.Binding
	PrevField  key.Binding
	PrevChoice key.Binding
	NextChoice key.Binding
	Browse     key.Binding
	ClearFile  key.Binding

	// Modal
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		// Global
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "e"),
			key.WithHelp("e", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Cycle views"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Cycle views (reverse)"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back to bundles"),
		),

		// View switching
		ViewBundles: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "Bundles"),
		),
		ViewGenerate: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "New bundle"),
		),
		ViewClientLog: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Client log"),
		),

		// Bundle actions
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "Delete"),
		),
		Download: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Download"),
		),

		// Navigation
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "Log page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "Log page down"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "Log half page up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "Log half page down"),
		),

		// Logs actions
		ToggleFollow: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Toggle log follow"),
		),

		// Form
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "Generate"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		PrevChoice: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("left", "Previous option"),
		),
		NextChoice: key.NewBinding(
			key.WithKeys("right", " "),
			key.WithHelp("right", "Next option"),
		),
		Browse: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Choose image file"),
		),
		ClearFile: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "Clear image file"),
		),

		// Modal
		Confirm: key.NewBinding(
			key.WithKeys("enter", "y"),
			key.WithHelp("enter/y", "Confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "n"),
			key.WithHelp("esc/n", "Cancel"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ViewBundles, k.ViewGenerate, k.ViewClientLog, k.Escape},
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Refresh, k.Delete, k.Download},
		{k.Submit, k.NextField, k.PrevField, k.NextChoice, k.Browse, k.ClearFile},
		{k.ToggleFollow, k.PageUp, k.PageDown, k.HalfPageUp, k.HalfPageDown},
		{k.CycleTheme, k.Help, k.Quit},
	}
}

// bundleHelp returns the bindings shown in the command bar on the bundle list.
func (k keyMap) bundleHelp() []key.Binding {
	return []key.Binding{k.ViewGenerate, k.Refresh, k.Delete, k.Download, k.ViewClientLog, k.ToggleFollow, k.Help, k.Quit}
}

// formHelp returns the bindings shown in the command bar on the generation form.
func (k keyMap) formHelp() []key.Binding {
	return []key.Binding{k.Submit, k.NextField, k.NextChoice, k.Browse, k.ClearFile, k.Escape}
}

// clientLogHelp returns the bindings shown in the command bar on the client log.
func (k keyMap) clientLogHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Top, k.Bottom, k.Escape, k.Quit}
}
