package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/bundlectl/internal/bundlegen"
	"github.com/five82/bundlectl/internal/console"
	"github.com/five82/bundlectl/internal/prefs"
)

type formField int

const (
	fieldPlatform formField = iota
	fieldLibMatch
	fieldImageFile
	fieldImageURL
	fieldUsername
	fieldPassword
	fieldMetadata
	fieldSubmit
	fieldCount
)

var fieldLabels = [fieldCount]string{
	fieldPlatform:  "Platform",
	fieldLibMatch:  "Library matching",
	fieldImageFile: "Image file",
	fieldImageURL:  "Image URL",
	fieldUsername:  "Registry user",
	fieldPassword:  "Registry password",
	fieldMetadata:  "App metadata",
	fieldSubmit:    "",
}

const formLabelWidth = 20

// formState holds the widgets backing the generation form. Field values are
// written through to the console's Form after every edit.
type formState struct {
	focus    formField
	platform textinput.Model
	url      textinput.Model
	user     textinput.Model
	password textinput.Model
	metadata textarea.Model

	picker   filepicker.Model
	browsing bool

	width  int
	height int
}

func newFormState() formState {
	platform := textinput.New()
	platform.Placeholder = "rpi3_reference"
	platform.CharLimit = 64

	url := textinput.New()
	url.Placeholder = "docker://hello-world:latest"

	user := textinput.New()
	user.CharLimit = 128

	password := textinput.New()
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	metadata := textarea.New()
	metadata.Placeholder = `{"id": "com.example.app", ...} (required when the image has none)`
	metadata.ShowLineNumbers = false
	metadata.SetHeight(3)

	picker := filepicker.New()
	picker.FileAllowed = true
	picker.DirAllowed = false
	picker.ShowPermissions = false

	return formState{
		platform: platform,
		url:      url,
		user:     user,
		password: password,
		metadata: metadata,
		picker:   picker,
	}
}

func (f *formState) resize(width, height int) {
	f.width = width
	f.height = height
	inputWidth := maxInt(width-formLabelWidth-4, 10)
	f.platform.Width = inputWidth
	f.url.Width = inputWidth
	f.user.Width = inputWidth
	f.password.Width = inputWidth
	f.metadata.SetWidth(inputWidth)
	f.picker.AutoHeight = false
	f.picker.Height = maxInt(height-4, 3)
}

// sync copies values the console may have changed (choices loaded from the
// server, the URL cleared by a file selection) into the widgets.
func (f *formState) sync(form *console.Form) {
	if !f.platform.Focused() && f.platform.Value() != form.Platform {
		f.platform.SetValue(form.Platform)
	}
	if f.url.Value() != form.Image.URL() {
		f.url.SetValue(form.Image.URL())
	}
	if f.user.Value() != form.RegistryUsername {
		f.user.SetValue(form.RegistryUsername)
	}
	if f.password.Value() != form.RegistryPassword {
		f.password.SetValue(form.RegistryPassword)
	}
	if f.metadata.Value() != form.AppMetadata {
		f.metadata.SetValue(form.AppMetadata)
	}
}

// writeBack stores the widget values in the console's form.
func (f *formState) writeBack(form *console.Form) {
	form.Platform = f.platform.Value()
	form.RegistryUsername = f.user.Value()
	form.RegistryPassword = f.password.Value()
	form.AppMetadata = f.metadata.Value()
	form.Image.SetURL(f.url.Value())
}

func (f *formState) blurAll() {
	f.platform.Blur()
	f.url.Blur()
	f.user.Blur()
	f.password.Blur()
	f.metadata.Blur()
}

// focusCurrent moves keyboard focus to the widget for the current field.
func (f *formState) focusCurrent(form *console.Form) tea.Cmd {
	f.blurAll()
	if f.focus == fieldImageURL && form.Image.URLDisabled() {
		f.focus = fieldImageFile
	}
	switch f.focus {
	case fieldPlatform:
		return f.platform.Focus()
	case fieldImageURL:
		return f.url.Focus()
	case fieldUsername:
		return f.user.Focus()
	case fieldPassword:
		return f.password.Focus()
	case fieldMetadata:
		return f.metadata.Focus()
	}
	return nil
}

// move shifts focus by delta fields, skipping the URL while a file is chosen.
func (f *formState) move(form *console.Form, delta int) tea.Cmd {
	next := f.focus
	for {
		next = formField((int(next) + delta + int(fieldCount)) % int(fieldCount))
		if next == fieldImageURL && form.Image.URLDisabled() {
			continue
		}
		break
	}
	f.focus = next
	return f.focusCurrent(form)
}

func (m *Model) handleFormKey(msg tea.KeyMsg) tea.Cmd {
	form := m.console.Form()

	if m.form.browsing {
		if msg.String() == "ctrl+x" || msg.String() == "q" {
			m.form.browsing = false
			return nil
		}
		return m.updatePicker(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.Escape):
		return m.switchView(ViewBundles)
	case key.Matches(msg, m.keys.NextField):
		return m.form.move(form, 1)
	case key.Matches(msg, m.keys.PrevField):
		return m.form.move(form, -1)
	case key.Matches(msg, m.keys.ClearFile):
		form.Image.ClearFile()
		return nil
	}

	switch m.form.focus {
	case fieldPlatform:
		if choices := m.console.FormInfo().Platforms; len(choices) > 0 {
			if delta := choiceDelta(msg, m.keys); delta != 0 {
				form.Platform = cycleChoice(choices, form.Platform, delta)
				m.form.platform.SetValue(form.Platform)
				return nil
			}
		}
	case fieldLibMatch:
		if delta := choiceDelta(msg, m.keys); delta != 0 {
			form.LibMatch = cycleChoice(m.console.FormInfo().LibMatchModes, form.LibMatch, delta)
		}
		return nil
	case fieldImageFile:
		if key.Matches(msg, m.keys.Browse) {
			m.form.browsing = true
			return m.form.picker.Init()
		}
		return nil
	case fieldSubmit:
		if key.Matches(msg, m.keys.Browse) {
			return m.submit()
		}
		return nil
	}

	var cmd tea.Cmd
	switch m.form.focus {
	case fieldPlatform:
		m.form.platform, cmd = m.form.platform.Update(msg)
	case fieldImageURL:
		m.form.url, cmd = m.form.url.Update(msg)
	case fieldUsername:
		m.form.user, cmd = m.form.user.Update(msg)
	case fieldPassword:
		m.form.password, cmd = m.form.password.Update(msg)
	case fieldMetadata:
		m.form.metadata, cmd = m.form.metadata.Update(msg)
	}
	m.form.writeBack(form)
	return cmd
}

// updatePicker forwards a message to the file picker and records a selection.
func (m *Model) updatePicker(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.form.picker, cmd = m.form.picker.Update(msg)
	if ok, path := m.form.picker.DidSelectFile(msg); ok {
		m.console.Form().Image.SelectFile(path)
		m.form.browsing = false
	}
	return cmd
}

// submit starts a generation cycle and remembers the chosen platform.
func (m *Model) submit() tea.Cmd {
	form := m.console.Form()
	m.form.writeBack(form)
	cmd := m.console.Submit()
	if cmd == nil {
		return nil
	}
	m.prefs.Platform = strings.TrimSpace(form.Platform)
	m.prefs.LibMatch = strings.TrimSpace(form.LibMatch)
	_ = prefs.Save(m.prefsPath, m.prefs)
	m.logFollow = true
	return tea.Batch(cmd, m.spinner.Tick)
}

func choiceDelta(msg tea.KeyMsg, keys keyMap) int {
	switch {
	case key.Matches(msg, keys.NextChoice):
		return 1
	case key.Matches(msg, keys.PrevChoice):
		return -1
	}
	return 0
}

func cycleChoice(choices []bundlegen.Choice, current string, delta int) string {
	if len(choices) == 0 {
		return current
	}
	idx := -1
	for i, c := range choices {
		if c.Value == current {
			idx = i
			break
		}
	}
	if idx < 0 {
		return choices[0].Value
	}
	return choices[(idx+delta+len(choices))%len(choices)].Value
}

func choiceLabel(choices []bundlegen.Choice, value string) string {
	for _, c := range choices {
		if c.Value == value {
			if c.Label != "" {
				return c.Label
			}
			return c.Value
		}
	}
	if value == "" {
		return "-"
	}
	return value
}

// renderGenerate renders the generation form above the generation log.
func (m Model) renderGenerate() string {
	height := m.contentHeight() - m.logPanelHeight()
	var content string
	if m.form.browsing {
		styles := m.theme.Styles()
		content = styles.MutedText.Render("Choose an image file (enter to select, q to cancel)") + "\n" +
			styles.FaintText.Render(m.form.picker.CurrentDirectory) + "\n\n" +
			m.form.picker.View()
	} else {
		content = m.renderFormFields()
	}
	top := m.renderTitledBox("Generate bundle", content, m.width, height, true)
	return lipgloss.JoinVertical(lipgloss.Left, top, m.renderLogPanel(true))
}

func (m Model) renderFormFields() string {
	styles := m.theme.Styles()
	form := m.console.Form()
	info := m.console.FormInfo()

	labelStyle := styles.MutedText.Width(formLabelWidth)
	focusLabel := styles.AccentText.Bold(true).Width(formLabelWidth)

	var b strings.Builder
	for field := fieldPlatform; field < fieldSubmit; field++ {
		label := labelStyle.Render(fieldLabels[field])
		if field == m.form.focus {
			label = focusLabel.Render(fieldLabels[field])
		}

		var value string
		switch field {
		case fieldPlatform:
			value = m.form.platform.View()
			if len(info.Platforms) > 0 && m.form.focus != fieldPlatform {
				value = styles.Text.Render(choiceLabel(info.Platforms, form.Platform))
			}
		case fieldLibMatch:
			value = styles.Text.Render("‹ " + choiceLabel(info.LibMatchModes, form.LibMatch) + " ›")
		case fieldImageFile:
			fileStyle := styles.Text
			if form.Image.FilePath() == "" {
				fileStyle = styles.FaintText
			}
			value = fileStyle.Render(form.Image.Label())
			if m.form.focus == fieldImageFile {
				value += "  " + styles.FaintText.Render("enter browse · ctrl+x clear")
			}
		case fieldImageURL:
			if form.Image.URLDisabled() {
				value = styles.FaintText.Render("(using selected file)")
			} else {
				value = m.form.url.View()
			}
		case fieldUsername:
			value = m.form.user.View()
		case fieldPassword:
			value = m.form.password.View()
		case fieldMetadata:
			value = m.form.metadata.View()
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, label, value))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.renderSubmitButton())
	return b.String()
}

func (m Model) renderSubmitButton() string {
	styles := m.theme.Styles()
	if !m.console.CanSubmit() {
		return styles.BadgeStyle(m.theme.Faint).Render(fmt.Sprintf("%s Generating...", m.spinner.View()))
	}
	color := m.theme.Accent
	if m.form.focus != fieldSubmit {
		color = m.theme.Muted
	}
	return styles.BadgeStyle(color).Bold(true).Render("Generate") +
		"  " + styles.FaintText.Render("ctrl+s")
}
