package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/bundlectl/internal/bundlegen"
	"github.com/five82/bundlectl/internal/config"
	"github.com/five82/bundlectl/internal/console"
	"github.com/five82/bundlectl/internal/prefs"
)

type stubService struct {
	mu          sync.Mutex
	bundles     []bundlegen.Bundle
	listErr     error
	generateErr error
	generated   []bundlegen.GenerateRequest
}

func (s *stubService) ListBundles(context.Context) ([]bundlegen.Bundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]bundlegen.Bundle(nil), s.bundles...), nil
}

func (s *stubService) Generate(_ context.Context, req bundlegen.GenerateRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generated = append(s.generated, req)
	if s.generateErr != nil {
		return s.generateErr
	}
	s.bundles = append(s.bundles, bundlegen.Bundle{Name: "fresh", Date: time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)})
	return nil
}

func (s *stubService) DeleteBundle(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.bundles[:0]
	for _, b := range s.bundles {
		if b.Name != name {
			kept = append(kept, b)
		}
	}
	s.bundles = kept
	return nil
}

func newTestModel(t *testing.T, svc bundlegen.Service) Model {
	t.Helper()
	c := console.New(context.Background(), svc, nil, console.Options{
		Form: console.Form{Platform: "linux/amd64", LibMatch: "normal"},
	})
	t.Cleanup(c.Close)
	m := New(Options{
		Console:   c,
		Config:    config.Config{LogFile: filepath.Join(t.TempDir(), "client.log")},
		Prefs:     prefs.Defaults(),
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
		ServerURL: "http://127.0.0.1:5000",
	})
	return update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// collect runs cmd and returns the messages it produces, flattening batches.
// Only call it with commands that complete immediately.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, collect(c)...)
	}
	return out
}

// feed applies every non-spinner message produced by cmd and returns the
// model and the commands those updates returned.
func feed(t *testing.T, m Model, cmd tea.Cmd) (Model, []tea.Cmd) {
	t.Helper()
	var next []tea.Cmd
	for _, msg := range collect(cmd) {
		if _, ok := msg.(spinner.TickMsg); ok {
			continue
		}
		model, c := m.Update(msg)
		m = model.(Model)
		if c != nil {
			next = append(next, c)
		}
	}
	return m, next
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func seedBundles() []bundlegen.Bundle {
	return []bundlegen.Bundle{
		{Name: "older", Date: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), Command: "gen a", SizeMB: 1.5},
		{Name: "newer", Date: time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC), Command: "gen b", SizeMB: 12},
	}
}

func TestModel_RefreshShowsNewestFirst(t *testing.T) {
	svc := &stubService{bundles: seedBundles()}
	m := newTestModel(t, svc)

	m, _ = feed(t, m, m.console.Refresh())

	if len(m.bundles) != 2 || m.bundles[0].Name != "newer" {
		t.Fatalf("bundles = %#v, want newer first", m.bundles)
	}
	rows := m.table.Rows()
	if rows[0][1] != "newer" || rows[0][3] != "12.00M" {
		t.Fatalf("first row = %#v", rows[0])
	}
	if got := m.selectedBundle(); got != "newer" {
		t.Fatalf("selectedBundle = %q, want newer", got)
	}
	if view := m.View(); !strings.Contains(view, "Bundles (2)") {
		t.Fatalf("view missing bundle count:\n%s", view)
	}
}

func TestModel_HeaderIgnoresRefreshFailures(t *testing.T) {
	refused := &bundlegen.TransportError{Op: "list bundles", Err: errors.New("dial tcp: connection refused")}
	svc := &stubService{listErr: refused}
	m := newTestModel(t, svc)

	if header := m.renderHeader(); !strings.Contains(header, "Loading...") {
		t.Fatalf("header before first refresh = %q", header)
	}

	for i := 0; i < 2; i++ {
		m, _ = feed(t, m, m.console.Refresh())
	}
	header := m.renderHeader()
	for _, bad := range []string{"Retrying", "OFFLINE", "connection refused"} {
		if strings.Contains(header, bad) {
			t.Fatalf("header shows refresh failure %q: %q", bad, header)
		}
	}
	if !strings.Contains(header, "Bundles: n/a") {
		t.Fatalf("header without a list = %q", header)
	}
	if ts := m.formatTimestamp(); ts != "" {
		t.Fatalf("timestamp after failures only = %q, want none", ts)
	}

	svc.mu.Lock()
	svc.listErr = nil
	svc.bundles = seedBundles()
	svc.mu.Unlock()
	m, _ = feed(t, m, m.console.Refresh())
	good := m.snapshot.LastUpdated

	svc.mu.Lock()
	svc.listErr = refused
	svc.mu.Unlock()
	m, _ = feed(t, m, m.console.Refresh())

	header = m.renderHeader()
	if !strings.Contains(header, "Bundles: 2") || strings.Contains(header, "Retrying") {
		t.Fatalf("header after failed refresh = %q, want last good list", header)
	}
	if !m.console.Snapshot().LastUpdated.Equal(good) {
		t.Fatalf("failed refresh moved the last successful refresh time")
	}
	if !strings.Contains(m.formatTimestamp(), good.Format("15:04:05")) {
		t.Fatalf("timestamp = %q, want last success %s", m.formatTimestamp(), good.Format("15:04:05"))
	}
}

func TestModel_DeleteAsksThenRefreshes(t *testing.T) {
	svc := &stubService{bundles: seedBundles()}
	m := newTestModel(t, svc)
	m, _ = feed(t, m, m.console.Refresh())

	m = update(t, m, keyRunes("d"))
	if _, ok := m.modal.(confirmModal); !ok {
		t.Fatalf("modal = %T, want confirmModal", m.modal)
	}

	next, cmd := m.Update(keyRunes("y"))
	m = next.(Model)
	if m.modal != nil {
		t.Fatalf("confirm modal still open")
	}

	m, follow := feed(t, m, cmd)
	if len(follow) != 1 {
		t.Fatalf("delete produced %d follow-up commands, want refresh", len(follow))
	}
	m, _ = feed(t, m, follow[0])

	if len(m.bundles) != 1 || m.bundles[0].Name != "older" {
		t.Fatalf("bundles after delete = %#v", m.bundles)
	}
}

func TestModel_DeleteCancelled(t *testing.T) {
	svc := &stubService{bundles: seedBundles()}
	m := newTestModel(t, svc)
	m, _ = feed(t, m, m.console.Refresh())

	m = update(t, m, keyRunes("d"))
	next, cmd := m.Update(keyRunes("n"))
	m = next.(Model)
	if m.modal != nil || cmd != nil {
		t.Fatalf("cancel left modal=%v cmd=%v", m.modal, cmd)
	}
	if len(svc.bundles) != 2 {
		t.Fatalf("bundle deleted after cancel")
	}
}

func TestModel_SubmitShowsSuccessUntilDismissed(t *testing.T) {
	svc := &stubService{bundles: seedBundles()}
	m := newTestModel(t, svc)

	m = update(t, m, keyRunes("n"))
	if m.currentView != ViewGenerate {
		t.Fatalf("view = %v, want generate", m.currentView)
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = next.(Model)
	if m.console.CanSubmit() {
		t.Fatalf("submit not in flight")
	}
	if !strings.Contains(m.View(), "Generating") {
		t.Fatalf("submit control should show generating state")
	}

	m, follow := feed(t, m, cmd)
	if len(svc.generated) != 1 || svc.generated[0].Platform != "linux/amd64" {
		t.Fatalf("generated = %#v", svc.generated)
	}
	notice, ok := m.modal.(noticeModal)
	if !ok {
		t.Fatalf("modal = %T, want noticeModal", m.modal)
	}
	if notice.notice.Title != "Success!" || notice.notice.Text != "Successfully generated bundle" {
		t.Fatalf("notice = %#v", notice.notice)
	}
	for _, c := range follow {
		m, _ = feed(t, m, c)
	}
	if len(m.bundles) != 3 || m.bundles[0].Name != "fresh" {
		t.Fatalf("bundles after generate = %#v", m.bundles)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.modal != nil {
		t.Fatalf("notice still open after enter")
	}
	if _, ok := m.console.Notice(); ok {
		t.Fatalf("console notice not dismissed")
	}

	saved := prefs.Load(m.prefsPath)
	if saved.Platform != "linux/amd64" || saved.LibMatch != "normal" {
		t.Fatalf("saved prefs = %#v", saved)
	}
}

func TestModel_SubmitErrorShowsServerMessage(t *testing.T) {
	svc := &stubService{
		bundles:     seedBundles(),
		generateErr: &bundlegen.ServerError{Op: "generate bundle", StatusCode: 500, Message: "disk full"},
	}
	m := newTestModel(t, svc)
	m, _ = feed(t, m, m.console.Refresh())

	m = update(t, m, keyRunes("n"))
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m, follow := feed(t, next.(Model), cmd)

	notice, ok := m.modal.(noticeModal)
	if !ok {
		t.Fatalf("modal = %T, want noticeModal", m.modal)
	}
	if notice.notice.Title != "Something went wrong" {
		t.Fatalf("title = %q", notice.notice.Title)
	}
	if notice.notice.Text != "Failed to generate bundle with error: disk full" {
		t.Fatalf("text = %q", notice.notice.Text)
	}
	if len(follow) != 0 {
		t.Fatalf("failed generate should not refresh, got %d commands", len(follow))
	}
	if len(m.bundles) != 2 {
		t.Fatalf("bundle list changed after failure: %#v", m.bundles)
	}
	if !m.console.CanSubmit() {
		t.Fatalf("submit should be enabled again")
	}
}

func TestModel_SecondSubmitIgnoredWhileInFlight(t *testing.T) {
	svc := &stubService{}
	m := newTestModel(t, svc)
	m = update(t, m, keyRunes("n"))

	next, first := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = next.(Model)
	next, second := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = next.(Model)

	if first == nil {
		t.Fatalf("first submit returned no command")
	}
	if second != nil {
		t.Fatalf("second submit should be ignored while in flight")
	}
}

func TestForm_TabSkipsURLWhileFileSelected(t *testing.T) {
	m := newTestModel(t, &stubService{})
	m = update(t, m, keyRunes("n"))

	form := m.console.Form()
	form.Image.SelectFile(filepath.Join("tmp", "disk.img"))
	m.form.focus = fieldImageFile

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.form.focus != fieldUsername {
		t.Fatalf("focus = %v, want username", m.form.focus)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.form.focus != fieldImageFile {
		t.Fatalf("focus = %v, want image file", m.form.focus)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlX})
	if form.Image.URLDisabled() || form.Image.Label() != console.LabelPlaceholder {
		t.Fatalf("clear did not reset image input")
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.form.focus != fieldImageURL {
		t.Fatalf("focus = %v, want image url", m.form.focus)
	}
}

func TestForm_TypingWritesThrough(t *testing.T) {
	m := newTestModel(t, &stubService{})
	m = update(t, m, keyRunes("n"))
	m.form.focus = fieldUsername
	m.form.focusCurrent(m.console.Form())

	m = update(t, m, keyRunes("bob"))
	if got := m.console.Form().RegistryUsername; got != "bob" {
		t.Fatalf("RegistryUsername = %q, want bob", got)
	}
	if got := m.console.Form().Platform; got != "linux/amd64" {
		t.Fatalf("Platform clobbered: %q", got)
	}
}

func TestForm_PlaceholdersShowServerFormats(t *testing.T) {
	f := newFormState()
	if f.platform.Placeholder != "rpi3_reference" {
		t.Fatalf("platform placeholder = %q", f.platform.Placeholder)
	}
	if !strings.HasPrefix(f.url.Placeholder, "docker://") {
		t.Fatalf("image url placeholder = %q", f.url.Placeholder)
	}
	if !strings.Contains(f.metadata.Placeholder, `"id"`) {
		t.Fatalf("metadata placeholder = %q, want a JSON id hint", f.metadata.Placeholder)
	}
}

func TestCycleChoice(t *testing.T) {
	choices := []bundlegen.Choice{{Value: "a"}, {Value: "b"}, {Value: "c"}}
	cases := []struct {
		current string
		delta   int
		want    string
	}{
		{"a", 1, "b"},
		{"c", 1, "a"},
		{"a", -1, "c"},
		{"zzz", 1, "a"},
	}
	for _, tc := range cases {
		if got := cycleChoice(choices, tc.current, tc.delta); got != tc.want {
			t.Fatalf("cycleChoice(%q, %d) = %q, want %q", tc.current, tc.delta, got, tc.want)
		}
	}
	if got := cycleChoice(nil, "x", 1); got != "x" {
		t.Fatalf("cycleChoice with no choices = %q, want x", got)
	}
}

func TestRenderTitledBox_FillsHeight(t *testing.T) {
	m := newTestModel(t, &stubService{})
	box := m.renderTitledBox("Title", "one\ntwo", 30, 6, false)
	lines := strings.Split(box, "\n")
	if len(lines) != 6 {
		t.Fatalf("box has %d lines, want 6", len(lines))
	}
	if !strings.Contains(lines[0], "Title") {
		t.Fatalf("title missing from top border: %q", lines[0])
	}
}
