package console

import (
	"context"
	"io"
	"log"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/bundlectl/internal/bundlegen"
	"github.com/five82/bundlectl/internal/socketio"
	"github.com/five82/bundlectl/internal/state"
)

// GenerationState tracks whether a generate request is in flight.
type GenerationState int

const (
	Idle GenerationState = iota
	Submitting
)

func (s GenerationState) String() string {
	if s == Submitting {
		return "submitting"
	}
	return "idle"
}

// NotificationKind distinguishes success and error notices.
type NotificationKind int

const (
	NotifySuccess NotificationKind = iota
	NotifyError
)

// Notification is a user-facing result of a generation cycle.
type Notification struct {
	Kind  NotificationKind
	Title string
	Text  string
}

const (
	successTitle = "Success!"
	successText  = "Successfully generated bundle"
	errorTitle   = "Something went wrong"
	errorPrefix  = "Failed to generate bundle with error: "
)

// FormFetcher is implemented by services that can describe the generation
// form (platform and lib-match choices).
type FormFetcher interface {
	FetchForm(ctx context.Context) (bundlegen.FormInfo, error)
}

// Options configures a Console.
type Options struct {
	// Logger receives errors that are not shown to the user. Defaults to a
	// discarding logger.
	Logger *log.Logger
	// OnLog is called with every log fragment after it is buffered.
	OnLog func(fragment string)
	// Form seeds the form fields, e.g. from saved preferences.
	Form Form
}

// Console owns all client-side state: the bundle list, the live log, the
// form and the generation cycle. It is driven by a single event loop (Bubble
// Tea or Loop); network results come back as messages through Update and are
// the only way state changes after a request. Methods are not safe for
// concurrent use.
type Console struct {
	ctx    context.Context
	cancel context.CancelFunc
	svc    bundlegen.Service
	events <-chan socketio.Event
	logger *log.Logger
	onLog  func(string)

	store *state.Store
	logs  *state.LogBuffer
	form  Form
	info  bundlegen.FormInfo

	generation GenerationState
	connection socketio.State
	notice     *Notification
	inflight   int
}

// New builds a Console around svc. events may be nil when no log channel is
// available.
func New(ctx context.Context, svc bundlegen.Service, events <-chan socketio.Event, opts Options) *Console {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Console{
		ctx:    ctx,
		cancel: cancel,
		svc:    svc,
		events: events,
		logger: logger,
		onLog:  opts.OnLog,
		store:  &state.Store{},
		logs:   &state.LogBuffer{},
		form:   opts.Form,
		info:   bundlegen.FormInfo{LibMatchModes: bundlegen.DefaultLibMatchModes},
	}
}

// Init loads the bundle list and the form choices and starts listening on
// the log channel.
func (c *Console) Init() tea.Cmd {
	return tea.Batch(c.Refresh(), c.LoadForm(), c.listen())
}

// Close cancels every request still in flight.
func (c *Console) Close() {
	c.cancel()
}

// Update applies a message produced by one of the Console's commands and
// returns any follow-up command. Unknown messages are ignored.
func (c *Console) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case refreshResultMsg:
		c.inflight--
		applied := c.store.Update(msg.seq, msg.bundles, msg.err)
		switch {
		case msg.err == nil:
		case applied:
			c.logger.Printf("refresh bundles failed: %v (%d in a row)", msg.err, c.store.Snapshot().ConsecutiveFailures)
		default:
			c.logger.Printf("refresh bundles failed: %v (superseded)", msg.err)
		}
		return nil

	case generateResultMsg:
		c.inflight--
		c.generation = Idle
		if msg.err != nil {
			c.logger.Printf("generate bundle failed: %v", msg.err)
			c.notice = &Notification{Kind: NotifyError, Title: errorTitle, Text: errorPrefix + bundlegen.Message(msg.err)}
			return nil
		}
		c.notice = &Notification{Kind: NotifySuccess, Title: successTitle, Text: successText}
		return c.Refresh()

	case deleteResultMsg:
		c.inflight--
		if msg.err != nil {
			c.logger.Printf("delete bundle %s failed: %s", msg.name, bundlegen.Message(msg.err))
			return nil
		}
		return c.Refresh()

	case formResultMsg:
		c.inflight--
		if msg.err != nil {
			c.logger.Printf("load generation form failed: %v", msg.err)
			return nil
		}
		if len(msg.info.LibMatchModes) == 0 {
			msg.info.LibMatchModes = bundlegen.DefaultLibMatchModes
		}
		c.info = msg.info
		c.form.applyChoices(msg.info)
		return nil

	case channelEventMsg:
		c.handleChannelEvent(socketio.Event(msg))
		return c.listen()

	case channelClosedMsg:
		c.connection = socketio.Disconnected
		c.events = nil
		return nil
	}
	return nil
}

func (c *Console) handleChannelEvent(ev socketio.Event) {
	switch ev.Kind {
	case socketio.EventConnected:
		c.connection = socketio.Connected
		c.logger.Printf("log channel connected")
	case socketio.EventDisconnected:
		c.connection = socketio.Disconnected
		if ev.Err != nil {
			c.logger.Printf("log channel disconnected: %v", ev.Err)
		}
	case socketio.EventLog:
		c.logs.Append(ev.Fragment)
		if c.onLog != nil {
			c.onLog(ev.Fragment)
		}
	}
}

// Refresh fetches the bundle list. A response older than one already applied
// is discarded when it arrives.
func (c *Console) Refresh() tea.Cmd {
	seq := c.store.Begin()
	c.inflight++
	ctx, svc := c.ctx, c.svc
	return func() tea.Msg {
		bundles, err := svc.ListBundles(ctx)
		return refreshResultMsg{seq: seq, bundles: bundles, err: err}
	}
}

// LoadForm fetches the server's form choices when the service supports it.
func (c *Console) LoadForm() tea.Cmd {
	fetcher, ok := c.svc.(FormFetcher)
	if !ok {
		return nil
	}
	c.inflight++
	ctx := c.ctx
	return func() tea.Msg {
		info, err := fetcher.FetchForm(ctx)
		return formResultMsg{info: info, err: err}
	}
}

// Submit starts a generation cycle. It returns nil while another cycle is in
// flight. The log buffer and any previous notification are cleared before the
// request is sent.
func (c *Console) Submit() tea.Cmd {
	if c.generation == Submitting {
		return nil
	}
	c.logs.Clear()
	c.notice = nil
	c.generation = Submitting
	c.inflight++
	req := c.form.Request()
	c.logger.Printf("generate bundle: platform=%s lib_match=%s image=%s", req.Platform, req.LibMatch, req.Image.Kind())
	ctx, svc := c.ctx, c.svc
	return func() tea.Msg {
		return generateResultMsg{err: svc.Generate(ctx, req)}
	}
}

// Delete removes a bundle and refreshes the list on success. Failures are only
// logged.
func (c *Console) Delete(name string) tea.Cmd {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	c.inflight++
	ctx, svc := c.ctx, c.svc
	return func() tea.Msg {
		return deleteResultMsg{name: name, err: svc.DeleteBundle(ctx, name)}
	}
}

func (c *Console) listen() tea.Cmd {
	events := c.events
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return channelClosedMsg{}
		}
		return channelEventMsg(ev)
	}
}

// Form returns the editable form.
func (c *Console) Form() *Form { return &c.form }

// FormInfo returns the last form description loaded from the server.
func (c *Console) FormInfo() bundlegen.FormInfo { return c.info }

// Snapshot returns the current bundle list, newest first.
func (c *Console) Snapshot() state.Snapshot { return c.store.Snapshot() }

// Logs returns the live generation log.
func (c *Console) Logs() *state.LogBuffer { return c.logs }

// GenerationState reports whether a generate request is in flight. The submit
// affordance is disabled exactly while it is Submitting.
func (c *Console) GenerationState() GenerationState { return c.generation }

// CanSubmit reports whether Submit would start a new cycle.
func (c *Console) CanSubmit() bool { return c.generation == Idle }

// ConnectionState reports the log channel state as last observed.
func (c *Console) ConnectionState() socketio.State { return c.connection }

// Notice returns the current notification, if any.
func (c *Console) Notice() (Notification, bool) {
	if c.notice == nil {
		return Notification{}, false
	}
	return *c.notice, true
}

// DismissNotice clears the current notification.
func (c *Console) DismissNotice() { c.notice = nil }

// Busy reports whether any request the Console issued has not settled yet.
func (c *Console) Busy() bool { return c.inflight > 0 }
