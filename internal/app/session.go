package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/five82/bundlectl/internal/bundlegen"
	"github.com/five82/bundlectl/internal/config"
	"github.com/five82/bundlectl/internal/console"
	"github.com/five82/bundlectl/internal/prefs"
	"github.com/five82/bundlectl/internal/socketio"
)

// Options configure a bundlectl session.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/bundlectl/prefs.toml
	// Flags holds the command-line overrides registered by config.RegisterFlags.
	Flags *pflag.FlagSet
}

// Session carries the resolved configuration, the client log and the server
// client shared by the TUI and the headless commands.
type Session struct {
	Config    config.Config
	Prefs     prefs.Prefs
	PrefsPath string
	Client    *bundlegen.Client
	Logger    *log.Logger

	closeLog func() error
}

// Open loads configuration and preferences, opens the client log and builds
// the server client.
func Open(opts Options) (*Session, error) {
	cfg, err := config.Load(opts.ConfigPath, opts.Flags)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	logger, closeLog, err := openLog(cfg.LogFile)
	if err != nil {
		return nil, err
	}

	client, err := bundlegen.NewClient(cfg.Server, bundlegen.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("init bundlegen client: %w", err)
	}

	return &Session{
		Config:    cfg,
		Prefs:     prefs.Load(prefsPath),
		PrefsPath: prefsPath,
		Client:    client,
		Logger:    logger,
		closeLog:  closeLog,
	}, nil
}

// Close flushes and closes the client log.
func (s *Session) Close() error {
	if s == nil || s.closeLog == nil {
		return nil
	}
	return s.closeLog()
}

// openLog appends to the client log file, creating its directory. Stdout
// belongs to the TUI, so errors that are not shown to the user go here.
func openLog(path string) (*log.Logger, func() error, error) {
	if path == "" {
		return log.New(io.Discard, "", 0), func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return log.New(f, "", log.LstdFlags), f.Close, nil
}

// NewConsole builds a Console seeded from the saved preferences. When follow
// is set a log channel is started for the lifetime of ctx.
func (s *Session) NewConsole(ctx context.Context, follow bool, onLog func(string)) (*console.Console, error) {
	var events <-chan socketio.Event
	if follow {
		ch, err := socketio.New(s.Client.BaseURL(),
			socketio.WithLogEvent(s.Config.LogEvent),
			socketio.WithHeader(http.Header{"User-Agent": {s.Client.UserAgent()}}),
		)
		if err != nil {
			return nil, fmt.Errorf("init log channel: %w", err)
		}
		go func() {
			if err := ch.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.Logger.Printf("log channel stopped: %v", err)
			}
		}()
		events = ch.Events()
	}

	return console.New(ctx, s.Client, events, console.Options{
		Logger: s.Logger,
		OnLog:  onLog,
		Form: console.Form{
			Platform: s.Prefs.Platform,
			LibMatch: s.Prefs.LibMatch,
		},
	}), nil
}

// Headless drives a Console from a command line instead of the TUI.
type Headless struct {
	Console *console.Console
	loop    *console.Loop
}

// NewHeadless builds a Console on a headless loop and starts its initial
// refresh, form load and channel listener.
func (s *Session) NewHeadless(ctx context.Context, follow bool, onLog func(string)) (*Headless, error) {
	c, err := s.NewConsole(ctx, follow, onLog)
	if err != nil {
		return nil, err
	}
	h := &Headless{Console: c, loop: console.NewLoop(ctx, c)}
	h.loop.Dispatch(c.Init())
	return h, nil
}

// Settle dispatches cmds and applies messages until no request is in flight.
func (h *Headless) Settle(ctx context.Context, cmds ...tea.Cmd) error {
	for _, cmd := range cmds {
		h.loop.Dispatch(cmd)
	}
	return h.loop.Run(ctx, func() bool { return !h.Console.Busy() })
}

// WaitConnected applies messages until the log channel connects or timeout
// passes. It reports whether the channel is connected.
func (h *Headless) WaitConnected(ctx context.Context, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_ = h.loop.Run(ctx, func() bool {
		return h.Console.ConnectionState() == socketio.Connected
	})
	return h.Console.ConnectionState() == socketio.Connected
}

// Close cancels anything still in flight.
func (h *Headless) Close() {
	h.Console.Close()
}
