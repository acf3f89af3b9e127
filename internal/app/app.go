package app

import (
	"context"
	"fmt"

	"github.com/five82/bundlectl/internal/ui"
)

// Run boots the bundlectl TUI until the user quits or the context is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	s, err := Open(opts)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c, err := s.NewConsole(ctx, true, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	s.Logger.Printf("bundlectl started for %s", s.Client.BaseURL())
	if s.Config.File != "" {
		s.Logger.Printf("using config %s", s.Config.File)
	}

	uiOpts := ui.Options{
		Context:    ctx,
		Console:    c,
		Downloader: s.Client,
		Config:     s.Config,
		Prefs:      s.Prefs,
		PrefsPath:  s.PrefsPath,
		ServerURL:  s.Client.BaseURL().String(),
	}
	if err := ui.Run(uiOpts); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
