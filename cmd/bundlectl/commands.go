package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/bundlectl/internal/bundlegen"
	"github.com/five82/bundlectl/internal/console"
	"github.com/five82/bundlectl/internal/logtail"
	"github.com/five82/bundlectl/internal/state"
)

const bundleDateLayout = "2006-01-02 15:04:05"

func newListCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bundles, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			h, err := s.NewHeadless(cmd.Context(), false, nil)
			if err != nil {
				return err
			}
			defer h.Close()

			if err := h.Settle(cmd.Context()); err != nil {
				return err
			}
			snap := h.Console.Snapshot()
			if !snap.HasBundles && snap.LastError != nil {
				return fmt.Errorf("list bundles: %s", bundlegen.Message(snap.LastError))
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(bundlegen.BundleListResponse{Bundles: snap.Bundles})
			}
			return printBundles(cmd.OutOrStdout(), snap)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the list in the server's JSON shape")
	return cmd
}

func printBundles(out io.Writer, snap state.Snapshot) error {
	if len(snap.Bundles) == 0 {
		_, err := fmt.Fprintln(out, "No bundles found")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tNAME\tSIZE\tCOMMAND")
	for _, b := range snap.Bundles {
		fmt.Fprintf(w, "%s\t%s\t%.2fM\t%s\n", b.Date.Local().Format(bundleDateLayout), b.Name, b.SizeMB, b.Command)
	}
	return w.Flush()
}

type generateFlags struct {
	platform    string
	libMatch    string
	imageFile   string
	imageURL    string
	user        string
	password    string
	metadata    string
	noFollow    bool
	connectWait time.Duration
}

func newGenerateCmd() *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a bundle and stream the server log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, f)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.platform, "platform", "", "platform template, e.g. rpi3_reference (default: last used or the server's first choice)")
	flags.StringVar(&f.libMatch, "lib-match", "", "library matching mode")
	flags.StringVar(&f.imageFile, "image-file", "", "local OCI image tarball (.tar.gz) to upload")
	flags.StringVar(&f.imageURL, "image-url", "", "image URL, e.g. docker://hello-world:latest")
	flags.StringVar(&f.user, "registry-user", "", "registry username")
	flags.StringVar(&f.password, "registry-password", "", "registry password")
	flags.StringVar(&f.metadata, "metadata", "", "app metadata JSON with an \"id\"; required when the image carries none")
	flags.BoolVar(&f.noFollow, "no-follow", false, "do not stream the generation log")
	flags.DurationVar(&f.connectWait, "connect-wait", 5*time.Second, "how long to wait for the log channel before submitting")
	cmd.MarkFlagsMutuallyExclusive("image-file", "image-url")
	return cmd
}

func runGenerate(cmd *cobra.Command, f generateFlags) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	out := cmd.OutOrStdout()
	var onLog func(string)
	if !f.noFollow {
		onLog = func(fragment string) { _, _ = io.WriteString(out, fragment) }
	}

	h, err := s.NewHeadless(cmd.Context(), !f.noFollow, onLog)
	if err != nil {
		return err
	}
	defer h.Close()

	// Load the form first so explicit flags win over server defaults.
	if err := h.Settle(cmd.Context()); err != nil {
		return err
	}
	if !f.noFollow && !h.WaitConnected(cmd.Context(), f.connectWait) {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: log channel not connected; output may be incomplete")
	}

	form := h.Console.Form()
	applyGenerateFlags(form, f)

	if err := h.Settle(cmd.Context(), h.Console.Submit()); err != nil {
		return err
	}

	notice, ok := h.Console.Notice()
	if !ok {
		return errors.New("generation did not complete")
	}
	if notice.Kind == console.NotifyError {
		return errors.New(notice.Text)
	}
	fmt.Fprintln(out, notice.Text)
	return nil
}

func applyGenerateFlags(form *console.Form, f generateFlags) {
	if v := strings.TrimSpace(f.platform); v != "" {
		form.Platform = v
	}
	if v := strings.TrimSpace(f.libMatch); v != "" {
		form.LibMatch = v
	}
	form.RegistryUsername = f.user
	form.RegistryPassword = f.password
	form.AppMetadata = f.metadata
	if f.imageFile != "" {
		form.Image.SelectFile(f.imageFile)
	} else {
		form.Image.SetURL(f.imageURL)
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME...",
		Short: "Delete bundles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			h, err := s.NewHeadless(cmd.Context(), false, nil)
			if err != nil {
				return err
			}
			defer h.Close()

			if err := h.Settle(cmd.Context()); err != nil {
				return err
			}
			for _, name := range args {
				if err := h.Settle(cmd.Context(), h.Console.Delete(name)); err != nil {
					return err
				}
			}

			// Delete failures are only logged; the refreshed list is the verdict.
			var failed []string
			for _, name := range args {
				if hasBundle(h.Console.Snapshot(), name) {
					failed = append(failed, name)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", name)
				}
			}
			if len(failed) > 0 {
				return fmt.Errorf("could not delete %s (see %s)", strings.Join(failed, ", "), s.Config.LogFile)
			}
			return nil
		},
	}
}

func hasBundle(snap state.Snapshot, name string) bool {
	for _, b := range snap.Bundles {
		if b.Name == name {
			return true
		}
	}
	return false
}

func newDownloadCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "download NAME...",
		Short: "Download bundles to a local directory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			if dir == "" {
				dir = s.Config.DownloadDir
			}
			for _, name := range args {
				path, err := s.Client.Download(cmd.Context(), name, dir)
				if err != nil {
					s.Logger.Printf("download bundle %s failed: %v", name, err)
					return fmt.Errorf("download %s: %s", name, bundlegen.Message(err))
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "o", "", "destination directory (default: download_dir from config)")
	return cmd
}

func newPlatformsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "Show the platforms and library matching modes the server offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			info, err := s.Client.FetchForm(cmd.Context())
			if err != nil {
				return fmt.Errorf("load generation form: %s", bundlegen.Message(err))
			}
			if len(info.LibMatchModes) == 0 {
				info.LibMatchModes = bundlegen.DefaultLibMatchModes
			}

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tVALUE\tLABEL")
			for _, c := range info.Platforms {
				fmt.Fprintf(w, "platform\t%s\t%s\n", c.Value, c.Label)
			}
			for _, c := range info.LibMatchModes {
				fmt.Fprintf(w, "lib-match\t%s\t%s\n", c.Value, c.Label)
			}
			return w.Flush()
		},
	}
}

func newDebugLogCmd() *cobra.Command {
	var lines int
	var level string
	cmd := &cobra.Command{
		Use:   "debug-log",
		Short: "Print the end of the client log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			entries, err := logtail.Read(s.Config.LogFile, lines)
			if err != nil {
				return err
			}
			threshold, err := parseLevel(level)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range entries {
				if threshold != logtail.LevelNone && logtail.Classify(line) < threshold {
					continue
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines to show (0 for all)")
	cmd.Flags().StringVar(&level, "level", "", "only show lines at or above this level (debug, info, warn, error)")
	return cmd
}

func parseLevel(value string) (logtail.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return logtail.LevelNone, nil
	case "debug":
		return logtail.LevelDebug, nil
	case "info":
		return logtail.LevelInfo, nil
	case "warn", "warning":
		return logtail.LevelWarn, nil
	case "error":
		return logtail.LevelError, nil
	}
	return logtail.LevelNone, fmt.Errorf("unknown level %q", value)
}
