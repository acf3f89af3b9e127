package main

import (
	"github.com/spf13/cobra"

	"github.com/five82/bundlectl/internal/app"
	"github.com/five82/bundlectl/internal/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bundlectl",
		Short: "Terminal console for a BundleGen server",
		Long: `bundlectl lists, generates, downloads and deletes bundles on a BundleGen
server. Without a subcommand it starts the interactive console, which streams
the server's generation log live.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), sessionOptions(cmd))
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default "+config.DefaultPath()+")")
	flags.String("prefs", "", "preferences file (default ~/.config/bundlectl/prefs.toml)")
	config.RegisterFlags(flags)

	root.AddCommand(
		newListCmd(),
		newGenerateCmd(),
		newDeleteCmd(),
		newDownloadCmd(),
		newPlatformsCmd(),
		newDebugLogCmd(),
	)
	return root
}

func sessionOptions(cmd *cobra.Command) app.Options {
	flags := cmd.Flags()
	configPath, _ := flags.GetString("config")
	prefsPath, _ := flags.GetString("prefs")
	return app.Options{
		ConfigPath: configPath,
		PrefsPath:  prefsPath,
		Flags:      flags,
	}
}

// openSession opens a session for a subcommand; the caller closes it.
func openSession(cmd *cobra.Command) (*app.Session, error) {
	return app.Open(sessionOptions(cmd))
}
