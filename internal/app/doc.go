// Package app is the composition root for bundlectl.
//
// Open resolves configuration (viper: defaults, TOML file, BUNDLECTL_*
// environment, flags), loads preferences, opens the client log and builds the
// BundleGen HTTP client. From a Session either entry point is built:
//
//   - Run starts the Bubble Tea TUI with a live log channel.
//   - NewHeadless drives the same console.Console on a console.Loop for the
//     command-line subcommands (list, generate, delete, download).
//
// The log channel goroutine lives as long as the context passed in; the
// console is the only owner of client state in both modes.
//
// # Error Handling
//
// Configuration and client construction errors are returned from Open.
// Request failures after startup never end the session: the console records
// them, logs them to the client log and keeps the last good bundle list.
package app
