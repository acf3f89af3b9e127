// Package config resolves bundlectl configuration.
//
// # Resolution Order
//
// Values are layered with viper, later sources winning:
//
//  1. Built-in defaults
//  2. The TOML file given by --config, or ~/.config/bundlectl/config.toml
//  3. BUNDLECTL_* environment variables (BUNDLECTL_SERVER, BUNDLECTL_LOG_FILE, ...)
//  4. Command-line flags that were explicitly set
//
// A missing config file is not an error. Blank values fall back to the
// defaults.
//
// # TOML Format
//
//	server = "127.0.0.1:5000"
//	log_event = "consolelog"
//	download_dir = "~/Downloads"
//	log_file = "~/.local/state/bundlectl/bundlectl.log"
//	refresh_every = "30s"
//	request_timeout = "30s"
//
// Durations use Go syntax. Paths starting with ~ are expanded to the home
// directory and made absolute.
package config
