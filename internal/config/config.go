package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the resolved bundlectl configuration.
type Config struct {
	Server         string
	LogEvent       string
	DownloadDir    string
	LogFile        string
	RefreshEvery   time.Duration // zero disables periodic refresh
	RequestTimeout time.Duration
	// File is the config file that was read, empty when none existed.
	File string
}

const (
	defaultConfigPath     = "~/.config/bundlectl/config.toml"
	defaultServer         = "127.0.0.1:5000"
	defaultLogEvent       = "consolelog"
	defaultDownloadDir    = "."
	defaultLogFile        = "~/.local/state/bundlectl/bundlectl.log"
	defaultRequestTimeout = 30 * time.Second
	envPrefix             = "BUNDLECTL"
)

// Keys and the command-line flags bound to them.
var flagNames = map[string]string{
	"server":          "server",
	"log_event":       "log-event",
	"download_dir":    "download-dir",
	"log_file":        "log-file",
	"refresh_every":   "refresh-every",
	"request_timeout": "request-timeout",
}

// RegisterFlags adds the configuration flags to flags. Flags left unset do
// not override the config file or environment.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("server", "", "BundleGen server as host:port or URL (default "+defaultServer+")")
	flags.String("log-event", "", "Socket.IO event carrying log output (default "+defaultLogEvent+")")
	flags.String("download-dir", "", "directory for downloaded bundles")
	flags.String("log-file", "", "client log file (default "+defaultLogFile+")")
	flags.Duration("refresh-every", 0, "refresh the bundle list periodically (0 disables)")
	flags.Duration("request-timeout", 0, "timeout for list, delete and download requests (default 30s)")
}

// Load resolves configuration from defaults, the TOML file at path (or the
// default location), BUNDLECTL_* environment variables and flags, in
// increasing order of precedence. A missing file is not an error.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetDefault("server", defaultServer)
	v.SetDefault("log_event", defaultLogEvent)
	v.SetDefault("download_dir", defaultDownloadDir)
	v.SetDefault("log_file", defaultLogFile)
	v.SetDefault("refresh_every", "0s")
	v.SetDefault("request_timeout", defaultRequestTimeout.String())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range flagNames {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := Config{}
	v.SetConfigFile(resolved)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	} else {
		cfg.File = resolved
	}

	cfg.Server = orDefault(v.GetString("server"), defaultServer)
	cfg.LogEvent = orDefault(v.GetString("log_event"), defaultLogEvent)
	cfg.DownloadDir = mustExpand(orDefault(v.GetString("download_dir"), defaultDownloadDir))
	cfg.LogFile = mustExpand(orDefault(v.GetString("log_file"), defaultLogFile))

	if cfg.RefreshEvery, err = duration(v, "refresh_every"); err != nil {
		return Config{}, err
	}
	if cfg.RefreshEvery < 0 {
		cfg.RefreshEvery = 0
	}
	if cfg.RequestTimeout, err = duration(v, "request_timeout"); err != nil {
		return Config{}, err
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	return cfg, nil
}

// DefaultPath returns the expanded default config file location.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
