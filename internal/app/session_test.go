package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type bundleServer struct {
	mu      sync.Mutex
	bundles []map[string]any
}

func (s *bundleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/bundles":
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"bundles": s.bundles})
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/bundle/"):
		name := strings.TrimPrefix(r.URL.Path, "/bundle/")
		kept := s.bundles[:0]
		for _, b := range s.bundles {
			if b["name"] != name {
				kept = append(kept, b)
			}
		}
		s.bundles = kept
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true}`))
	default:
		http.NotFound(w, r)
	}
}

func writeConfig(t *testing.T, serverURL string) (configPath, logPath string) {
	t.Helper()
	dir := t.TempDir()
	logPath = filepath.Join(dir, "state", "bundlectl.log")
	configPath = filepath.Join(dir, "config.toml")
	content := fmt.Sprintf("server = %q\nlog_file = %q\nrequest_timeout = \"2s\"\n", serverURL, logPath)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath, logPath
}

func openTestSession(t *testing.T) (*Session, *bundleServer, string) {
	t.Helper()
	srv := &bundleServer{bundles: []map[string]any{
		{"name": "old.tar.gz", "date": "2024-01-01 10:00:00", "command": "wget old", "size": 1.0},
		{"name": "new.tar.gz", "date": "2024-02-01 10:00:00", "command": "wget new", "size": 2.5},
	}}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	configPath, logPath := writeConfig(t, ts.URL)
	s, err := Open(Options{ConfigPath: configPath, PrefsPath: filepath.Join(t.TempDir(), "prefs.toml")})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, srv, logPath
}

func TestOpen_ResolvesConfigAndLog(t *testing.T) {
	s, _, logPath := openTestSession(t)

	if s.Config.RequestTimeout != 2*time.Second {
		t.Fatalf("RequestTimeout = %v, want 2s", s.Config.RequestTimeout)
	}
	if s.Config.LogFile != logPath {
		t.Fatalf("LogFile = %q, want %q", s.Config.LogFile, logPath)
	}
	if s.Prefs.Theme == "" {
		t.Fatalf("prefs not defaulted: %#v", s.Prefs)
	}

	s.Logger.Printf("hello from test")
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Fatalf("log file missing entry: %q", data)
	}
}

func TestOpen_RejectsBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("server = [broken"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Open(Options{ConfigPath: path}); err == nil {
		t.Fatalf("expected error for malformed config")
	}
}

func TestHeadless_ListAndDelete(t *testing.T) {
	s, srv, logPath := openTestSession(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h, err := s.NewHeadless(ctx, false, nil)
	if err != nil {
		t.Fatalf("NewHeadless returned error: %v", err)
	}
	defer h.Close()

	if err := h.Settle(ctx); err != nil {
		t.Fatalf("Settle returned error: %v", err)
	}
	snap := h.Console.Snapshot()
	if len(snap.Bundles) != 2 || snap.Bundles[0].Name != "new.tar.gz" {
		t.Fatalf("bundles = %#v, want new.tar.gz first", snap.Bundles)
	}

	if err := h.Settle(ctx, h.Console.Delete("old.tar.gz")); err != nil {
		t.Fatalf("Settle delete returned error: %v", err)
	}
	snap = h.Console.Snapshot()
	if len(snap.Bundles) != 1 || snap.Bundles[0].Name != "new.tar.gz" {
		t.Fatalf("bundles after delete = %#v", snap.Bundles)
	}
	srv.mu.Lock()
	remaining := len(srv.bundles)
	srv.mu.Unlock()
	if remaining != 1 {
		t.Fatalf("server still has %d bundles", remaining)
	}

	// The test server has no generation page, which only gets logged.
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "load generation form failed") {
		t.Fatalf("log missing form failure: %q", data)
	}
}
