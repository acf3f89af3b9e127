package bundlegen

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseTime_Layouts(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"Thu, 05 Jan 2023 08:30:00 GMT", time.Date(2023, 1, 5, 8, 30, 0, 0, time.UTC)},
		{"2023-01-05T08:30:00Z", time.Date(2023, 1, 5, 8, 30, 0, 0, time.UTC)},
		{"2023-01-05 08:30:00", time.Date(2023, 1, 5, 8, 30, 0, 0, time.Local)},
	}
	for _, tc := range cases {
		got, err := parseTime(tc.in)
		if err != nil {
			t.Fatalf("parseTime(%q) error = %v", tc.in, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("parseTime(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if _, err := parseTime(""); err == nil {
		t.Fatalf("parseTime(\"\") returned nil error")
	}
}

func TestBundle_UnmarshalRequiresName(t *testing.T) {
	var b Bundle
	err := json.Unmarshal([]byte(`{"name":"","date":"2023-01-05T08:30:00Z"}`), &b)
	if err == nil || !strings.Contains(err.Error(), "missing name") {
		t.Fatalf("Unmarshal error = %v, want missing name", err)
	}
}

func TestBundle_MarshalUsesWireShape(t *testing.T) {
	b := Bundle{Name: "b1", Date: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), Command: "wget", SizeMB: 2.25}
	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	want := `{"name":"b1","date":"Mon, 02 Jan 2023 00:00:00 GMT","command":"wget","size":2.25}`
	if string(data) != want {
		t.Fatalf("Marshal = %s, want %s", data, want)
	}
}

func TestImageSource_Kind(t *testing.T) {
	if got := (ImageSource{}).Kind(); got != "none" {
		t.Fatalf("Kind = %q, want none", got)
	}
	if got := (ImageSource{FilePath: "/tmp/a.tar"}).Kind(); got != "file" {
		t.Fatalf("Kind = %q, want file", got)
	}
	if got := (ImageSource{URL: "docker://x"}).Kind(); got != "url" {
		t.Fatalf("Kind = %q, want url", got)
	}
}

func TestParseForm_ExtractsTokenAndChoices(t *testing.T) {
	info, err := ParseForm(strings.NewReader(formPage))
	if err != nil {
		t.Fatalf("ParseForm error = %v", err)
	}
	if info.CSRFToken != "tok-123" {
		t.Fatalf("CSRFToken = %q, want tok-123", info.CSRFToken)
	}
	if len(info.Platforms) != 2 || info.Platforms[1].Value != "vip7802" {
		t.Fatalf("Platforms = %#v", info.Platforms)
	}
	if len(info.LibMatchModes) != 2 || info.LibMatchModes[0].Label != "Normal (recommended)" {
		t.Fatalf("LibMatchModes = %#v", info.LibMatchModes)
	}

	info, err = ParseForm(strings.NewReader("<html></html>"))
	if err != nil {
		t.Fatalf("ParseForm error = %v", err)
	}
	if len(info.LibMatchModes) != len(DefaultLibMatchModes) {
		t.Fatalf("LibMatchModes = %#v, want defaults", info.LibMatchModes)
	}
}
