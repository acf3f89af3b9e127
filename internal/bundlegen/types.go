package bundlegen

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const bundleTimestampLayout = "2006-01-02 15:04:05"

// Bundle is a generated artifact as listed by GET /bundles.
type Bundle struct {
	Name    string
	Date    time.Time
	Command string
	SizeMB  float64
}

// bundleWire mirrors a single entry of the /bundles payload.
type bundleWire struct {
	Name    string  `json:"name"`
	Date    string  `json:"date"`
	Command string  `json:"command"`
	Size    float64 `json:"size"`
}

// UnmarshalJSON decodes the wire shape and parses the date. A bundle without
// a name or with an unparseable date is rejected.
func (b *Bundle) UnmarshalJSON(data []byte) error {
	var raw bundleWire
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if strings.TrimSpace(raw.Name) == "" {
		return fmt.Errorf("bundle missing name")
	}
	date, err := parseTime(raw.Date)
	if err != nil {
		return fmt.Errorf("bundle %q: %w", raw.Name, err)
	}
	*b = Bundle{
		Name:    raw.Name,
		Date:    date,
		Command: raw.Command,
		SizeMB:  raw.Size,
	}
	return nil
}

// MarshalJSON encodes the bundle in the server's wire shape.
func (b Bundle) MarshalJSON() ([]byte, error) {
	return json.Marshal(bundleWire{
		Name:    b.Name,
		Date:    b.Date.UTC().Format(http.TimeFormat),
		Command: b.Command,
		Size:    b.SizeMB,
	})
}

// BundleListResponse mirrors /bundles.
type BundleListResponse struct {
	Bundles []Bundle `json:"bundles"`
}

// ErrorResponse is the body of any non-success response.
type ErrorResponse struct {
	Message *string `json:"message"`
}

// GenerateResponse is the success body of POST /.
type GenerateResponse struct {
	Success bool `json:"success"`
}

// ImageSource names where the generation input image comes from. At most one
// field is set.
type ImageSource struct {
	FilePath string
	URL      string
}

// Kind reports which variant is set.
func (s ImageSource) Kind() string {
	switch {
	case strings.TrimSpace(s.FilePath) != "":
		return "file"
	case strings.TrimSpace(s.URL) != "":
		return "url"
	default:
		return "none"
	}
}

// GenerateRequest carries the generation form fields.
type GenerateRequest struct {
	Platform         string
	LibMatch         string
	AppMetadata      string
	RegistryUsername string
	RegistryPassword string
	Image            ImageSource
}

// Choice is a select option scraped from the generation form.
type Choice struct {
	Value string
	Label string
}

// FormInfo is what the server's generation page tells a client about the form.
type FormInfo struct {
	CSRFToken     string
	Platforms     []Choice
	LibMatchModes []Choice
}

// DefaultLibMatchModes are used when the server page lists none.
var DefaultLibMatchModes = []Choice{
	{Value: "normal", Label: "Normal (recommended)"},
	{Value: "image", Label: "Image"},
	{Value: "host", Label: "Host"},
}

func parseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range []string{http.TimeFormat, time.RFC1123Z, time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	if t, err := time.ParseInLocation(bundleTimestampLayout, value, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05.999999", value, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
