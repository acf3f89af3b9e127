package console

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/five82/bundlectl/internal/bundlegen"
)

const (
	// LabelPlaceholder is shown while no image file is selected.
	LabelPlaceholder = "..."
	maxLabelRunes    = 70
)

// ImageInput keeps the two image sources mutually exclusive. Selecting a
// file clears and disables the URL field; clearing the file re-enables it.
// The zero value has no file and an enabled, empty URL.
type ImageInput struct {
	path        string
	label       string
	url         string
	urlDisabled bool
}

// SelectFile records the chosen file. An empty path behaves like ClearFile.
func (in *ImageInput) SelectFile(path string) {
	path = strings.TrimSpace(path)
	in.url = ""
	if path == "" {
		in.path = ""
		in.label = ""
		in.urlDisabled = false
		return
	}
	in.path = path
	in.label = fileLabel(path)
	in.urlDisabled = true
}

// ClearFile drops the selected file and re-enables the URL field.
func (in *ImageInput) ClearFile() {
	in.SelectFile("")
}

// SetURL updates the URL field. It is ignored while a file is selected and
// reports whether the value was taken.
func (in *ImageInput) SetURL(v string) bool {
	if in.urlDisabled {
		return false
	}
	in.url = v
	return true
}

// Label is the display name of the selected file.
func (in ImageInput) Label() string {
	if in.label == "" {
		return LabelPlaceholder
	}
	return in.label
}

func (in ImageInput) URL() string       { return in.url }
func (in ImageInput) URLDisabled() bool { return in.urlDisabled }
func (in ImageInput) FilePath() string  { return in.path }

// Source returns whichever image source is set.
func (in ImageInput) Source() bundlegen.ImageSource {
	if in.path != "" {
		return bundlegen.ImageSource{FilePath: in.path}
	}
	return bundlegen.ImageSource{URL: strings.TrimSpace(in.url)}
}

func fileLabel(path string) string {
	name := filepath.Base(path)
	if utf8.RuneCountInString(name) <= maxLabelRunes {
		return name
	}
	runes := []rune(name)
	return string(runes[:maxLabelRunes]) + "..."
}
