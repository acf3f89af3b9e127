package console

import (
	"strings"

	"github.com/five82/bundlectl/internal/bundlegen"
)

// Form holds the generation form fields.
type Form struct {
	Platform         string
	LibMatch         string
	AppMetadata      string
	RegistryUsername string
	RegistryPassword string
	Image            ImageInput
}

// Request serializes the form and the selected image source.
func (f *Form) Request() bundlegen.GenerateRequest {
	return bundlegen.GenerateRequest{
		Platform:         strings.TrimSpace(f.Platform),
		LibMatch:         strings.TrimSpace(f.LibMatch),
		AppMetadata:      f.AppMetadata,
		RegistryUsername: strings.TrimSpace(f.RegistryUsername),
		RegistryPassword: f.RegistryPassword,
		Image:            f.Image.Source(),
	}
}

// applyChoices fills empty or unknown select fields from the server's form.
func (f *Form) applyChoices(info bundlegen.FormInfo) {
	f.Platform = pick(f.Platform, info.Platforms)
	f.LibMatch = pick(f.LibMatch, info.LibMatchModes)
}

func pick(current string, choices []bundlegen.Choice) string {
	if len(choices) == 0 {
		return current
	}
	for _, c := range choices {
		if c.Value == current {
			return current
		}
	}
	return choices[0].Value
}
