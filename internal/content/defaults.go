package content

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Defaults is the content every section falls back to.
type Defaults struct {
	Hero          HeroContent           `yaml:"hero"`
	About         AboutContent          `yaml:"about"`
	Services      []Service             `yaml:"services"`
	Projects      []Project             `yaml:"projects"`
	Team          []TeamMember          `yaml:"team"`
	Testimonials  []Testimonial         `yaml:"testimonials"`
	Contact       FooterContent         `yaml:"contact"`
	Menu          []MenuItem            `yaml:"menu"`
	Social        []SocialLink          `yaml:"social"`
	Colors        []SiteSetting         `yaml:"colors"`
	CookieConsent CookieConsentSettings `yaml:"cookie_consent"`
}

// ParseDefaults decodes a defaults document.
func ParseDefaults(data []byte) (Defaults, error) {
	var d Defaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Defaults{}, fmt.Errorf("parse defaults: %w", err)
	}
	return d, nil
}

// LoadDefaults returns a fresh copy of the embedded defaults, so callers may
// modify what they get.
func LoadDefaults() Defaults {
	d, err := ParseDefaults(defaultsYAML)
	if err != nil {
		// The document is embedded in the binary; failing here is a build defect.
		panic(err)
	}
	return d
}
