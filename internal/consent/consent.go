// Package consent stores a visitor's cookie-consent choice in a cookie and
// derives the consent flags other components are given.
package consent

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// CookieName holds the encoded Record.
const CookieName = "cookie_consent"

// DefaultVersion is used when no consent settings row carries a version.
const DefaultVersion = "1.0"

type Value string

const (
	Accepted Value = "accepted"
	Declined Value = "declined"
	Custom   Value = "custom"
)

// Record is the persisted consent choice.
type Record struct {
	Value     Value     `json:"value"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Analytics bool      `json:"analytics"`
	Marketing bool      `json:"marketing"`
}

// Choice is a custom selection of consent categories.
type Choice struct {
	Analytics bool `json:"analytics"`
	Marketing bool `json:"marketing"`
}

// State is what the rest of the site sees.
type State struct {
	HasConsent          bool `json:"has_consent"`
	HasAnalyticsConsent bool `json:"has_analytics_consent"`
	HasMarketingConsent bool `json:"has_marketing_consent"`
}

// StateOf derives the flags from a record. A nil record means no choice yet.
func StateOf(r *Record) State {
	if r == nil {
		return State{}
	}
	return State{
		HasConsent:          true,
		HasAnalyticsConsent: r.Analytics,
		HasMarketingConsent: r.Marketing,
	}
}

func AcceptAll(version string, now time.Time) Record {
	return Record{Value: Accepted, Timestamp: now, Version: version, Analytics: true, Marketing: true}
}

func DeclineAll(version string, now time.Time) Record {
	return Record{Value: Declined, Timestamp: now, Version: version}
}

func FromChoice(c Choice, version string, now time.Time) Record {
	return Record{Value: Custom, Timestamp: now, Version: version, Analytics: c.Analytics, Marketing: c.Marketing}
}

// Encode serialises r into a cookie-safe string.
func Encode(r Record) (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Decode parses a stored record. Records that are malformed, carry an
// unknown value, or were written for another version are ignored.
func Decode(raw, version string) (*Record, bool) {
	if raw == "" {
		return nil, false
	}
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil, false
	}
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, false
	}
	switch r.Value {
	case Accepted, Declined, Custom:
	default:
		return nil, false
	}
	if r.Version != version {
		return nil, false
	}
	return &r, true
}
