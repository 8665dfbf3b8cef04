package entity

import (
	"time"

	"github.com/biter777/countries"
)

// EventConfig is per-event static configuration loaded from the YAML
// config. Immutable for the lifetime of a request; the registry never
// writes to it.
type EventConfig struct {
	Ref            string    `yaml:"ref" json:"ref"`
	DisplayName    string    `yaml:"display_name" json:"display_name"`
	Banner         string    `yaml:"banner" json:"banner,omitempty"`
	SheetID        string    `yaml:"sheet_id" json:"-"`
	Country        string    `yaml:"country" json:"country,omitempty"`
	GuestlistClose time.Time `yaml:"guestlist_close" json:"guestlist_close,omitempty"`
	PartyStart     time.Time `yaml:"party_start" json:"party_start,omitempty"`
}

// CountryCode resolves the venue country to an ISO alpha-2 code.
// Display only, never part of the dedup key.
func (e *EventConfig) CountryCode() string {
	if e.Country == "" {
		return ""
	}
	if len(e.Country) == 2 {
		return e.Country
	}
	country := countries.ByName(e.Country)
	code := country.Alpha2()
	if len(code) == 2 {
		return code
	}
	return ""
}

// GuestlistOpen reports whether the list is still accepting RSVPs.
// A zero close time means the list never closes.
func (e *EventConfig) GuestlistOpen(now time.Time) bool {
	if e.GuestlistClose.IsZero() {
		return true
	}
	return now.Before(e.GuestlistClose)
}
