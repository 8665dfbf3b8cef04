package entity

import (
	"net/http"
	"strings"

	"doorlist/lib/validate"
)

// Header is the canonical first row of every guest-list sheet. Column
// positions are a durable contract: rows are always written with all
// eight cells so optional fields never shift later columns.
var Header = []string{
	"Inviter Name",
	"First Name",
	"Last Name",
	"Phone",
	"Country Code",
	"Email",
	"Event Name",
	"Timestamp",
}

// Registration is one guest-list row. Phone is stored digit-only; the
// (phone digits, country code) pair is the dedup key. Country codes are
// compared as exact strings: "971" and "00971" are distinct keys.
type Registration struct {
	InviterName string `json:"inviter_name" bson:"inviter_name" validate:"required"`
	FirstName   string `json:"first_name" bson:"first_name" validate:"required"`
	LastName    string `json:"last_name" bson:"last_name" validate:"required"`
	Phone       string `json:"phone" bson:"phone" validate:"required"`
	CountryCode string `json:"country_code" bson:"country_code" validate:"required"`
	Email       string `json:"email,omitempty" bson:"email" validate:"omitempty,email"`
	EventName   string `json:"event_name,omitempty" bson:"event_name"`
	Timestamp   string `json:"timestamp,omitempty" bson:"timestamp"`
	StoreRef    string `json:"store_ref,omitempty" bson:"store_ref"`
}

func (g *Registration) Bind(_ *http.Request) error {
	g.InviterName = strings.TrimSpace(g.InviterName)
	g.FirstName = strings.TrimSpace(g.FirstName)
	g.LastName = strings.TrimSpace(g.LastName)
	g.Phone = strings.TrimSpace(g.Phone)
	g.CountryCode = strings.TrimSpace(g.CountryCode)
	return validate.Struct(g)
}

// PhoneDigits strips every non-digit character from the phone number.
// Applied on write and on read, so legacy rows with formatted numbers
// still compare correctly.
func (g *Registration) PhoneDigits() string {
	return PhoneDigits(g.Phone)
}

func PhoneDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Row maps the registration into the canonical eight-cell sheet row.
func (g *Registration) Row() []string {
	return []string{
		g.InviterName,
		g.FirstName,
		g.LastName,
		g.PhoneDigits(),
		g.CountryCode,
		g.Email,
		g.EventName,
		g.Timestamp,
	}
}

// FromRow rebuilds a registration from a sheet row. Short rows are
// tolerated; missing cells read as empty strings.
func FromRow(row []string) *Registration {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return &Registration{
		InviterName: cell(0),
		FirstName:   cell(1),
		LastName:    cell(2),
		Phone:       PhoneDigits(cell(3)),
		CountryCode: cell(4),
		Email:       cell(5),
		EventName:   cell(6),
		Timestamp:   cell(7),
	}
}
