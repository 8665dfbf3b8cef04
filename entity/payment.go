package entity

import (
	"net/http"
	"strings"

	"doorlist/lib/validate"
)

// MembershipParams describes a membership purchase started after a
// successful RSVP. The checkout itself happens on Stripe; we only mint
// the session and hand back the link.
type MembershipParams struct {
	Email      string `json:"email" bson:"email" validate:"required,email"`
	Name       string `json:"name" bson:"name" validate:"required"`
	Plan       string `json:"plan" bson:"plan" validate:"required"`
	Amount     int64  `json:"amount" bson:"amount" validate:"required,min=1"`
	Currency   string `json:"currency" bson:"currency" validate:"required,oneof=AED USD EUR"`
	EventRef   string `json:"event_ref,omitempty" bson:"event_ref"`
	SuccessUrl string `json:"success_url,omitempty" bson:"success_url" validate:"omitempty,url"`
}

func (m *MembershipParams) Bind(_ *http.Request) error {
	m.Email = strings.TrimSpace(m.Email)
	return validate.Struct(m)
}

type Payment struct {
	Amount   int64  `json:"amount"`
	Id       string `json:"id" validate:"required"`
	Plan     string `json:"plan,omitempty"`
	Link     string `json:"link,omitempty"`
	Currency string `json:"currency,omitempty"`
}

func (p *Payment) Bind(_ *http.Request) error {
	return validate.Struct(p)
}
