package leads

import (
	"context"
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var ErrNotFound = errors.New("leads: not found")

// Lead is the subset of the CRM lead record the dial engine reads.
// The engine never writes leads; CRUD belongs to the CRM surface.
type Lead struct {
	ID              string `json:"id" db:"id"`
	FirstName       string `json:"first_name" db:"first_name"`
	LastName        string `json:"last_name" db:"last_name"`
	VehicleInterest string `json:"vehicle_interest" db:"vehicle_interest"`
	DoNotCall       bool   `json:"do_not_call" db:"do_not_call"`
}

// PhoneNumber is one dialable number attached to a lead.
type PhoneNumber struct {
	Number    string `json:"number" db:"number"`
	Type      string `json:"type" db:"type"` // mobile, home, work
	IsPrimary bool   `json:"is_primary" db:"is_primary"`
}

const PhoneTypeMobile = "mobile"

// Directory is the read-only lead/phone lookup consumed by queue enqueue
// and the pacing loop (script variables).
type Directory interface {
	Lead(ctx context.Context, leadID string) (Lead, error)
	PhoneNumbers(ctx context.Context, leadID string) ([]PhoneNumber, error)
}

// NormalizeE164 parses a raw phone string into E.164 form.
// Region defaults to US when the number has no country prefix.
func NormalizeE164(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("leads: empty phone number")
	}
	num, err := phonenumbers.Parse(raw, "US")
	if err != nil {
		return "", err
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", errors.New("leads: invalid phone number")
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
