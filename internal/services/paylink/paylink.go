package paylink

import (
	"net/url"
	"strings"

	"github.com/mcoot/dinkup/internal/model"
)

// DefaultBaseURL is the Venmo web payment endpoint
const DefaultBaseURL = "https://venmo.com/"

// Generator builds a payment-request link. The result is stored as an opaque string.
type Generator interface {
	Link(handle string, amount model.Cents, note string) string
}

// Venmo builds Venmo-style "pay" links addressed to the collector's handle
type Venmo struct {
	BaseURL string
}

// NewVenmo creates a Venmo link generator; an empty baseURL uses DefaultBaseURL
func NewVenmo(baseURL string) *Venmo {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Venmo{BaseURL: baseURL}
}

// Link returns a pay link, or an empty string when there is no handle to pay
func (v *Venmo) Link(handle string, amount model.Cents, note string) string {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		return ""
	}

	q := url.Values{}
	q.Set("txn", "pay")
	q.Set("recipients", handle)
	q.Set("amount", amount.String())
	if note != "" {
		q.Set("note", note)
	}
	return v.BaseURL + "?" + q.Encode()
}
