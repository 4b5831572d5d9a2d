package payment

import (
	"errors"
	"time"
)

const (
	ProviderStripe = "stripe"

	// EventCheckoutCompleted is the only event type that mutates local state.
	// Everything else is acknowledged and recorded, never acted on.
	EventCheckoutCompleted = "checkout.session.completed"
)

var (
	// ErrValidation marks a malformed or empty checkout request (user-correctable).
	ErrValidation = errors.New("invalid checkout request")
	// ErrNotFound marks an unresolved catalog reference; carts are all-or-nothing.
	ErrNotFound = errors.New("catalog item not found")
	// ErrAuthentication marks a webhook that failed signature verification.
	ErrAuthentication = errors.New("webhook signature verification failed")
)

// CartLine is one client-submitted cart entry. It is transient: it exists in
// the checkout request and inside the reconciliation payload, never in a table
// of its own. JSON tags match the public API contract.
type CartLine struct {
	MovieID      uint       `json:"movieId" validate:"required"`
	TicketsCount uint       `json:"ticketsCount" validate:"gte=1"`
	ShowTime     *time.Time `json:"showTime,omitempty"`
}

// PayloadVersion tags the reconciliation payload schema so format evolution
// cannot silently corrupt reconciliation.
const PayloadVersion = 1

// CheckoutPayload is the reconciliation payload embedded in the hosted
// session's metadata: buyer identity plus a snapshot of the cart. It is the
// only durable record of buyer intent until bookings are materialized, so it
// must round-trip losslessly through JSON.
type CheckoutPayload struct {
	Version int        `json:"v"`
	UserID  uint       `json:"user_id"`
	Lines   []CartLine `json:"lines"`
}

// CheckoutSession mirrors the subset of the provider's session object the
// backend cares about.
type CheckoutSession struct {
	ID                string            `json:"id"`
	URL               string            `json:"url"`
	AmountTotal       int64             `json:"amount_total"`
	Currency          string            `json:"currency"`
	CustomerEmail     string            `json:"customer_email"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

// Event is a verified asynchronous notification from the payment provider
// describing a session state change.
type Event struct {
	EventID string
	Type    string
	Created int64
	Session CheckoutSession
}

// eventJSON is the wire shape of a provider event.
type eventJSON struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object CheckoutSession `json:"object"`
	} `json:"data"`
}
