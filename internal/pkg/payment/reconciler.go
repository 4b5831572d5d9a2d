package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"movietix/app/models"
)

// BuyerLookup is the slice of the user repository the reconciler needs.
type BuyerLookup interface {
	GetByID(id uint) (*models.User, error)
}

// BookingStore is the slice of the booking repository the reconciler needs.
type BookingStore interface {
	CreateIfNotExists(booking *models.Booking) (bool, error)
}

// ConfirmationNotifier is told about freshly materialized bookings. Delivery
// failures are logged, never surfaced: a lost email must not trigger a
// provider redelivery.
type ConfirmationNotifier interface {
	SendBookingConfirmation(user *models.User, bookings []models.Booking) error
}

// ReconcileResult summarizes what one event delivery did. Per-line problems
// are collected instead of aborting: partial fulfillment beats losing the
// whole order on one bad line, and the provider retries on any non-2xx anyway.
type ReconcileResult struct {
	Ignored         bool
	BookingsCreated int
	LinesSkipped    int
	Errors          []string
}

// Err flattens collected per-line errors into one value for event bookkeeping.
func (r ReconcileResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return errors.New(strings.Join(r.Errors, "; "))
}

// Reconciler materializes bookings from verified payment completion events.
type Reconciler struct {
	users    BuyerLookup
	movies   CatalogLookup
	bookings BookingStore
	notifier ConfirmationNotifier
}

// NewReconciler creates a reconciler from injected repositories.
func NewReconciler(users BuyerLookup, movies CatalogLookup, bookings BookingStore) *Reconciler {
	return &Reconciler{users: users, movies: movies, bookings: bookings}
}

// WithNotifier attaches an optional confirmation notifier.
func (r *Reconciler) WithNotifier(n ConfirmationNotifier) *Reconciler {
	r.notifier = n
	return r
}

// HandleEvent processes one verified event. Unknown event types are
// acknowledged without mutation. For completion events it creates one paid
// booking per cart line, deduplicated by the natural key at the storage layer,
// so redelivering the same logical event never books twice.
func (r *Reconciler) HandleEvent(ctx context.Context, event *Event) ReconcileResult {
	_ = ctx
	result := ReconcileResult{}

	if event.Type != EventCheckoutCompleted {
		result.Ignored = true
		return result
	}

	payload, err := parseReconciliationPayload(event.Session.Metadata)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		log.Printf("webhook %s: %v", event.EventID, err)
		return result
	}

	user, err := r.users.GetByID(payload.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result.Errors = append(result.Errors, fmt.Sprintf("buyer %d no longer exists", payload.UserID))
		} else {
			result.Errors = append(result.Errors, fmt.Sprintf("buyer lookup failed: %v", err))
		}
		log.Printf("webhook %s: %s", event.EventID, result.Errors[len(result.Errors)-1])
		return result
	}

	var confirmed []models.Booking
	for _, line := range payload.Lines {
		movie, err := r.movies.GetByID(line.MovieID)
		if err != nil {
			// One deleted movie must not sink the rest of the order.
			result.LinesSkipped++
			result.Errors = append(result.Errors, fmt.Sprintf("movie %d unresolved: %v", line.MovieID, err))
			log.Printf("webhook %s: skipping line, movie %d unresolved: %v", event.EventID, line.MovieID, err)
			continue
		}

		showTime := time.Now().UTC().Truncate(time.Second)
		if line.ShowTime != nil {
			showTime = line.ShowTime.UTC().Truncate(time.Second)
		}

		booking := &models.Booking{
			UserID:          user.ID,
			MovieID:         movie.ID,
			ShowTime:        showTime,
			TicketsCount:    line.TicketsCount,
			AmountPaidCents: movie.PriceCents * int64(line.TicketsCount),
			PaymentStatus:   models.PaymentStatusPaid,
		}
		created, err := r.bookings.CreateIfNotExists(booking)
		if err != nil {
			result.LinesSkipped++
			result.Errors = append(result.Errors, fmt.Sprintf("booking insert for movie %d failed: %v", line.MovieID, err))
			log.Printf("webhook %s: booking insert for movie %d failed: %v", event.EventID, line.MovieID, err)
			continue
		}
		if created {
			result.BookingsCreated++
			booking.Movie = movie
			confirmed = append(confirmed, *booking)
		}
	}

	if r.notifier != nil && len(confirmed) > 0 {
		if err := r.notifier.SendBookingConfirmation(user, confirmed); err != nil {
			log.Printf("webhook %s: booking confirmation failed: %v", event.EventID, err)
		}
	}

	return result
}

func parseReconciliationPayload(metadata map[string]string) (*CheckoutPayload, error) {
	raw, ok := metadata["payload"]
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, errors.New("session metadata missing reconciliation payload")
	}
	var payload CheckoutPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("undecodable reconciliation payload: %v", err)
	}
	if payload.Version != PayloadVersion {
		return nil, fmt.Errorf("unsupported reconciliation payload version %d", payload.Version)
	}
	if payload.UserID == 0 || len(payload.Lines) == 0 {
		return nil, errors.New("reconciliation payload missing buyer or cart lines")
	}
	return &payload, nil
}
