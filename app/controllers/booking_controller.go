package controllers

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"movietix/app/models"
	"movietix/app/repository"
	"movietix/internal/pkg/env"
	"movietix/internal/pkg/mail"
	"movietix/internal/pkg/payment"
	"movietix/internal/pkg/usercontext"
)

// bookingDeps holds the collaborators of the booking endpoints so tests can
// swap in fakes without touching global state.
type bookingDeps struct {
	checkout   *payment.CheckoutService
	reconciler *payment.Reconciler
	users      repository.UserRepository
	bookings   repository.BookingRepository
	events     repository.WebhookEventRepository
}

var booking bookingDeps

// InitializeBookingController wires the booking endpoints against the global
// repository factory and env-based payment configuration.
func InitializeBookingController() {
	f := repository.GetGlobalFactory()
	reconciler := payment.NewReconciler(f.GetUserRepository(), f.GetMovieRepository(), f.GetBookingRepository())
	if mail.Enabled() {
		reconciler = reconciler.WithNotifier(mailNotifier{})
	}
	initializeBookingControllerWith(bookingDeps{
		checkout:   payment.NewCheckoutServiceFromEnv(f.GetMovieRepository()),
		reconciler: reconciler,
		users:      f.GetUserRepository(),
		bookings:   f.GetBookingRepository(),
		events:     f.GetWebhookEventRepository(),
	})
}

// mailNotifier adapts the SMTP mailer to the reconciler's notifier contract.
type mailNotifier struct{}

func (mailNotifier) SendBookingConfirmation(user *models.User, bookings []models.Booking) error {
	return mail.SendBookingConfirmation(user, bookings)
}

func initializeBookingControllerWith(deps bookingDeps) {
	booking = deps
}

type checkoutSessionRequest struct {
	Items []payment.CartLine `json:"items"`
}

// HandleCreateCheckoutSession validates the submitted cart and opens a hosted
// payment session, returning the redirect URL. Nothing is persisted locally;
// buyer intent travels inside the session's reconciliation payload.
func HandleCreateCheckoutSession(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	user, err := booking.users.GetByID(userCtx.UserID)
	if err != nil {
		log.Printf("checkout: buyer %d lookup failed: %v", userCtx.UserID, err)
		return respondInternalError(c, "could not resolve buyer")
	}

	var req checkoutSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadRequest(c, "items array is required with at least one item")
	}

	session, err := booking.checkout.CreateSession(c.Context(), user, req.Items)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrValidation):
			return respondBadRequest(c, err.Error())
		case errors.Is(err, payment.ErrNotFound):
			return respondNotFound(c, "one or more movies not found")
		default:
			log.Printf("checkout: session create failed: %v", err)
			return respondInternalError(c, "could not create checkout session")
		}
	}

	return c.JSON(fiber.Map{
		"status":     "success",
		"sessionUrl": session.URL,
	})
}

// HandleStripeWebhook ingests asynchronous payment events. The raw body must
// reach signature verification byte-for-byte, so it is copied before anything
// else looks at the request. Signature failures are hard 400s; anything after
// successful authentication is acknowledged with 200 so the provider does not
// redeliver forever, with problems recorded on the stored event.
func HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.Body()...)
	signature := strings.TrimSpace(c.Get("Stripe-Signature"))
	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")

	event, err := payment.ConstructEvent(rawBody, signature, secret)
	if err != nil {
		log.Printf("webhook: signature verification failed from %s: %v", c.IP(), err)
		return respondBadRequest(c, "webhook signature verification failed")
	}

	created, stored, err := booking.events.CreateIfNotExists(&models.PaymentWebhookEvent{
		Provider:        payment.ProviderStripe,
		ProviderEventID: event.EventID,
		EventType:       event.Type,
		PayloadJSON:     string(rawBody),
		SignatureValid:  true,
	})
	if err != nil {
		log.Printf("webhook: event persist failed: %v", err)
		return respondInternalError(c, "could not record webhook event")
	}
	if !created {
		// Exact redelivery of an already-recorded event id.
		return c.JSON(fiber.Map{"received": true, "duplicate": true})
	}

	result := booking.reconciler.HandleEvent(c.Context(), event)

	processingError := ""
	if err := result.Err(); err != nil {
		processingError = err.Error()
	}
	if err := booking.events.MarkProcessed(stored.ID, processingError); err != nil {
		log.Printf("webhook: mark processed failed for event %d: %v", stored.ID, err)
	}

	if result.Ignored {
		return c.JSON(fiber.Map{"received": true, "ignored": true})
	}
	return c.JSON(fiber.Map{"received": true})
}

type bookingResponse struct {
	models.Booking
	Status string `json:"status"`
}

// HandleMyBookings returns the authenticated buyer's bookings, each annotated
// with its derived temporal status.
func HandleMyBookings(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	rows, err := booking.bookings.GetByUserID(userCtx.UserID)
	if err != nil {
		log.Printf("bookings: list for user %d failed: %v", userCtx.UserID, err)
		return respondInternalError(c, "could not load bookings")
	}

	now := time.Now()
	data := make([]bookingResponse, 0, len(rows))
	for _, b := range rows {
		data = append(data, bookingResponse{
			Booking: b,
			Status:  b.TemporalStatus(now),
		})
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"count":  len(data),
		"data":   data,
	})
}
