package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movietix/app/models"
	"movietix/internal/pkg/payment"
	"movietix/internal/pkg/usercontext"
)

const testWebhookSecret = "whsec_controller_test"

type bookingTestEnv struct {
	app      *fiber.App
	users    *memUsers
	movies   *memMovies
	bookings *memBookings
	events   *memEvents
	user     *models.User
	stripe   *httptest.Server
}

func newBookingTestEnv(t *testing.T) *bookingTestEnv {
	t.Helper()
	t.Setenv("STRIPE_WEBHOOK_SECRET", testWebhookSecret)

	stripe := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"cs_test_1","url":"https://checkout.stripe.example/pay/cs_test_1"}`)
	}))
	t.Cleanup(stripe.Close)

	user := &models.User{Name: "Nikolai", Email: "nikolai@example.com", Role: models.ROLE_USER, Status: models.STATUS_ACTIVE}
	users := &memUsers{byID: map[uint]models.User{}}
	require.NoError(t, users.Create(user))

	movies := &memMovies{byID: map[uint]models.Movie{
		1: {Title: "Solaris", Category: "sci-fi", PriceCents: 1999},
		2: {Title: "Stalker", Category: "sci-fi", PriceCents: 1250},
	}}
	for id, m := range movies.byID {
		m.ID = id
		movies.byID[id] = m
	}

	bookings := &memBookings{}
	events := &memEvents{}

	checkout := payment.NewCheckoutService(movies, &payment.StripeClient{
		SecretKey:  "sk_test_x",
		APIBaseURL: stripe.URL,
		HTTPClient: stripe.Client(),
	}, payment.CheckoutConfig{
		Currency:   "usd",
		SuccessURL: "http://localhost:4200/payment-success",
		CancelURL:  "http://localhost:4200/payment-cancel",
	})
	initializeBookingControllerWith(bookingDeps{
		checkout:   checkout,
		reconciler: payment.NewReconciler(users, movies, bookings),
		users:      users,
		bookings:   bookings,
		events:     events,
	})

	app := fiber.New()
	authed := func(c *fiber.Ctx) error {
		c.Locals(usercontext.KeyUserContext, usercontext.UserContext{
			UserID:     user.ID,
			Email:      user.Email,
			Name:       user.Name,
			IsLoggedIn: true,
		})
		return c.Next()
	}
	app.Post("/bookings/create-checkout-session", authed, HandleCreateCheckoutSession)
	app.Post("/bookings/webhook", HandleStripeWebhook)
	app.Get("/bookings/my-bookings", authed, HandleMyBookings)

	return &bookingTestEnv{
		app:      app,
		users:    users,
		movies:   movies,
		bookings: bookings,
		events:   events,
		user:     user,
		stripe:   stripe,
	}
}

func (e *bookingTestEnv) completedEventBody(t *testing.T, eventID string, lines []payment.CartLine) []byte {
	t.Helper()
	payloadJSON, err := json.Marshal(payment.CheckoutPayload{
		Version: payment.PayloadVersion,
		UserID:  e.user.ID,
		Lines:   lines,
	})
	require.NoError(t, err)

	body, err := json.Marshal(map[string]any{
		"id":      eventID,
		"type":    payment.EventCheckoutCompleted,
		"created": time.Now().Unix(),
		"data": map[string]any{
			"object": map[string]any{
				"id":       "cs_test_1",
				"metadata": map[string]string{"payload": string(payloadJSON)},
			},
		},
	})
	require.NoError(t, err)
	return body
}

func (e *bookingTestEnv) deliverWebhook(t *testing.T, body []byte, signature string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/bookings/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeJSONBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestCreateCheckoutSessionReturnsRedirectURL(t *testing.T) {
	env := newBookingTestEnv(t)

	show := time.Date(2026, 9, 12, 19, 30, 0, 0, time.UTC)
	body, err := json.Marshal(map[string]any{
		"items": []payment.CartLine{{MovieID: 1, TicketsCount: 3, ShowTime: &show}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/bookings/create-checkout-session", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	got := decodeJSONBody(t, resp)
	assert.Equal(t, "success", got["status"])
	assert.Equal(t, "https://checkout.stripe.example/pay/cs_test_1", got["sessionUrl"])
}

func TestCreateCheckoutSessionRejectsEmptyCart(t *testing.T) {
	env := newBookingTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/bookings/create-checkout-session", strings.NewReader(`{"items":[]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCreateCheckoutSessionUnknownMovieIs404(t *testing.T) {
	env := newBookingTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/bookings/create-checkout-session",
		strings.NewReader(`{"items":[{"movieId":999,"ticketsCount":1}]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestWebhookCreatesBookingsFromSignedEvent(t *testing.T) {
	env := newBookingTestEnv(t)

	show := time.Date(2026, 9, 12, 19, 30, 0, 0, time.UTC)
	body := env.completedEventBody(t, "evt_100", []payment.CartLine{
		{MovieID: 1, TicketsCount: 3, ShowTime: &show},
		{MovieID: 2, TicketsCount: 1, ShowTime: &show},
	})

	resp := env.deliverWebhook(t, body, payment.SignPayload(body, testWebhookSecret, time.Now()))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	got := decodeJSONBody(t, resp)
	assert.Equal(t, true, got["received"])

	require.Len(t, env.bookings.rows, 2)
	assert.Equal(t, int64(5997), env.bookings.rows[0].AmountPaidCents)
	assert.Equal(t, models.PaymentStatusPaid, env.bookings.rows[0].PaymentStatus)
	require.Len(t, env.events.rows, 1)
	assert.NotNil(t, env.events.rows[0].ProcessedAt)
	assert.Empty(t, env.events.rows[0].ProcessingError)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	env := newBookingTestEnv(t)

	body := env.completedEventBody(t, "evt_101", []payment.CartLine{{MovieID: 1, TicketsCount: 1}})

	resp := env.deliverWebhook(t, body, payment.SignPayload(body, "whsec_wrong", time.Now()))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, env.bookings.rows)
	assert.Empty(t, env.events.rows)
}

func TestWebhookDuplicateEventIDShortCircuits(t *testing.T) {
	env := newBookingTestEnv(t)

	show := time.Date(2026, 9, 12, 19, 30, 0, 0, time.UTC)
	body := env.completedEventBody(t, "evt_102", []payment.CartLine{{MovieID: 1, TicketsCount: 2, ShowTime: &show}})
	sig := payment.SignPayload(body, testWebhookSecret, time.Now())

	first := env.deliverWebhook(t, body, sig)
	assert.Equal(t, fiber.StatusOK, first.StatusCode)
	first.Body.Close()

	second := env.deliverWebhook(t, body, sig)
	assert.Equal(t, fiber.StatusOK, second.StatusCode)
	got := decodeJSONBody(t, second)
	assert.Equal(t, true, got["duplicate"])

	assert.Len(t, env.bookings.rows, 1)
	assert.Len(t, env.events.rows, 1)
}

func TestWebhookRedeliveryUnderNewEventIDStillBooksOnce(t *testing.T) {
	env := newBookingTestEnv(t)

	show := time.Date(2026, 9, 12, 19, 30, 0, 0, time.UTC)
	lines := []payment.CartLine{{MovieID: 1, TicketsCount: 2, ShowTime: &show}}

	first := env.completedEventBody(t, "evt_103", lines)
	resp := env.deliverWebhook(t, first, payment.SignPayload(first, testWebhookSecret, time.Now()))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Same logical order delivered again under a fresh event id. The natural
	// key on bookings keeps it a no-op.
	second := env.completedEventBody(t, "evt_104", lines)
	resp = env.deliverWebhook(t, second, payment.SignPayload(second, testWebhookSecret, time.Now()))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp.Body.Close()

	assert.Len(t, env.bookings.rows, 1)
	assert.Len(t, env.events.rows, 2)
}

func TestWebhookIgnoresUnknownEventType(t *testing.T) {
	env := newBookingTestEnv(t)

	body, err := json.Marshal(map[string]any{
		"id":      "evt_105",
		"type":    "payment_intent.created",
		"created": time.Now().Unix(),
		"data":    map[string]any{"object": map[string]any{"id": "pi_1"}},
	})
	require.NoError(t, err)

	resp := env.deliverWebhook(t, body, payment.SignPayload(body, testWebhookSecret, time.Now()))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	got := decodeJSONBody(t, resp)
	assert.Equal(t, true, got["ignored"])
	assert.Empty(t, env.bookings.rows)
}

func TestWebhookRecordsErrorForDeletedMovieLine(t *testing.T) {
	env := newBookingTestEnv(t)

	show := time.Date(2026, 9, 12, 19, 30, 0, 0, time.UTC)
	body := env.completedEventBody(t, "evt_106", []payment.CartLine{
		{MovieID: 1, TicketsCount: 1, ShowTime: &show},
		{MovieID: 777, TicketsCount: 1, ShowTime: &show},
	})

	resp := env.deliverWebhook(t, body, payment.SignPayload(body, testWebhookSecret, time.Now()))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp.Body.Close()

	assert.Len(t, env.bookings.rows, 1)
	require.Len(t, env.events.rows, 1)
	assert.Contains(t, env.events.rows[0].ProcessingError, "movie 777")
}

func TestMyBookingsAnnotatesTemporalStatus(t *testing.T) {
	env := newBookingTestEnv(t)

	now := time.Now().UTC().Truncate(time.Second)
	for i, show := range []time.Time{now.Add(48 * time.Hour), now.Add(-time.Hour), now.Add(-5 * time.Hour)} {
		created, err := env.bookings.CreateIfNotExists(&models.Booking{
			UserID:        env.user.ID,
			MovieID:       1,
			ShowTime:      show,
			TicketsCount:  uint(i + 1),
			PaymentStatus: models.PaymentStatusPaid,
		})
		require.NoError(t, err)
		require.True(t, created)
	}

	req := httptest.NewRequest(http.MethodGet, "/bookings/my-bookings", nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	got := decodeJSONBody(t, resp)
	assert.Equal(t, float64(3), got["count"])

	data, ok := got["data"].([]any)
	require.True(t, ok)
	statuses := make([]string, 0, len(data))
	for _, entry := range data {
		row, ok := entry.(map[string]any)
		require.True(t, ok)
		statuses = append(statuses, row["status"].(string))
	}
	assert.ElementsMatch(t, []string{
		models.BookingStatusUpcoming,
		models.BookingStatusInProgress,
		models.BookingStatusCompleted,
	}, statuses)
}
