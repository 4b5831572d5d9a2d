package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"movietix/app/models"
	"movietix/internal/pkg/env"
)

// CatalogLookup is the slice of the movie repository the checkout flow needs.
// app/repository.MovieRepository satisfies it.
type CatalogLookup interface {
	GetByIDs(ids []uint) ([]models.Movie, error)
	GetByID(id uint) (*models.Movie, error)
}

// CheckoutConfig carries the redirect targets and currency for hosted sessions.
type CheckoutConfig struct {
	Currency      string
	SuccessURL    string
	CancelURL     string
	PublicBaseURL string
}

// CheckoutService validates carts against the catalog and opens hosted payment
// sessions. It holds no local state: until the provider's completion event
// arrives, the session (with its reconciliation payload) is the only record of
// buyer intent.
type CheckoutService struct {
	movies CatalogLookup
	stripe *StripeClient
	cfg    CheckoutConfig
}

// NewCheckoutService creates a checkout service from injected collaborators.
func NewCheckoutService(movies CatalogLookup, stripe *StripeClient, cfg CheckoutConfig) *CheckoutService {
	return &CheckoutService{movies: movies, stripe: stripe, cfg: cfg}
}

// NewCheckoutServiceFromEnv wires the service against env-based configuration.
func NewCheckoutServiceFromEnv(movies CatalogLookup) *CheckoutService {
	frontend := strings.TrimRight(env.GetEnv("FRONTEND_URL", "http://localhost:4200"), "/")
	return NewCheckoutService(movies, NewStripeClientFromEnv(), CheckoutConfig{
		Currency:      env.GetEnv("CHECKOUT_CURRENCY", "usd"),
		SuccessURL:    frontend + "/payment-success",
		CancelURL:     frontend + "/payment-cancel",
		PublicBaseURL: strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/"),
	})
}

type checkoutRequest struct {
	Lines []CartLine `validate:"required,min=1,dive"`
}

// CreateSession resolves the cart against the catalog, computes integer
// minor-unit amounts per line, embeds the reconciliation payload, and opens a
// hosted session. All-or-nothing: one unresolved movie rejects the whole cart.
func (s *CheckoutService) CreateSession(ctx context.Context, user *models.User, lines []CartLine) (*CheckoutSession, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: items array is required with at least one item", ErrValidation)
	}
	v := validator.New()
	if err := v.Struct(checkoutRequest{Lines: lines}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	// Snapshot show times now so the payload carries concrete values and the
	// natural key stays stable across webhook redeliveries.
	snapshot := make([]CartLine, len(lines))
	defaultShow := time.Now().UTC().Truncate(time.Second)
	for i, line := range lines {
		snapshot[i] = line
		if line.ShowTime == nil {
			t := defaultShow
			snapshot[i].ShowTime = &t
		} else {
			t := line.ShowTime.UTC().Truncate(time.Second)
			snapshot[i].ShowTime = &t
		}
	}

	ids := make([]uint, 0, len(snapshot))
	for _, line := range snapshot {
		ids = append(ids, line.MovieID)
	}
	movies, err := s.movies.GetByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Movie, len(movies))
	for _, m := range movies {
		byID[m.ID] = m
	}
	for _, line := range snapshot {
		if _, ok := byID[line.MovieID]; !ok {
			return nil, fmt.Errorf("%w: movie %d", ErrNotFound, line.MovieID)
		}
	}

	items := make([]LineItem, 0, len(snapshot))
	for _, line := range snapshot {
		movie := byID[line.MovieID]
		items = append(items, LineItem{
			Name:            movie.Title,
			ImageURL:        s.posterURL(movie.PosterImage),
			Currency:        s.cfg.Currency,
			UnitAmountCents: movie.PriceCents,
			Quantity:        line.TicketsCount,
		})
	}

	payload := CheckoutPayload{
		Version: PayloadVersion,
		UserID:  user.ID,
		Lines:   snapshot,
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return s.stripe.CreateCheckoutSession(ctx, SessionParams{
		SuccessURL:        s.cfg.SuccessURL,
		CancelURL:         s.cfg.CancelURL,
		CustomerEmail:     user.Email,
		ClientReferenceID: uuid.NewString(),
		LineItems:         items,
		Metadata: map[string]string{
			"user_id": strconv.FormatUint(uint64(user.ID), 10),
			"payload": string(payloadJSON),
		},
	})
}

func (s *CheckoutService) posterURL(posterImage string) string {
	if posterImage == "" {
		return ""
	}
	if strings.HasPrefix(posterImage, "http://") || strings.HasPrefix(posterImage, "https://") {
		return posterImage
	}
	if s.cfg.PublicBaseURL == "" {
		return ""
	}
	return s.cfg.PublicBaseURL + "/moviePosters/" + strings.TrimLeft(posterImage, "/")
}
