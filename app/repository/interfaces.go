package repository

import (
	"time"

	"gorm.io/gorm"

	"movietix/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	UpdateLastLogin(id uint, at time.Time) error
	Count() (int64, error)
}

// MovieRepository defines the interface for catalog database operations
type MovieRepository interface {
	Create(movie *models.Movie) error
	GetByID(id uint) (*models.Movie, error)
	// GetByIDs resolves a set of movie ids in one batch query. Missing ids are
	// simply absent from the result; callers decide whether that is an error.
	GetByIDs(ids []uint) ([]models.Movie, error)
	List(offset, limit int) ([]models.Movie, error)
	Update(movie *models.Movie) error
	Delete(id uint) error
	Count() (int64, error)
}

// BookingRepository defines the interface for booking persistence
type BookingRepository interface {
	// CreateIfNotExists inserts the booking unless a row with the same natural
	// key (user, movie, show time, tickets) already exists. Returns whether a
	// row was actually inserted.
	CreateIfNotExists(booking *models.Booking) (bool, error)
	FindByNaturalKey(userID, movieID uint, showTime time.Time, ticketsCount uint) (*models.Booking, error)
	GetByUserID(userID uint) ([]models.Booking, error)
	Count() (int64, error)
}

// WebhookEventRepository defines the interface for payment webhook event dedup
type WebhookEventRepository interface {
	// CreateIfNotExists inserts the event unless (provider, provider_event_id)
	// was already recorded. Returns whether the event is new plus the stored row.
	CreateIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error)
	MarkProcessed(id uint, processingError string) error
	// PurgeProcessedBefore drops processed events older than the cutoff so the
	// dedup table keeps a bounded retention window.
	PurgeProcessedBefore(cutoff time.Time) (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	Movie        MovieRepository
	Booking      BookingRepository
	WebhookEvent WebhookEventRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Movie:        NewMovieRepository(db),
		Booking:      NewBookingRepository(db),
		WebhookEvent: NewWebhookEventRepository(db),
	}
}
