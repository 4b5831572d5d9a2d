package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"movietix/app/models"
)

// bookingRepository implements the BookingRepository interface
type bookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository creates a new booking repository instance
func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

// CreateIfNotExists inserts the booking guarded by the natural-key unique
// index. The conflict clause makes the insert a no-op instead of an error when
// a concurrent delivery already materialized the same booking.
func (r *bookingRepository) CreateIfNotExists(booking *models.Booking) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "movie_id"},
			{Name: "show_time"},
			{Name: "tickets_count"},
		},
		DoNothing: true,
	}).Create(booking)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// FindByNaturalKey looks up a booking by its dedup tuple
func (r *bookingRepository) FindByNaturalKey(userID, movieID uint, showTime time.Time, ticketsCount uint) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.
		Where("user_id = ? AND movie_id = ? AND show_time = ? AND tickets_count = ?",
			userID, movieID, showTime, ticketsCount).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByUserID retrieves all bookings owned by the given user, newest first,
// with buyer and movie display data preloaded
func (r *bookingRepository) GetByUserID(userID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.
		Preload("Movie").
		Preload("User").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookings).Error
	return bookings, err
}

// Count returns the total number of bookings
func (r *bookingRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Booking{}).Count(&count).Error
	return count, err
}
