package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"

	BookingStatusUpcoming   = "upcoming"
	BookingStatusInProgress = "in-progress"
	BookingStatusCompleted  = "completed"
)

// ShowDuration is the fixed window after show start during which a booking
// counts as in-progress.
const ShowDuration = 3 * time.Hour

// Booking is one paid reservation for a movie showing. The composite unique
// index over (user, movie, show time, tickets) is the natural key that makes
// webhook reconciliation idempotent: redelivered payment events hit the
// constraint instead of inserting a second row.
type Booking struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;index:ux_bookings_natural_key,unique,priority:1" json:"user_id"`
	MovieID         uint      `gorm:"not null;index:ux_bookings_natural_key,unique,priority:2" json:"movie_id"`
	ShowTime        time.Time `gorm:"not null;index:ux_bookings_natural_key,unique,priority:3" json:"show_time"`
	TicketsCount    uint      `gorm:"not null;index:ux_bookings_natural_key,unique,priority:4" json:"tickets_count" validate:"gte=1"`
	AmountPaidCents int64     `gorm:"not null" json:"amount_paid_cents"`
	PaymentStatus   string    `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status" validate:"oneof=pending paid failed"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	User  *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Movie *Movie `gorm:"foreignKey:MovieID" json:"movie,omitempty"`
}

func (b *Booking) Validate() error {
	v := validator.New()

	return v.Struct(b)
}

// TemporalStatus derives the booking's display status at the given instant.
// Never stored; the boundary at exactly show time + ShowDuration is still
// in-progress, the instant after is completed.
func (b *Booking) TemporalStatus(now time.Time) string {
	start := b.ShowTime
	end := start.Add(ShowDuration)
	switch {
	case now.Before(start):
		return BookingStatusUpcoming
	case now.After(end):
		return BookingStatusCompleted
	default:
		return BookingStatusInProgress
	}
}
