package models

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// ErrUnknownCategory is returned when a movie category is not in MovieCategories.
var ErrUnknownCategory = errors.New("unknown movie category")

// Movie categories accepted by the catalog.
var MovieCategories = []string{
	"action", "comedy", "drama", "thriller", "horror",
	"romance", "sci-fi", "animation", "documentary", "other",
}

type Movie struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"type:varchar(200);not null" json:"title" validate:"required,min=1,max=200"`
	PosterImage string         `gorm:"type:varchar(255);not null" json:"poster_image" validate:"required,max=255"`
	Description string         `gorm:"type:text;default:'no description'" json:"description"`
	// PriceCents is the ticket price in minor currency units. Line amounts are
	// PriceCents * tickets, so the column stays integer to avoid rounding drift.
	PriceCents  int64          `gorm:"not null" json:"price_cents" validate:"gte=0"`
	ReleaseYear int            `json:"release_year" validate:"omitempty,gte=1888"`
	Category    string         `gorm:"type:varchar(50);not null" json:"category" validate:"required"`
	// ViewCount is eventually consistent: detail views accumulate in Redis and
	// are flushed in batches.
	ViewCount   int64          `gorm:"not null;default:0" json:"view_count"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (m *Movie) Validate() error {
	v := validator.New()

	if err := v.Struct(m); err != nil {
		return err
	}
	return m.validateCategory()
}

func (m *Movie) validateCategory() error {
	cat := strings.ToLower(strings.TrimSpace(m.Category))
	for _, c := range MovieCategories {
		if cat == c {
			return nil
		}
	}
	return ErrUnknownCategory
}

// BeforeSave normalizes the category, mirroring validation.
func (m *Movie) BeforeSave(tx *gorm.DB) error {
	m.Category = strings.ToLower(strings.TrimSpace(m.Category))
	return nil
}
