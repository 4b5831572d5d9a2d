package controllers

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"movietix/app/models"
)

type memUsers struct {
	byID map[uint]models.User
}

func (m *memUsers) Create(u *models.User) error {
	u.ID = uint(len(m.byID) + 1)
	m.byID[u.ID] = *u
	return nil
}

func (m *memUsers) GetByID(id uint) (*models.User, error) {
	if u, ok := m.byID[id]; ok {
		return &u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memUsers) GetByEmail(email string) (*models.User, error) {
	for _, u := range m.byID {
		if u.Email == strings.ToLower(strings.TrimSpace(email)) {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memUsers) Update(u *models.User) error {
	m.byID[u.ID] = *u
	return nil
}

func (m *memUsers) UpdateLastLogin(id uint, at time.Time) error {
	if u, ok := m.byID[id]; ok {
		u.LastLoginAt = &at
		m.byID[id] = u
	}
	return nil
}

func (m *memUsers) Count() (int64, error) { return int64(len(m.byID)), nil }

type memMovies struct {
	byID map[uint]models.Movie
}

func (m *memMovies) Create(mv *models.Movie) error {
	mv.ID = uint(len(m.byID) + 1)
	m.byID[mv.ID] = *mv
	return nil
}

func (m *memMovies) GetByID(id uint) (*models.Movie, error) {
	if mv, ok := m.byID[id]; ok {
		return &mv, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memMovies) GetByIDs(ids []uint) ([]models.Movie, error) {
	var out []models.Movie
	for _, id := range ids {
		if mv, ok := m.byID[id]; ok {
			out = append(out, mv)
		}
	}
	return out, nil
}

func (m *memMovies) List(offset, limit int) ([]models.Movie, error) {
	var out []models.Movie
	for _, mv := range m.byID {
		out = append(out, mv)
	}
	return out, nil
}

func (m *memMovies) Update(mv *models.Movie) error {
	m.byID[mv.ID] = *mv
	return nil
}

func (m *memMovies) Delete(id uint) error {
	delete(m.byID, id)
	return nil
}

func (m *memMovies) Count() (int64, error) { return int64(len(m.byID)), nil }

type memBookings struct {
	rows []models.Booking
}

func bookingKey(b *models.Booking) string {
	return fmt.Sprintf("%d|%d|%d|%d", b.UserID, b.MovieID, b.ShowTime.UnixNano(), b.TicketsCount)
}

func (m *memBookings) CreateIfNotExists(b *models.Booking) (bool, error) {
	key := bookingKey(b)
	for i := range m.rows {
		if bookingKey(&m.rows[i]) == key {
			return false, nil
		}
	}
	b.ID = uint(len(m.rows) + 1)
	b.CreatedAt = time.Now()
	m.rows = append(m.rows, *b)
	return true, nil
}

func (m *memBookings) FindByNaturalKey(userID, movieID uint, showTime time.Time, ticketsCount uint) (*models.Booking, error) {
	probe := models.Booking{UserID: userID, MovieID: movieID, ShowTime: showTime, TicketsCount: ticketsCount}
	key := bookingKey(&probe)
	for i := range m.rows {
		if bookingKey(&m.rows[i]) == key {
			return &m.rows[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memBookings) GetByUserID(userID uint) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range m.rows {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memBookings) Count() (int64, error) { return int64(len(m.rows)), nil }

type memEvents struct {
	rows []models.PaymentWebhookEvent
}

func (m *memEvents) CreateIfNotExists(e *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	for i := range m.rows {
		if m.rows[i].Provider == e.Provider && m.rows[i].ProviderEventID == e.ProviderEventID {
			return false, &m.rows[i], nil
		}
	}
	e.ID = uint(len(m.rows) + 1)
	e.CreatedAt = time.Now()
	m.rows = append(m.rows, *e)
	return true, &m.rows[len(m.rows)-1], nil
}

func (m *memEvents) MarkProcessed(id uint, processingError string) error {
	for i := range m.rows {
		if m.rows[i].ID == id {
			now := time.Now()
			m.rows[i].ProcessedAt = &now
			m.rows[i].ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memEvents) PurgeProcessedBefore(cutoff time.Time) (int64, error) {
	var kept []models.PaymentWebhookEvent
	var purged int64
	for _, e := range m.rows {
		if e.ProcessedAt != nil && e.CreatedAt.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, e)
	}
	m.rows = kept
	return purged, nil
}
