package payment

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"movietix/app/models"
)

type fakeCatalog struct {
	movies map[uint]models.Movie
}

func (f *fakeCatalog) GetByIDs(ids []uint) ([]models.Movie, error) {
	var out []models.Movie
	for _, id := range ids {
		if m, ok := f.movies[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetByID(id uint) (*models.Movie, error) {
	if m, ok := f.movies[id]; ok {
		return &m, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeBuyers struct {
	users map[uint]models.User
}

func (f *fakeBuyers) GetByID(id uint) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return &u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// fakeBookings enforces natural-key uniqueness the way the MySQL composite
// index does, so idempotency tests exercise the same guarantee.
type fakeBookings struct {
	rows []models.Booking
}

func (f *fakeBookings) naturalKey(b *models.Booking) string {
	return fmt.Sprintf("%d|%d|%d|%d", b.UserID, b.MovieID, b.ShowTime.UnixNano(), b.TicketsCount)
}

func (f *fakeBookings) CreateIfNotExists(b *models.Booking) (bool, error) {
	key := f.naturalKey(b)
	for i := range f.rows {
		if f.naturalKey(&f.rows[i]) == key {
			return false, nil
		}
	}
	b.ID = uint(len(f.rows) + 1)
	b.CreatedAt = time.Now()
	f.rows = append(f.rows, *b)
	return true, nil
}
