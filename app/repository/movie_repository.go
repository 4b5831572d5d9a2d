package repository

import (
	"gorm.io/gorm"

	"movietix/app/models"
)

// movieRepository implements the MovieRepository interface
type movieRepository struct {
	db *gorm.DB
}

// NewMovieRepository creates a new movie repository instance
func NewMovieRepository(db *gorm.DB) MovieRepository {
	return &movieRepository{db: db}
}

// Create creates a new movie in the database
func (r *movieRepository) Create(movie *models.Movie) error {
	return r.db.Create(movie).Error
}

// GetByID retrieves a movie by its ID
func (r *movieRepository) GetByID(id uint) (*models.Movie, error) {
	var movie models.Movie
	err := r.db.First(&movie, id).Error
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// GetByIDs retrieves all movies matching the given ids in one query
func (r *movieRepository) GetByIDs(ids []uint) ([]models.Movie, error) {
	var movies []models.Movie
	if len(ids) == 0 {
		return movies, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&movies).Error
	return movies, err
}

// List retrieves movies with pagination
func (r *movieRepository) List(offset, limit int) ([]models.Movie, error) {
	var movies []models.Movie
	err := r.db.Offset(offset).Limit(limit).Order("created_at DESC").Find(&movies).Error
	return movies, err
}

// Update saves changes to an existing movie
func (r *movieRepository) Update(movie *models.Movie) error {
	return r.db.Save(movie).Error
}

// Delete soft-deletes a movie by ID
func (r *movieRepository) Delete(id uint) error {
	return r.db.Delete(&models.Movie{}, id).Error
}

// Count returns the total number of movies
func (r *movieRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Movie{}).Count(&count).Error
	return count, err
}
