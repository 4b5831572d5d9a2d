package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"movietix/app/models"
	"movietix/app/repository"
	"movietix/internal/pkg/cache"
	"movietix/internal/pkg/metrics/counter"
)

const movieListCacheKey = "movies:all"
const movieListCacheTTL = 5 * time.Minute

// HandleListMovies returns the full catalog, served from cache when possible.
func HandleListMovies(c *fiber.Ctx) error {
	if cached, err := cache.Get(movieListCacheKey); err == nil && cached != "" {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(cached)
	}

	repo := repository.GetGlobalFactory().GetMovieRepository()
	movies, err := repo.List(0, 500)
	if err != nil {
		log.Printf("movies: list failed: %v", err)
		return respondInternalError(c, "could not load movies")
	}

	body := fiber.Map{
		"status": "success",
		"count":  len(movies),
		"data":   movies,
	}
	if raw, err := json.Marshal(body); err == nil {
		if err := cache.Set(movieListCacheKey, string(raw), movieListCacheTTL); err != nil {
			log.Printf("movies: cache fill failed: %v", err)
		}
	}
	return c.JSON(body)
}

// HandleGetMovie returns a single catalog entry by id.
func HandleGetMovie(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return respondBadRequest(c, "invalid movie id")
	}

	repo := repository.GetGlobalFactory().GetMovieRepository()
	movie, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondNotFound(c, "movie not found")
		}
		log.Printf("movies: get %d failed: %v", id, err)
		return respondInternalError(c, "could not load movie")
	}

	if err := counter.AddMovieView(movie.ID); err != nil {
		log.Printf("movies: view counter for %d failed: %v", movie.ID, err)
	}

	return c.JSON(fiber.Map{"status": "success", "data": movie})
}

// HandleCreateMovie adds a catalog entry (admin only, enforced in the router).
func HandleCreateMovie(c *fiber.Ctx) error {
	var movie models.Movie
	if err := c.BodyParser(&movie); err != nil {
		return respondBadRequest(c, "undecodable movie")
	}
	movie.ID = 0

	if err := movie.Validate(); err != nil {
		return respondBadRequest(c, err.Error())
	}

	repo := repository.GetGlobalFactory().GetMovieRepository()
	if err := repo.Create(&movie); err != nil {
		log.Printf("movies: create failed: %v", err)
		return respondInternalError(c, "could not create movie")
	}
	invalidateMovieCache()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "success", "data": movie})
}

// HandleUpdateMovie patches an existing catalog entry (admin only).
func HandleUpdateMovie(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return respondBadRequest(c, "invalid movie id")
	}

	repo := repository.GetGlobalFactory().GetMovieRepository()
	movie, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondNotFound(c, "movie not found")
		}
		log.Printf("movies: get %d failed: %v", id, err)
		return respondInternalError(c, "could not load movie")
	}

	if err := c.BodyParser(movie); err != nil {
		return respondBadRequest(c, "undecodable movie")
	}
	movie.ID = id

	if err := movie.Validate(); err != nil {
		return respondBadRequest(c, err.Error())
	}
	if err := repo.Update(movie); err != nil {
		log.Printf("movies: update %d failed: %v", id, err)
		return respondInternalError(c, "could not update movie")
	}
	invalidateMovieCache()

	return c.JSON(fiber.Map{"status": "success", "data": movie})
}

// HandleDeleteMovie removes a catalog entry (admin only).
func HandleDeleteMovie(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return respondBadRequest(c, "invalid movie id")
	}

	repo := repository.GetGlobalFactory().GetMovieRepository()
	if _, err := repo.GetByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondNotFound(c, "movie not found")
		}
		log.Printf("movies: get %d failed: %v", id, err)
		return respondInternalError(c, "could not load movie")
	}

	if err := repo.Delete(id); err != nil {
		log.Printf("movies: delete %d failed: %v", id, err)
		return respondInternalError(c, "could not delete movie")
	}
	invalidateMovieCache()

	return c.JSON(fiber.Map{"status": "success"})
}

func parseIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

func invalidateMovieCache() {
	if err := cache.Delete(movieListCacheKey); err != nil {
		log.Printf("movies: cache invalidation failed: %v", err)
	}
}
