package controllers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"movietix/app/models"
	"movietix/app/repository"
	"movietix/internal/pkg/token"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates a new user account and returns a bearer token.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadRequest(c, "undecodable registration request")
	}

	user, err := models.CreateUser(req.Name, req.Email, req.Password)
	if err != nil {
		return respondBadRequest(c, err.Error())
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if _, err := repo.GetByEmail(user.Email); err == nil {
		return respondBadRequest(c, "email is already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("register: email lookup failed: %v", err)
		return respondInternalError(c, "registration failed")
	}

	if err := repo.Create(user); err != nil {
		log.Printf("register: user create failed: %v", err)
		return respondInternalError(c, "registration failed")
	}

	t, err := token.Issue(user)
	if err != nil {
		log.Printf("register: token issue failed: %v", err)
		return respondInternalError(c, "registration failed")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "success",
		"token":  t,
		"data":   user,
	})
}

// HandleSignin checks credentials and returns a bearer token.
func HandleSignin(c *fiber.Ctx) error {
	var req signinRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadRequest(c, "undecodable signin request")
	}
	if req.Email == "" || req.Password == "" {
		return respondBadRequest(c, "email and password are required")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, fiber.StatusUnauthorized, "invalid credentials")
		}
		log.Printf("signin: user lookup failed: %v", err)
		return respondInternalError(c, "signin failed")
	}

	if !user.CheckPassword(req.Password) {
		return respondError(c, fiber.StatusUnauthorized, "invalid credentials")
	}
	if !user.IsActive() {
		return respondError(c, fiber.StatusForbidden, "account is disabled")
	}

	if err := repo.UpdateLastLogin(user.ID, time.Now()); err != nil {
		log.Printf("signin: last login update failed: %v", err)
	}

	t, err := token.Issue(user)
	if err != nil {
		log.Printf("signin: token issue failed: %v", err)
		return respondInternalError(c, "signin failed")
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"token":  t,
		"data":   user,
	})
}
