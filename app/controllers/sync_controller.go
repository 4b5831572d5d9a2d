package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"movietix/internal/pkg/clientstate"
	"movietix/internal/pkg/usercontext"
)

// HandleGetClientState returns the server copy of a client-held document
// (cart or favorites) for the authenticated user.
func HandleGetClientState(c *fiber.Ctx) error {
	kind := c.Params("kind")
	userCtx := usercontext.GetUserContext(c)

	doc, err := clientstate.Load(kind, userCtx.UserID)
	if err != nil {
		if errors.Is(err, clientstate.ErrUnknownKind) {
			return respondBadRequest(c, "unknown state kind")
		}
		log.Printf("sync: load %s for user %d failed: %v", kind, userCtx.UserID, err)
		return respondInternalError(c, "could not load state")
	}

	return c.JSON(fiber.Map{"status": "success", "data": doc})
}

// HandlePutClientState merges the client's copy into the server copy (key
// union, newest timestamp wins) and returns the merged document for the
// client to adopt. Called on login and on explicit sync.
func HandlePutClientState(c *fiber.Ctx) error {
	kind := c.Params("kind")
	userCtx := usercontext.GetUserContext(c)

	var incoming clientstate.Document
	if err := c.BodyParser(&incoming); err != nil {
		return respondBadRequest(c, "undecodable state document")
	}

	merged, err := clientstate.MergeAndSave(kind, userCtx.UserID, incoming)
	if err != nil {
		if errors.Is(err, clientstate.ErrUnknownKind) {
			return respondBadRequest(c, "unknown state kind")
		}
		log.Printf("sync: merge %s for user %d failed: %v", kind, userCtx.UserID, err)
		return respondInternalError(c, "could not merge state")
	}

	return c.JSON(fiber.Map{"status": "success", "data": merged})
}
