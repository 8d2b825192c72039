package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// idParam parses the ":id" route parameter. A malformed id is reported as
// notFound so it reads the same as an unknown one.
func idParam(ctx *fiber.Ctx, notFound error) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, notFound
	}
	return id, nil
}
