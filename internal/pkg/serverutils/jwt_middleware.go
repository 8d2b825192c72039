package serverutils

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	localUserId   = "user_id"
	localUsername = "username"
)

// JwtMiddleware rejects requests without a valid bearer token and stores the
// caller in ctx.Locals.
func JwtMiddleware(tokens *TokenManager) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := BearerToken(ctx.Get(fiber.HeaderAuthorization))
		if tokenStr == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
		}

		claims, err := tokens.Parse(tokenStr)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}

		ctx.Locals(localUserId, claims.UserId)
		ctx.Locals(localUsername, claims.Username)
		return ctx.Next()
	}
}

// CurrentUserId returns the caller stored by JwtMiddleware.
func CurrentUserId(ctx *fiber.Ctx) (uuid.UUID, error) {
	userId, ok := ctx.Locals(localUserId).(uuid.UUID)
	if !ok || userId == uuid.Nil {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	return userId, nil
}
