package serverutils

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// StatusResolver maps a domain error to an HTTP status and a client-facing
// message. ok is false when the resolver does not know the error.
type StatusResolver func(err error) (status int, message string, ok bool)

func resolve(err error, resolvers []StatusResolver) (int, string) {
	for _, r := range resolvers {
		if status, message, ok := r(err); ok {
			return status, message
		}
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return fiber.StatusBadRequest, validationMessage(validationErrs)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message
	}

	return fiber.StatusInternalServerError, "Internal server error"
}

// ErrorHandlerMiddleware renders errors returned by downstream handlers in
// the BaseResponse envelope.
func ErrorHandlerMiddleware(resolvers ...StatusResolver) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		status, message := resolve(err, resolvers)
		return ctx.Status(status).JSON(ErrorResponse(status, message))
	}
}

// ErrorHandler is the fiber.Config fallback for errors raised outside the
// middleware chain, such as unknown routes.
func ErrorHandler(resolvers ...StatusResolver) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		status, message := resolve(err, resolvers)
		return ctx.Status(status).JSON(ErrorResponse(status, message))
	}
}
