package service

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrChatNotFound        = errors.New("chat not found")
	ErrInstructionNotFound = errors.New("instruction not found")
	ErrInstructionExists   = errors.New("instruction name already in use")
	ErrEmptyMessage        = errors.New("message is empty")
	ErrCompletionFailed    = errors.New("failed to generate response")
	ErrPersistFailed       = errors.New("failed to save message")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUsernameTaken       = errors.New("username or email already registered")
)

// StatusOf is the serverutils.StatusResolver for service errors.
func StatusOf(err error) (int, string, bool) {
	switch {
	case errors.Is(err, ErrChatNotFound):
		return fiber.StatusNotFound, "Chat not found", true
	case errors.Is(err, ErrInstructionNotFound):
		return fiber.StatusNotFound, "Instruction not found", true
	case errors.Is(err, ErrInstructionExists):
		return fiber.StatusConflict, "An instruction with this name already exists", true
	case errors.Is(err, ErrInvalidCredentials):
		return fiber.StatusUnauthorized, "Invalid credentials", true
	case errors.Is(err, ErrUsernameTaken):
		return fiber.StatusConflict, "User already exists", true
	case errors.Is(err, ErrEmptyMessage):
		return fiber.StatusBadRequest, "Message is empty", true
	}
	return 0, "", false
}

// SocketMessage is the text sent in an error event to the originating
// connection.
func SocketMessage(err error) string {
	switch {
	case errors.Is(err, ErrChatNotFound):
		return "Chat not found"
	case errors.Is(err, ErrCompletionFailed):
		return "Failed to generate response"
	default:
		return "Failed to save message"
	}
}
