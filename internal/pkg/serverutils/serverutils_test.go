package serverutils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_IssueAndParse(t *testing.T) {
	tokens := NewTokenManager("secret", time.Hour)
	userId := uuid.New()

	signed, err := tokens.Issue(userId, "alice")
	require.NoError(t, err)

	claims, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, userId, claims.UserId)
	assert.Equal(t, "alice", claims.Username)
}

func TestTokenManager_RejectsBadTokens(t *testing.T) {
	tokens := NewTokenManager("secret", time.Hour)

	other, err := NewTokenManager("other", time.Hour).Issue(uuid.New(), "mallory")
	require.NoError(t, err)
	_, err = tokens.Parse(other)
	assert.Error(t, err)

	expired, err := NewTokenManager("secret", -time.Minute).Issue(uuid.New(), "old")
	require.NoError(t, err)
	_, err = tokens.Parse(expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	_, err = tokens.Parse("garbage")
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer abc"))
	assert.Equal(t, "", BearerToken("Basic abc"))
	assert.Equal(t, "", BearerToken(""))
}

func decode(t *testing.T, body io.Reader) BaseResponse[any] {
	t.Helper()
	var out BaseResponse[any]
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestJwtMiddleware(t *testing.T) {
	tokens := NewTokenManager("secret", time.Hour)
	userId := uuid.New()

	app := fiber.New()
	app.Get("/me", JwtMiddleware(tokens), func(ctx *fiber.Ctx) error {
		id, err := CurrentUserId(ctx)
		if err != nil {
			return err
		}
		return ctx.SendString(id.String())
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Missing token", decode(t, resp.Body).Message)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer nope")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	signed, err := tokens.Issue(userId, "alice")
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, userId.String(), string(body))
}

type signupRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func TestErrorHandlerMiddleware(t *testing.T) {
	errGone := errors.New("gone")
	resolver := func(err error) (int, string, bool) {
		if errors.Is(err, errGone) {
			return fiber.StatusNotFound, "Not found", true
		}
		return 0, "", false
	}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(resolver)})
	app.Use(ErrorHandlerMiddleware(resolver))
	app.Get("/gone", func(ctx *fiber.Ctx) error { return errGone })
	app.Get("/invalid", func(ctx *fiber.Ctx) error { return ValidateRequest(signupRequest{Email: "x"}) })
	app.Get("/boom", func(ctx *fiber.Ctx) error { return errors.New("db exploded") })

	tests := []struct {
		path    string
		status  int
		message string
	}{
		{path: "/gone", status: fiber.StatusNotFound, message: "Not found"},
		{path: "/invalid", status: fiber.StatusBadRequest, message: "email must be a valid email"},
		{path: "/boom", status: fiber.StatusInternalServerError, message: "Internal server error"},
		{path: "/missing-route", status: fiber.StatusNotFound, message: "Cannot GET /missing-route"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			body := decode(t, resp.Body)
			assert.False(t, body.Success)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}
