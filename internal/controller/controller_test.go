package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"messpal-be/internal/dto"
	"messpal-be/internal/pkg/serverutils"
	"messpal-be/internal/pkg/testdb"
	"messpal-be/internal/repository/unitofwork"
	"messpal-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	uowFactory := unitofwork.NewRepositoryFactory(testdb.New(t))
	tokens := serverutils.NewTokenManager("test-secret", time.Hour)

	app := fiber.New(fiber.Config{ErrorHandler: serverutils.ErrorHandler(service.StatusOf)})
	app.Use(serverutils.ErrorHandlerMiddleware(service.StatusOf))
	api := app.Group("/api")
	NewAuthController(service.NewAuthService(uowFactory, tokens), tokens).RegisterRoutes(api)
	NewChatController(service.NewChatService(uowFactory), tokens).RegisterRoutes(api)
	NewInstructionController(service.NewInstructionService(uowFactory), tokens).RegisterRoutes(api)
	return app
}

func call(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func register(t *testing.T, app *fiber.App, name string) string {
	t.Helper()
	status, env := call(t, app, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Username: name,
		Email:    name + "@example.com",
		Password: "secret123",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)

	var res dto.AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	return res.Token
}

func TestAuthController_RegisterLoginMe(t *testing.T) {
	app := newTestApp(t)
	register(t, app, "wren")

	status, env := call(t, app, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "wren@example.com", Password: "secret123"})
	require.Equal(t, http.StatusOK, status)
	var auth dto.AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &auth))

	status, env = call(t, app, http.MethodGet, "/api/auth/me", auth.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var me dto.UserResponse
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "wren", me.Username)

	status, env = call(t, app, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "wren@example.com", Password: "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", env.Message)

	status, _ = call(t, app, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{Username: "x", Email: "bad", Password: "1"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestChatController_RequiresToken(t *testing.T) {
	app := newTestApp(t)

	status, env := call(t, app, http.MethodGet, "/api/chats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Missing token", env.Message)

	status, env = call(t, app, http.MethodGet, "/api/chats", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid token", env.Message)
}

func TestChatController_ForeignAndMissingLookAlike(t *testing.T) {
	app := newTestApp(t)
	owner := register(t, app, "xena")
	other := register(t, app, "yuri")

	status, env := call(t, app, http.MethodPost, "/api/chats", owner, dto.CreateChatRequest{InitialMessage: "hello"})
	require.Equal(t, http.StatusCreated, status)
	var chat dto.ChatResponse
	require.NoError(t, json.Unmarshal(env.Data, &chat))
	require.Len(t, chat.Messages, 1)

	status, env = call(t, app, http.MethodGet, "/api/chats/"+chat.Id.String(), owner, nil)
	assert.Equal(t, http.StatusOK, status)

	foreignStatus, foreign := call(t, app, http.MethodGet, "/api/chats/"+chat.Id.String(), other, nil)
	missingStatus, missing := call(t, app, http.MethodGet, "/api/chats/00000000-0000-0000-0000-000000000001", other, nil)
	malformedStatus, malformed := call(t, app, http.MethodGet, "/api/chats/not-a-uuid", other, nil)

	assert.Equal(t, http.StatusNotFound, foreignStatus)
	assert.Equal(t, foreignStatus, missingStatus)
	assert.Equal(t, foreignStatus, malformedStatus)
	assert.Equal(t, missing, foreign)
	assert.Equal(t, missing, malformed)

	status, _ = call(t, app, http.MethodDelete, "/api/chats/"+chat.Id.String(), other, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = call(t, app, http.MethodDelete, "/api/chats/"+chat.Id.String(), owner, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestChatController_CreateWithoutBody(t *testing.T) {
	app := newTestApp(t)
	token := register(t, app, "zane")

	status, env := call(t, app, http.MethodPost, "/api/chats", token, nil)
	require.Equal(t, http.StatusCreated, status)
	var chat dto.ChatResponse
	require.NoError(t, json.Unmarshal(env.Data, &chat))
	assert.Empty(t, chat.Messages)

	status, env = call(t, app, http.MethodGet, "/api/chats", token, nil)
	require.Equal(t, http.StatusOK, status)
	var list []dto.ChatSummaryResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, chat.Id, list[0].Id)
}

func TestInstructionController_SingleDefault(t *testing.T) {
	app := newTestApp(t)
	token := register(t, app, "abel")

	status, _ := call(t, app, http.MethodGet, "/api/instructions/default", token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	var created []dto.InstructionResponse
	for _, name := range []string{"Tutor", "Editor"} {
		status, env := call(t, app, http.MethodPost, "/api/instructions", token, dto.CreateInstructionRequest{
			Name: name, Content: name + " prompt", IsDefault: true,
		})
		require.Equal(t, http.StatusCreated, status, env.Message)
		var ins dto.InstructionResponse
		require.NoError(t, json.Unmarshal(env.Data, &ins))
		created = append(created, ins)
	}

	status, env := call(t, app, http.MethodGet, "/api/instructions", token, nil)
	require.Equal(t, http.StatusOK, status)
	var list []dto.InstructionResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	defaults := 0
	for _, ins := range list {
		if ins.IsDefault {
			defaults++
			assert.Equal(t, created[1].Id, ins.Id)
		}
	}
	assert.Equal(t, 1, defaults)

	status, env = call(t, app, http.MethodPut, "/api/instructions/"+created[0].Id.String(), token, dto.UpdateInstructionRequest{
		Name: "Tutor", Content: "Tutor prompt v2", IsDefault: true,
	})
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = call(t, app, http.MethodGet, "/api/instructions/default", token, nil)
	require.Equal(t, http.StatusOK, status)
	var def dto.InstructionResponse
	require.NoError(t, json.Unmarshal(env.Data, &def))
	assert.Equal(t, created[0].Id, def.Id)

	status, env = call(t, app, http.MethodPost, "/api/instructions", token, dto.CreateInstructionRequest{Name: "Tutor", Content: "dup"})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = call(t, app, http.MethodDelete, "/api/instructions/"+created[1].Id.String(), token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, app, http.MethodGet, "/api/instructions/"+created[1].Id.String(), token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}
