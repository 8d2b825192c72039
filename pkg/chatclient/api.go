package chatclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"messpal-be/internal/dto"
	"messpal-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const requestTimeout = 15 * time.Second

// API is a thin client for the REST half of the service.
type API struct {
	baseURL string
	token   string
}

// NewAPI points at a server root such as http://localhost:5000.
func NewAPI(baseURL string) *API {
	return &API{baseURL: strings.TrimRight(baseURL, "/")}
}

func (a *API) Token() string {
	return a.token
}

func (a *API) SetToken(token string) {
	a.token = token
}

// SocketURL derives the live-connection endpoint from the base URL.
func (a *API) SocketURL() string {
	u := a.baseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/api/ws"
}

func (a *API) Login(email, password string) (*dto.AuthResponse, error) {
	var res dto.AuthResponse
	if err := a.do(fiber.MethodPost, "/api/auth/login", dto.LoginRequest{Email: email, Password: password}, &res); err != nil {
		return nil, err
	}
	a.token = res.Token
	return &res, nil
}

func (a *API) Register(username, email, password string) (*dto.AuthResponse, error) {
	var res dto.AuthResponse
	req := dto.RegisterRequest{Username: username, Email: email, Password: password}
	if err := a.do(fiber.MethodPost, "/api/auth/register", req, &res); err != nil {
		return nil, err
	}
	a.token = res.Token
	return &res, nil
}

func (a *API) Me() (*dto.UserResponse, error) {
	var res dto.UserResponse
	if err := a.do(fiber.MethodGet, "/api/auth/me", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (a *API) ListChats() ([]dto.ChatSummaryResponse, error) {
	var res []dto.ChatSummaryResponse
	if err := a.do(fiber.MethodGet, "/api/chats", nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (a *API) GetChat(id uuid.UUID) (*dto.ChatResponse, error) {
	var res dto.ChatResponse
	if err := a.do(fiber.MethodGet, "/api/chats/"+id.String(), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (a *API) ListInstructions() ([]*dto.InstructionResponse, error) {
	var res []*dto.InstructionResponse
	if err := a.do(fiber.MethodGet, "/api/instructions", nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// do sends one request and unwraps the response envelope into out.
func (a *API) do(method, path string, body interface{}, out interface{}) error {
	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(a.baseURL + path)
	if a.token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+a.token)
	}
	if body != nil {
		agent.JSON(body)
	}
	agent.Timeout(requestTimeout)

	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return err
	}

	code, raw, errs := agent.Bytes()
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	var envelope serverutils.BaseResponse[json.RawMessage]
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%s %s: unexpected response (%d)", method, path, code)
	}
	if code >= fiber.StatusBadRequest || !envelope.Success {
		return &StatusError{Code: code, Message: envelope.Message}
	}
	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	return json.Unmarshal(envelope.Data, out)
}

// StatusError is a non-2xx REST answer.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}
