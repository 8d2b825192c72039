package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"messpal-be/internal/dto"
	"messpal-be/internal/entity"
	"messpal-be/internal/pkg/serverutils"
	"messpal-be/internal/repository/contract"
	"messpal-be/internal/repository/specification"
	"messpal-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Me(ctx context.Context, userId uuid.UUID) (*dto.UserResponse, error)
}

type authService struct {
	uowFactory unitofwork.RepositoryFactory
	tokens     *serverutils.TokenManager
}

func NewAuthService(uowFactory unitofwork.RepositoryFactory, tokens *serverutils.TokenManager) IAuthService {
	return &authService{
		uowFactory: uowFactory,
		tokens:     tokens,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	email := normalizeEmail(req.Email)
	username := strings.TrimSpace(req.Username)

	taken, err := uow.UserRepository().Count(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, err
	}
	if taken > 0 {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Id:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		// Username collisions and registration races land here.
		if errors.Is(err, contract.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	return s.authResponse(user)
}

// Login answers unknown emails and wrong passwords with the same error.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: normalizeEmail(req.Email)})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.authResponse(user)
}

func (s *authService) Me(ctx context.Context, userId uuid.UUID) (*dto.UserResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	res := toUserResponse(user)
	return &res, nil
}

func (s *authService) authResponse(user *entity.User) (*dto.AuthResponse, error) {
	token, err := s.tokens.Issue(user.Id, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &dto.AuthResponse{
		Token: token,
		User:  toUserResponse(user),
	}, nil
}
