package unitofwork

import (
	"context"

	"messpal-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	ChatRepository() contract.ChatRepository
	InstructionRepository() contract.InstructionRepository
}
