package unitofwork

import (
	"context"

	"ai-companion-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	CompanionRepository() contract.CompanionRepository
}
