package repository

import (
	"context"

	"github.com/james-reichert/cccfunctions/internal/domain/entity"
)

type UserAccountRepository interface {
	Upsert(ctx context.Context, user *entity.UserAccount) error
	GetByUserID(ctx context.Context, userID string) (*entity.UserAccount, error)
	List(ctx context.Context) ([]entity.UserAccount, error)
	Delete(ctx context.Context, userID string) error
}
