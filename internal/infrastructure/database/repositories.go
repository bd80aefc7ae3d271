package database

import (
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/james-reichert/cccfunctions/internal/adapter/repository"
	domainRepo "github.com/james-reichert/cccfunctions/internal/domain/repository"
)

// Repositories holds all repository instances
type Repositories struct {
	UserAccount    domainRepo.UserAccountRepository
	CustomerRecord domainRepo.CustomerRecordRepository
	PaymentToken   domainRepo.PaymentTokenRepository
	ChargeRequest  domainRepo.ChargeRequestRepository
}

// NewRepositories creates new repository instances backed by the document store
func NewRepositories(db *mongo.Database) *Repositories {
	return &Repositories{
		UserAccount:    repository.NewUserAccountRepository(db),
		CustomerRecord: repository.NewCustomerRecordRepository(db),
		PaymentToken:   repository.NewPaymentTokenRepository(db),
		ChargeRequest:  repository.NewChargeRequestRepository(db),
	}
}
