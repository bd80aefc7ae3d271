package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/james-reichert/cccfunctions/internal/domain/entity"
	domainRepo "github.com/james-reichert/cccfunctions/internal/domain/repository"
)

const customersCollection = "customers"

type customerRecordRepository struct {
	coll *mongo.Collection
}

func NewCustomerRecordRepository(db *mongo.Database) domainRepo.CustomerRecordRepository {
	return &customerRecordRepository{
		coll: db.Collection(customersCollection),
	}
}

func (r *customerRecordRepository) GetByUserID(ctx context.Context, userID string) (*entity.CustomerRecord, error) {
	var record entity.CustomerRecord
	err := r.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *customerRecordRepository) SetCustomerID(ctx context.Context, userID, customerID string) error {
	now := time.Now().UTC()
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$set": bson.M{
				"customer_id": customerID,
				"updated_at":  now,
			},
			"$setOnInsert": bson.M{"created_at": now},
			"$unset":       bson.M{"error": ""},
		},
		options.UpdateOne().SetUpsert(true),
	)
	return err
}

func (r *customerRecordRepository) SetDefaultPaymentMethod(ctx context.Context, userID, paymentMethodID string) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$set": bson.M{
			"invoice_settings.default_payment_method": paymentMethodID,
			"updated_at": time.Now().UTC(),
		},
		"$unset": bson.M{"error": ""},
	})
	return err
}

func (r *customerRecordRepository) SetError(ctx context.Context, userID, message string) error {
	now := time.Now().UTC()
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$set": bson.M{
				"error":      message,
				"updated_at": now,
			},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.UpdateOne().SetUpsert(true),
	)
	return err
}

func (r *customerRecordRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": userID})
	return err
}
