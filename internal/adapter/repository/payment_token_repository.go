package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/james-reichert/cccfunctions/internal/domain/entity"
	domainRepo "github.com/james-reichert/cccfunctions/internal/domain/repository"
)

const paymentTokensCollection = "payment_tokens"

type paymentTokenRepository struct {
	coll *mongo.Collection
}

func NewPaymentTokenRepository(db *mongo.Database) domainRepo.PaymentTokenRepository {
	return &paymentTokenRepository{
		coll: db.Collection(paymentTokensCollection),
	}
}

func (r *paymentTokenRepository) GetByPushID(ctx context.Context, pushID string) (*entity.PaymentMethodToken, error) {
	var token entity.PaymentMethodToken
	err := r.coll.FindOne(ctx, bson.M{"_id": pushID}).Decode(&token)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

func (r *paymentTokenRepository) GetByPaymentMethodID(ctx context.Context, userID, paymentMethodID string) (*entity.PaymentMethodToken, error) {
	var token entity.PaymentMethodToken
	err := r.coll.FindOne(ctx, bson.M{
		"user_id":           userID,
		"payment_method_id": paymentMethodID,
	}).Decode(&token)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

func (r *paymentTokenRepository) SetPaymentMethodID(ctx context.Context, pushID, paymentMethodID string) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": pushID}, bson.M{
		"$set":   bson.M{"payment_method_id": paymentMethodID},
		"$unset": bson.M{"error": ""},
	})
	return err
}

func (r *paymentTokenRepository) SetError(ctx context.Context, pushID, message string) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": pushID}, bson.M{
		"$set": bson.M{"error": message},
	})
	return err
}

func (r *paymentTokenRepository) Delete(ctx context.Context, pushID string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": pushID})
	return err
}
