package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/james-reichert/cccfunctions/internal/domain/entity"
	domainRepo "github.com/james-reichert/cccfunctions/internal/domain/repository"
)

const chargeRequestsCollection = "charge_requests"

type chargeRequestRepository struct {
	coll *mongo.Collection
}

func NewChargeRequestRepository(db *mongo.Database) domainRepo.ChargeRequestRepository {
	return &chargeRequestRepository{
		coll: db.Collection(chargeRequestsCollection),
	}
}

func (r *chargeRequestRepository) GetByChargeID(ctx context.Context, chargeID string) (*entity.ChargeRequest, error) {
	var req entity.ChargeRequest
	err := r.coll.FindOne(ctx, bson.M{"_id": chargeID}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (r *chargeRequestRepository) SetResult(ctx context.Context, chargeID string, result *entity.ChargeResult) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": chargeID}, bson.M{
		"$set":   bson.M{"result": result},
		"$unset": bson.M{"error": ""},
	})
	return err
}

func (r *chargeRequestRepository) SetError(ctx context.Context, chargeID, message string) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": chargeID}, bson.M{
		"$set": bson.M{"error": message},
	})
	return err
}
