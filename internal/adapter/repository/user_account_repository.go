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

const usersCollection = "users"

type userAccountRepository struct {
	coll *mongo.Collection
}

func NewUserAccountRepository(db *mongo.Database) domainRepo.UserAccountRepository {
	return &userAccountRepository{
		coll: db.Collection(usersCollection),
	}
}

func (r *userAccountRepository) Upsert(ctx context.Context, user *entity.UserAccount) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": user.UserID},
		bson.M{
			"$set":         bson.M{"email": user.Email},
			"$setOnInsert": bson.M{"created_at": time.Now().UTC()},
		},
		options.UpdateOne().SetUpsert(true),
	)
	return err
}

func (r *userAccountRepository) GetByUserID(ctx context.Context, userID string) (*entity.UserAccount, error) {
	var user entity.UserAccount
	err := r.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userAccountRepository) List(ctx context.Context) ([]entity.UserAccount, error) {
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []entity.UserAccount
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userAccountRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": userID})
	return err
}
