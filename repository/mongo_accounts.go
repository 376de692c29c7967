package repository

import (
	"context"
	"fmt"
	"time"

	"storefront/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCartStore stores one cart document per user in the carts collection.
type MongoCartStore struct {
	coll *mongo.Collection
}

func (s *MongoCartStore) Get(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	if err := s.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&cart); err != nil {
		return nil, notFoundOr(err, "cart", userID.Hex())
	}
	return &cart, nil
}

func (s *MongoCartStore) Save(ctx context.Context, cart *models.Cart) error {
	items := cart.Items
	if items == nil {
		items = []models.CartItem{}
	}
	opts := options.Update().SetUpsert(true)
	_, err := s.coll.UpdateOne(ctx, bson.M{"user_id": cart.UserID}, bson.M{"$set": bson.M{"items": items}}, opts)
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Clear removes the user's cart. A missing cart is not an error.
func (s *MongoCartStore) Clear(ctx context.Context, userID primitive.ObjectID) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// MongoUserStore stores accounts in the users collection.
type MongoUserStore struct {
	coll *mongo.Collection
}

func (s *MongoUserStore) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if _, err := s.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Invalid("user already exists")
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *MongoUserStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id}, id.Hex())
}

func (s *MongoUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email}, email)
}

func (s *MongoUserStore) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"verification_token": token}, "")
}

func (s *MongoUserStore) findOne(ctx context.Context, filter bson.M, id string) (*models.User, error) {
	var user models.User
	if err := s.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, notFoundOr(err, "user", id)
	}
	return &user, nil
}

func (s *MongoUserStore) MarkVerified(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"is_verified":        true,
			"verification_token": "",
			"verified_at":        time.Now().UTC(),
		},
	})
	if err != nil {
		return fmt.Errorf("update user verification status: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.NotFound("user", id.Hex())
	}
	return nil
}
