package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ordersCollection   = "orders"
	productsCollection = "products"
	cartsCollection    = "carts"
	usersCollection    = "users"
)

// Connect opens a client and verifies the server is reachable.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// NewMongoStores builds the stores backed by db.
func NewMongoStores(db *mongo.Database) Stores {
	return Stores{
		Orders:   &MongoOrderStore{coll: db.Collection(ordersCollection)},
		Products: &MongoProductStore{coll: db.Collection(productsCollection)},
		Carts:    &MongoCartStore{coll: db.Collection(cartsCollection)},
		Users:    &MongoUserStore{coll: db.Collection(usersCollection)},
	}
}

// EnsureIndexes creates the indexes the stores rely on. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		ordersCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		cartsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for name, idx := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func notFoundOr(err error, kind, id string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NotFound(kind, id)
	}
	return err
}

func pageOptions(page models.Page) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if page.Limit > 0 {
		opts.SetLimit(page.Limit)
	}
	if page.Offset > 0 {
		opts.SetSkip(page.Offset)
	}
	return opts
}
