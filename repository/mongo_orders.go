package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOrderStore stores orders in the orders collection.
type MongoOrderStore struct {
	coll *mongo.Collection
}

func (s *MongoOrderStore) Create(ctx context.Context, order *models.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if _, err := s.coll.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (s *MongoOrderStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, notFoundOr(err, "order", id.Hex())
	}
	return &order, nil
}

func (s *MongoOrderStore) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus, at time.Time, from ...models.OrderStatus) (*models.Order, error) {
	filter := bson.M{"_id": id}
	if len(from) > 0 {
		filter["status"] = bson.M{"$in": from}
	}
	order, err := s.findAndSet(ctx, filter, bson.M{"status": status, "updated_at": at})
	if err == nil || len(from) == 0 || !errors.Is(err, mongo.ErrNoDocuments) {
		return order, notFoundOr(err, "order", id.Hex())
	}
	current, getErr := s.Get(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, models.StatusRegression(id.Hex(), current.Status, status)
}

func (s *MongoOrderStore) ConfirmPayment(ctx context.Context, id primitive.ObjectID, at time.Time) (*models.Order, error) {
	order, err := s.findAndSet(ctx, bson.M{"_id": id}, bson.M{"payment": true, "updated_at": at})
	return order, notFoundOr(err, "order", id.Hex())
}

func (s *MongoOrderStore) findAndSet(ctx context.Context, filter, set bson.M) (*models.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var order models.Order
	if err := s.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *MongoOrderStore) DeleteUnpaid(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id, "payment": false})
	if err != nil {
		return false, fmt.Errorf("delete order: %w", err)
	}
	if res.DeletedCount == 1 {
		return true, nil
	}
	// Nothing matched: either the order is gone or it has been paid.
	if _, err := s.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (s *MongoOrderStore) ListByCustomer(ctx context.Context, customerID primitive.ObjectID, page models.Page) ([]models.Order, error) {
	return s.find(ctx, bson.M{"user_id": customerID}, page)
}

func (s *MongoOrderStore) List(ctx context.Context, page models.Page) ([]models.Order, error) {
	return s.find(ctx, bson.M{}, page)
}

func (s *MongoOrderStore) find(ctx context.Context, filter bson.M, page models.Page) ([]models.Order, error) {
	cursor, err := s.coll.Find(ctx, filter, pageOptions(page))
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}

// TopSelling aggregates delivered orders into per-product quantities.
func (s *MongoOrderStore) TopSelling(ctx context.Context, limit int) ([]models.SalesTally, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "status", Value: models.StatusDelivered}}}},
		{{Key: "$unwind", Value: "$items"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$items.product_id"},
			{Key: "total_sold", Value: bson.D{{Key: "$sum", Value: "$items.quantity"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "total_sold", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate best sellers: %w", err)
	}
	defer cursor.Close(ctx)

	tallies := []models.SalesTally{}
	if err := cursor.All(ctx, &tallies); err != nil {
		return nil, fmt.Errorf("decode best sellers: %w", err)
	}
	return tallies, nil
}
