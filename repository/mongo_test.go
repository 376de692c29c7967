package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"storefront/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func setupTestDB(t *testing.T) *mongo.Database {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := Connect(ctx, uri)
	require.NoError(t, err)

	db := client.Database("storefront_test_" + primitive.NewObjectID().Hex())
	require.NoError(t, EnsureIndexes(ctx, db))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return db
}

func TestMongoTopSelling(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	stores := NewMongoStores(db)

	x := primitive.NewObjectID()
	y := primitive.NewObjectID()
	orders := []*models.Order{
		{Status: models.StatusDelivered, Items: []models.LineItem{{ProductID: x, Quantity: 2}}},
		{Status: models.StatusDelivered, Items: []models.LineItem{{ProductID: x, Quantity: 3}}},
		{Status: models.StatusPlaced, Items: []models.LineItem{{ProductID: y, Quantity: 5}}},
	}
	for _, o := range orders {
		require.NoError(t, stores.Orders.Create(ctx, o))
	}

	got, err := stores.Orders.TopSelling(ctx, models.BestSellerLimit)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, x, got[0].ProductID)
	assert.Equal(t, 5, got[0].TotalSold)
}

func TestMongoOrderLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	stores := NewMongoStores(db)

	order := &models.Order{
		CustomerID: primitive.NewObjectID(),
		Items:      []models.LineItem{{ProductID: primitive.NewObjectID(), Quantity: 1, UnitPrice: 10}},
		Status:     models.StatusPlaced,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, stores.Orders.Create(ctx, order))

	updated, err := stores.Orders.UpdateStatus(ctx, order.ID, models.StatusShipped, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, updated.Status)

	paid, err := stores.Orders.ConfirmPayment(ctx, order.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, paid.PaymentConfirmed)

	deleted, err := stores.Orders.DeleteUnpaid(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, deleted, "paid orders are never deleted")

	_, err = stores.Orders.UpdateStatus(ctx, order.ID, models.StatusPlaced, time.Now().UTC(), models.StatusPlaced.AtOrBefore()...)
	var ve *models.ValidationError
	assert.ErrorAs(t, err, &ve)

	unpaid := &models.Order{CustomerID: order.CustomerID, Status: models.StatusPlaced, CreatedAt: time.Now().UTC()}
	require.NoError(t, stores.Orders.Create(ctx, unpaid))
	deleted, err = stores.Orders.DeleteUnpaid(ctx, unpaid.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = stores.Orders.DeleteUnpaid(ctx, unpaid.ID)
	var nf *models.NotFoundError
	assert.ErrorAs(t, err, &nf)
}
