package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"storefront/models"
	"storefront/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newOrderService(opts OrderOptions) (*OrderService, repository.Stores, *recordingNotifier) {
	stores := repository.NewMemoryStores()
	notifier := &recordingNotifier{}
	return NewOrderService(stores, notifier, opts, quietLogger()), stores, notifier
}

func TestPlaceOrderCashOnDelivery(t *testing.T) {
	ctx := context.Background()
	svc, stores, _ := newOrderService(OrderOptions{DeliveryChargeMinorUnits: 1000})
	tee := seedProduct(t, stores, "Cotton Tee", 49.99, "S", "M")
	customer := primitive.NewObjectID()
	require.NoError(t, stores.Carts.Save(ctx, &models.Cart{UserID: customer, Items: []models.CartItem{{ProductID: tee.ID, Quantity: 2}}}))

	order, err := svc.PlaceOrder(ctx, PlaceOrderInput{
		CustomerID:  customer,
		Items:       []models.CartItem{{ProductID: tee.ID, Size: "M", Quantity: 2}},
		Address:     models.Address{Street: "1 Main St", City: "Pune"},
		TotalAmount: 109.98,
		Method:      models.PaymentCOD,
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusPlaced, order.Status)
	assert.False(t, order.PaymentConfirmed)
	assert.Equal(t, 109.98, order.TotalAmount)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Cotton Tee", order.Items[0].Name)
	assert.Equal(t, 49.99, order.Items[0].UnitPrice)
	assert.False(t, order.CreatedAt.IsZero())

	stored, err := stores.Orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCOD, stored.PaymentMethod)

	_, err = stores.Carts.Get(ctx, customer)
	var nf *models.NotFoundError
	assert.ErrorAs(t, err, &nf, "cart should be cleared after a cash order")
}

func TestPlaceOrderGatewayKeepsCart(t *testing.T) {
	ctx := context.Background()
	svc, stores, _ := newOrderService(OrderOptions{})
	tee := seedProduct(t, stores, "Cotton Tee", 10)
	customer := primitive.NewObjectID()
	require.NoError(t, stores.Carts.Save(ctx, &models.Cart{UserID: customer, Items: []models.CartItem{{ProductID: tee.ID, Quantity: 1}}}))

	_, err := svc.PlaceOrder(ctx, PlaceOrderInput{
		CustomerID:  customer,
		Items:       []models.CartItem{{ProductID: tee.ID, Quantity: 1}},
		TotalAmount: 10,
		Method:      models.PaymentGateway,
	})
	require.NoError(t, err)

	cart, err := stores.Carts.Get(ctx, customer)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestPlaceOrderRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	svc, stores, _ := newOrderService(OrderOptions{DeliveryChargeMinorUnits: 1000})
	tee := seedProduct(t, stores, "Cotton Tee", 20, "M")
	customer := primitive.NewObjectID()

	valid := func() PlaceOrderInput {
		return PlaceOrderInput{
			CustomerID:  customer,
			Items:       []models.CartItem{{ProductID: tee.ID, Size: "M", Quantity: 1}},
			TotalAmount: 30,
			Method:      models.PaymentCOD,
		}
	}

	tests := []struct {
		name         string
		mutate       func(in *PlaceOrderInput)
		wantNotFound bool
	}{
		{name: "empty items", mutate: func(in *PlaceOrderInput) { in.Items = nil }},
		{name: "zero quantity", mutate: func(in *PlaceOrderInput) { in.Items[0].Quantity = 0 }},
		{name: "negative quantity", mutate: func(in *PlaceOrderInput) { in.Items[0].Quantity = -3 }},
		{name: "unknown method", mutate: func(in *PlaceOrderInput) { in.Method = "Barter" }},
		{name: "missing customer", mutate: func(in *PlaceOrderInput) { in.CustomerID = primitive.NilObjectID }},
		{name: "total mismatch", mutate: func(in *PlaceOrderInput) { in.TotalAmount = 20 }},
		{name: "unavailable size", mutate: func(in *PlaceOrderInput) { in.Items[0].Size = "XXL" }},
		{name: "unknown product", mutate: func(in *PlaceOrderInput) { in.Items[0].ProductID = primitive.NewObjectID() }, wantNotFound: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			_, err := svc.PlaceOrder(ctx, in)
			require.Error(t, err)
			if tt.wantNotFound {
				var nf *models.NotFoundError
				assert.ErrorAs(t, err, &nf)
			} else {
				var ve *models.ValidationError
				assert.ErrorAs(t, err, &ve)
			}
		})
	}

	all, err := stores.Orders.List(ctx, models.Page{})
	require.NoError(t, err)
	assert.Empty(t, all, "failed placements must not persist anything")
}

func TestPlaceOrderSnapshotsCatalogPrice(t *testing.T) {
	ctx := context.Background()
	svc, stores, _ := newOrderService(OrderOptions{})
	tee := seedProduct(t, stores, "Cotton Tee", 15)

	order, err := svc.PlaceOrder(ctx, PlaceOrderInput{
		CustomerID:  primitive.NewObjectID(),
		Items:       []models.CartItem{{ProductID: tee.ID, Quantity: 2}},
		TotalAmount: 30,
		Method:      models.PaymentCOD,
	})
	require.NoError(t, err)

	tee.Price = 99
	tee.Name = "Renamed Tee"
	require.NoError(t, stores.Products.Update(ctx, tee))

	stored, err := stores.Orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 15.0, stored.Items[0].UnitPrice)
	assert.Equal(t, "Cotton Tee", stored.Items[0].Name)
}

func TestTransitionStatusIsPermissive(t *testing.T) {
	ctx := context.Background()
	svc, stores, notifier := newOrderService(OrderOptions{})
	customer := primitive.NewObjectID()
	order := seedOrder(t, stores, customer, models.PaymentCOD, models.StatusPlaced, models.LineItem{ProductID: primitive.NewObjectID(), Quantity: 1})

	updated, err := svc.TransitionStatus(ctx, order.ID, models.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, updated.Status)

	// Regressions are currently allowed as well.
	updated, err = svc.TransitionStatus(ctx, order.ID, models.StatusPlaced)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPlaced, updated.Status)

	tasks := notifier.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, customer, tasks[0].CustomerID)
	assert.Equal(t, models.StatusDelivered, tasks[0].Status)
	assert.Equal(t, models.StatusPlaced, tasks[1].Status)
}

func TestTransitionStatusStrictRejectsRegression(t *testing.T) {
	ctx := context.Background()
	svc, stores, notifier := newOrderService(OrderOptions{StrictStatusTransitions: true})
	order := seedOrder(t, stores, primitive.NewObjectID(), models.PaymentCOD, models.StatusDelivered, models.LineItem{Quantity: 1})

	_, err := svc.TransitionStatus(ctx, order.ID, models.StatusPlaced)
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Empty(t, notifier.Tasks())

	stored, err := stores.Orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, stored.Status)
}

func TestTransitionStatusErrors(t *testing.T) {
	ctx := context.Background()
	svc, stores, _ := newOrderService(OrderOptions{})
	order := seedOrder(t, stores, primitive.NewObjectID(), models.PaymentCOD, models.StatusPlaced, models.LineItem{Quantity: 1})

	_, err := svc.TransitionStatus(ctx, primitive.NewObjectID(), models.StatusShipped)
	var nf *models.NotFoundError
	assert.ErrorAs(t, err, &nf)

	_, err = svc.TransitionStatus(ctx, order.ID, "Teleported")
	var ve *models.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestTransitionStatusSurvivesNotificationFailure(t *testing.T) {
	ctx := context.Background()
	svc, stores, notifier := newOrderService(OrderOptions{})
	notifier.err = errors.New("queue full")
	order := seedOrder(t, stores, primitive.NewObjectID(), models.PaymentCOD, models.StatusPlaced, models.LineItem{Quantity: 1})

	updated, err := svc.TransitionStatus(ctx, order.ID, models.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, updated.Status)

	stored, err := stores.Orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, stored.Status)
}

func TestConcurrentTransitionsResolveToOneState(t *testing.T) {
	ctx := context.Background()
	svc, stores, _ := newOrderService(OrderOptions{})
	order := seedOrder(t, stores, primitive.NewObjectID(), models.PaymentCOD, models.StatusPlaced, models.LineItem{Quantity: 1})

	targets := []models.OrderStatus{models.StatusShipped, models.StatusDelivered}
	var wg sync.WaitGroup
	for _, status := range targets {
		wg.Add(1)
		go func(s models.OrderStatus) {
			defer wg.Done()
			_, err := svc.TransitionStatus(ctx, order.ID, s)
			assert.NoError(t, err)
		}(status)
	}
	wg.Wait()

	stored, err := stores.Orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Contains(t, targets, stored.Status)
	assert.Len(t, stored.Items, 1)
}

func TestListOrders(t *testing.T) {
	ctx := context.Background()
	svc, stores, _ := newOrderService(OrderOptions{})
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	seedOrder(t, stores, alice, models.PaymentCOD, models.StatusPlaced, models.LineItem{Quantity: 1})
	seedOrder(t, stores, alice, models.PaymentGateway, models.StatusDelivered, models.LineItem{Quantity: 1})
	seedOrder(t, stores, bob, models.PaymentCOD, models.StatusShipped, models.LineItem{Quantity: 1})

	mine, err := svc.ListOrdersForCustomer(ctx, alice, models.Page{})
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	for _, o := range mine {
		assert.Equal(t, alice, o.CustomerID)
	}

	all, err := svc.ListAllOrders(ctx, models.Page{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestNormalizePage(t *testing.T) {
	assert.Equal(t, models.Page{Limit: defaultPageLimit}, normalizePage(models.Page{}))
	assert.Equal(t, models.Page{Limit: maxPageLimit, Offset: 0}, normalizePage(models.Page{Limit: 5000, Offset: -1}))
}

func TestStrictTransitionsNeverMoveBackUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	svc, stores, _ := newOrderService(OrderOptions{StrictStatusTransitions: true})

	for i := 0; i < 20; i++ {
		order := seedOrder(t, stores, primitive.NewObjectID(), models.PaymentCOD, models.StatusPlaced, models.LineItem{Quantity: 1})

		var wg sync.WaitGroup
		for _, status := range []models.OrderStatus{models.StatusDelivered, models.StatusPacking} {
			wg.Add(1)
			go func(s models.OrderStatus) {
				defer wg.Done()
				svc.TransitionStatus(ctx, order.ID, s)
			}(status)
		}
		wg.Wait()

		stored, err := stores.Orders.Get(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusDelivered, stored.Status)
	}
}
