package services

import (
	"context"
	"io"
	"sync"
	"testing"

	"storefront/models"
	"storefront/repository"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type recordingNotifier struct {
	mu    sync.Mutex
	tasks []NotificationTask
	err   error
}

func (n *recordingNotifier) Enqueue(task NotificationTask) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.tasks = append(n.tasks, task)
	return nil
}

func (n *recordingNotifier) Tasks() []NotificationTask {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]NotificationTask(nil), n.tasks...)
}

func seedProduct(t *testing.T, stores repository.Stores, name string, price float64, sizes ...string) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: price, Sizes: sizes, Category: "Men", SubCategory: "Topwear"}
	require.NoError(t, stores.Products.Create(context.Background(), p))
	return p
}

func seedOrder(t *testing.T, stores repository.Stores, customer primitive.ObjectID, method models.PaymentMethod, status models.OrderStatus, items ...models.LineItem) *models.Order {
	t.Helper()
	o := &models.Order{
		CustomerID:    customer,
		Items:         items,
		PaymentMethod: method,
		Status:        status,
	}
	require.NoError(t, stores.Orders.Create(context.Background(), o))
	return o
}
