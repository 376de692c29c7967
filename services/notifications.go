package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"storefront/models"
	"storefront/repository"
	"storefront/utils"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrQueueFull is returned by Enqueue when the dispatcher cannot take more work.
var ErrQueueFull = errors.New("notification queue is full")

// ErrDispatcherStopped is returned by Enqueue after Stop.
var ErrDispatcherStopped = errors.New("notification dispatcher stopped")

const maxNotifyBackoff = 30 * time.Second

// NotificationTask asks for the customer of an order to be told its new status.
type NotificationTask struct {
	OrderID    primitive.ObjectID
	CustomerID primitive.ObjectID
	Status     models.OrderStatus
	At         time.Time
}

// DispatcherOptions size the queue and the retry policy.
type DispatcherOptions struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	BaseBackoff time.Duration
}

// NotificationDispatcher sends order notifications off the request path.
// Tasks are retried with exponential backoff and dropped, with an error log,
// once MaxAttempts is reached.
type NotificationDispatcher struct {
	users  repository.UserStore
	mailer utils.Mailer
	opts   DispatcherOptions
	log    *logrus.Logger

	queue   chan NotificationTask
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
	cancel  context.CancelFunc
}

func NewNotificationDispatcher(users repository.UserStore, mailer utils.Mailer, opts DispatcherOptions, logger *logrus.Logger) *NotificationDispatcher {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 1
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &NotificationDispatcher{
		users:  users,
		mailer: mailer,
		opts:   opts,
		log:    logger,
		queue:  make(chan NotificationTask, opts.QueueSize),
		cancel: func() {},
	}
}

// Start launches the workers. They run until ctx is done or Stop is called.
func (d *NotificationDispatcher) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
}

// Stop cancels in-flight retries and waits for the workers to exit. Tasks
// still queued are logged and dropped.
func (d *NotificationDispatcher) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
	if n := len(d.queue); n > 0 {
		d.log.WithField("pending", n).Warn("Dropping queued notifications on shutdown")
	}
}

// Enqueue adds a task without blocking.
func (d *NotificationDispatcher) Enqueue(task NotificationTask) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrDispatcherStopped
	}
	select {
	case d.queue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *NotificationDispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-d.queue:
			if err := d.deliver(ctx, task); err != nil {
				d.log.WithError(err).WithField("order_id", task.OrderID.Hex()).Error("Giving up on order notification")
			}
		}
	}
}

func (d *NotificationDispatcher) deliver(ctx context.Context, task NotificationTask) error {
	entry := d.log.WithFields(logrus.Fields{"order_id": task.OrderID.Hex(), "status": task.Status})

	var err error
	attempts := 0
retry:
	for attempts < d.opts.MaxAttempts {
		attempts++
		if err = d.send(ctx, task); err == nil {
			entry.WithField("attempts", attempts).Info("Order notification sent")
			return nil
		}
		if isNotFound(err) || attempts == d.opts.MaxAttempts {
			break
		}
		wait := d.backoff(attempts)
		entry.WithError(err).WithField("retry_in", wait.String()).Warn("Order notification failed, retrying")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			err = ctx.Err()
			break retry
		case <-timer.C:
		}
	}

	return &models.NotificationError{OrderID: task.OrderID.Hex(), Attempts: attempts, Err: err}
}

func (d *NotificationDispatcher) send(ctx context.Context, task NotificationTask) error {
	user, err := d.users.GetByID(ctx, task.CustomerID)
	if err != nil {
		return err
	}
	subject, body := utils.OrderUpdateEmail(task.OrderID.Hex(), task.Status, task.At)
	return d.mailer.SendEmail(user.Email, subject, body)
}

func (d *NotificationDispatcher) backoff(attempt int) time.Duration {
	wait := d.opts.BaseBackoff
	for i := 1; i < attempt; i++ {
		wait *= 2
		if wait >= maxNotifyBackoff {
			return maxNotifyBackoff
		}
	}
	return wait
}
