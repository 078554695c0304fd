// Package notify forwards ledger events to an asynq queue so delivery
// (email, push, audit trail) happens off the request path. Everything here
// is advisory: a lost notification never affects ledger state.
package notify

import (
	"context"
	"encoding/json"
	"os"

	"github.com/hibiken/asynq"

	"github.com/kelechi-dev/workbid/internal/events"
	"github.com/kelechi-dev/workbid/internal/logger"
)

var log = logger.NewSublogger("notify")

// Task type per ledger event.
const (
	TaskUserAdded        = "notify:user_added"
	TaskAgreementCreated = "notify:agreement_created"
	TaskFundsDeposited   = "notify:funds_deposited"
	TaskFundsReleased    = "notify:funds_released"
	TaskFundsWithdrawn   = "notify:funds_withdrawn"
	TaskJobStatusUpdated = "notify:job_status_updated"
	TaskBidAccepted      = "notify:bid_accepted"
	TaskServiceListed    = "notify:service_listed"
)

var taskForEvent = map[string]string{
	events.TypeUserAdded:        TaskUserAdded,
	events.TypeAgreementCreated: TaskAgreementCreated,
	events.TypeFundsDeposited:   TaskFundsDeposited,
	events.TypeFundsReleased:    TaskFundsReleased,
	events.TypeFundsWithdrawn:   TaskFundsWithdrawn,
	events.TypeJobStatusUpdated: TaskJobStatusUpdated,
	events.TypeBidAccepted:      TaskBidAccepted,
	events.TypeServiceListed:    TaskServiceListed,
}

var (
	client *asynq.Client
	server *asynq.Server
)

func redisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	if host := os.Getenv("REDIS_HOST"); host != "" {
		port := os.Getenv("REDIS_PORT")
		if port == "" {
			port = "6379"
		}
		return host + ":" + port
	}
	return "127.0.0.1:6379"
}

// Init starts the asynq server and the shared client.
func Init() {
	opts := asynq.RedisClientOpt{Addr: redisAddr()}
	client = asynq.NewClient(opts)

	mux := asynq.NewServeMux()
	for _, task := range taskForEvent {
		mux.HandleFunc(task, handleEvent)
	}

	server = asynq.NewServer(opts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			"notifications": 10,
		},
	})
	go func() {
		if err := server.Run(mux); err != nil {
			log.WithError(err).Warn("asynq server stopped")
		}
	}()

	log.WithField("addr", redisAddr()).Info("notifier initialized")
}

// Close releases client and stops server.
func Close() {
	if client != nil {
		_ = client.Close()
	}
	if server != nil {
		server.Shutdown()
	}
}

// Forward consumes the bus and enqueues one task per event. Run it in its
// own goroutine; it returns when the subscription is cancelled.
func Forward(bus *events.Bus) func() {
	ch, cancel := bus.Subscribe()
	go func() {
		for evt := range ch {
			enqueue(evt)
		}
	}()
	return cancel
}

func enqueue(evt events.Event) {
	task, ok := taskForEvent[evt.Type]
	if !ok {
		return
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	if _, err := client.Enqueue(asynq.NewTask(task, b), asynq.Queue("notifications")); err != nil {
		log.WithError(err).WithField("task", task).Warn("enqueue failed")
	}
}

// handleEvent delivers the notification. Delivery is a structured log line;
// an email or push integration would slot in here.
func handleEvent(_ context.Context, t *asynq.Task) error {
	var evt events.Event
	if err := json.Unmarshal(t.Payload(), &evt); err != nil {
		return err
	}
	log.WithField("type", evt.Type).
		WithField("job_id", evt.JobID).
		WithField("agreement_id", evt.AgreementID).
		WithField("amount", evt.Amount).
		Info("notification delivered")
	return nil
}
