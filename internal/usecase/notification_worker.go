package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/clinic-case-service/internal/config"
	"gitlab.com/timkado/api/clinic-case-service/internal/observer"
	"gitlab.com/timkado/api/clinic-case-service/internal/whatsapp"
	"gitlab.com/timkado/api/clinic-case-service/pkg/logger"
	"gitlab.com/timkado/api/clinic-case-service/pkg/utils"
)

// NotificationKind selects which WhatsApp call a task makes.
type NotificationKind string

const (
	NotificationText     NotificationKind = "text"
	NotificationTemplate NotificationKind = "template"
)

// ErrPoolOverload is returned by Submit when every worker is busy and the
// wait queue is full.
var ErrPoolOverload = errors.New("notification pool overload")

// NotificationTask is one outbound WhatsApp message.
type NotificationTask struct {
	Ctx          context.Context
	Kind         NotificationKind
	To           string
	Text         string
	TemplateName string
	Components   []whatsapp.TemplateComponent
}

// INotificationWorker defines the interface for the notification worker pool.
type INotificationWorker interface {
	Submit(task NotificationTask) error
	Stop()
}

// NotificationWorker sends WhatsApp messages off the request path.
type NotificationWorker struct {
	pool       *ants.PoolWithFunc
	sender     whatsapp.Sender
	cfg        config.WorkerPoolConfig
	baseLogger *zap.Logger
}

var _ INotificationWorker = (*NotificationWorker)(nil)

// NewNotificationWorker creates and initializes the notification worker pool.
func NewNotificationWorker(cfg config.WorkerPoolConfig, sender whatsapp.Sender, baseLogger *zap.Logger) (*NotificationWorker, error) {
	worker := &NotificationWorker{
		sender:     sender,
		cfg:        cfg,
		baseLogger: baseLogger.Named("notification_worker"),
	}

	pool, err := ants.NewPoolWithFunc(cfg.PoolSize, func(i interface{}) {
		task, ok := i.(NotificationTask)
		if !ok {
			worker.baseLogger.Error("Invalid task data type received", zap.Any("data", i))
			return
		}
		worker.process(task)
	},
		ants.WithExpiryDuration(cfg.ExpiryTime),
		ants.WithNonblocking(false),
		ants.WithMaxBlockingTasks(cfg.QueueSize),
		ants.WithPanicHandler(func(err interface{}) {
			worker.baseLogger.Error("Panic recovered in notification worker", zap.Any("panic_error", err), zap.Stack("stack"))
			observer.IncNotificationTasksProcessed("unknown", "panic")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification worker pool: %w", err)
	}
	worker.pool = pool
	worker.baseLogger.Info("Notification worker pool initialized",
		zap.Int("pool_size", cfg.PoolSize),
		zap.Int("queue_size", cfg.QueueSize),
		zap.Duration("expiry_time", cfg.ExpiryTime),
	)
	return worker, nil
}

// Submit queues a task. The task context is detached from the caller so a
// finished HTTP request does not cancel the send.
func (w *NotificationWorker) Submit(task NotificationTask) error {
	if task.Ctx == nil {
		task.Ctx = context.Background()
	}
	task.Ctx = context.WithoutCancel(task.Ctx)

	kind := string(task.Kind)
	observer.IncNotificationTasksSubmitted(kind)
	observer.SetNotificationQueueLength(w.pool.Waiting())

	start := time.Now()
	if err := w.pool.Invoke(task); err != nil {
		logger.FromContextOr(task.Ctx, w.baseLogger).Warn("Failed to submit notification task to pool",
			zap.String("kind", kind),
			zap.Duration("submit_duration", time.Since(start)),
			zap.Error(err),
		)
		if errors.Is(err, ants.ErrPoolOverload) {
			observer.IncNotificationTasksProcessed(kind, "overload")
			return fmt.Errorf("%w: %w", ErrPoolOverload, err)
		}
		observer.IncNotificationTasksProcessed(kind, "submit_error")
		return fmt.Errorf("failed to invoke notification task: %w", err)
	}
	return nil
}

// process runs on a worker goroutine.
func (w *NotificationWorker) process(task NotificationTask) {
	defer utils.RecoverWithLog(task.Ctx, "notification task")

	log := logger.FromContextOr(task.Ctx, w.baseLogger).With(
		zap.String("task_kind", string(task.Kind)),
		zap.String("task_to", task.To),
	)
	start := time.Now()
	status := "success"

	var resp whatsapp.Response
	switch task.Kind {
	case NotificationText:
		resp = w.sender.SendText(task.Ctx, task.To, task.Text)
	case NotificationTemplate:
		resp = w.sender.SendTemplate(task.Ctx, task.To, task.TemplateName, task.Components)
	default:
		log.Warn("Skipping notification task with unknown kind")
		observer.IncNotificationTasksProcessed(string(task.Kind), "skipped_unknown_kind")
		return
	}

	if resp == nil {
		status = "failure"
		log.Warn("Notification was not delivered to the gateway", zap.String("template", task.TemplateName))
	} else {
		log.Debug("Notification sent", zap.String("template", task.TemplateName))
	}

	duration := time.Since(start)
	observer.ObserveNotificationProcessingDuration(string(task.Kind), duration)
	observer.IncNotificationTasksProcessed(string(task.Kind), status)
}

// Stop gracefully shuts down the worker pool.
func (w *NotificationWorker) Stop() {
	if w.pool == nil {
		return
	}
	w.baseLogger.Info("Releasing notification worker pool")
	start := time.Now()
	if err := w.pool.ReleaseTimeout(w.releaseTimeout()); err != nil {
		w.baseLogger.Warn("Notification pool release timed out", zap.Error(err))
	}
	w.baseLogger.Info("Notification worker pool released", zap.Duration("duration", time.Since(start)))
}

func (w *NotificationWorker) releaseTimeout() time.Duration {
	if w.cfg.MaxBlock > 0 {
		return 10 * w.cfg.MaxBlock
	}
	return 10 * time.Second
}
