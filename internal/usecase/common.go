package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/clinic-case-service/internal/apperrors"
	"gitlab.com/timkado/api/clinic-case-service/internal/storage"
	"gitlab.com/timkado/api/clinic-case-service/pkg/logger"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// ListResult is one page of a listing.
type ListResult[T any] struct {
	Result     []T   `json:"result"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// normalizePage applies the default page and clamps limit to 1..100.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	switch {
	case limit == 0:
		limit = defaultLimit
	case limit < 1:
		limit = 1
	case limit > maxLimit:
		limit = maxLimit
	}
	return page, limit
}

func pageWindow(page, limit int) storage.Page {
	return storage.Page{Offset: (page - 1) * limit, Limit: limit}
}

func newListResult[T any](items []T, total int64, page, limit int) *ListResult[T] {
	if items == nil {
		items = []T{}
	}
	return &ListResult[T]{
		Result:     items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}
}

// submitNotification queues task for ctx's request. A failed submit is
// logged and never reaches the caller.
func submitNotification(ctx context.Context, notifier INotificationWorker, task NotificationTask) {
	if notifier == nil || strings.TrimSpace(task.To) == "" {
		return
	}
	task.Ctx = ctx
	if err := notifier.Submit(task); err != nil {
		logger.FromContext(ctx).Warn("Failed to queue notification",
			zap.String("kind", string(task.Kind)),
			zap.String("to", task.To),
			zap.Error(err),
		)
	}
}

func duplicate(what string) error {
	return fmt.Errorf("%w: %s already exists", apperrors.ErrDuplicate, what)
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
