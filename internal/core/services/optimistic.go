package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"huddle/internal/core/contracts"
	"huddle/internal/platform/metrics"
	"huddle/pkg/logging"
)

// MutateFunc expresses the optimistic change as a pure function over the
// current record value.
type MutateFunc func(current any) any

// ConfirmFunc performs the authoritative mutation against the backend.
// A returned error signals rollback; it is never retried automatically.
type ConfirmFunc func(ctx context.Context) error

// MutationController applies toggle-style user actions to render state
// immediately and reconciles with the backend in the background. In-flight
// intents are tracked per record: a failed confirm rolls back only when it
// belongs to the most recent still-pending intent for that record, so an
// older failure can never clobber a newer optimistic value.
type MutationController struct {
	log     *slog.Logger
	store   contracts.RenderStore
	onError func(recordID string, err error)

	mu      sync.Mutex
	nextID  uint64
	pending map[string]pendingIntent
}

type pendingIntent struct {
	id       uint64
	snapshot any
}

// NewMutationController builds a controller publishing into store.
// onError, if non-nil, surfaces confirm failures after rollback (for a
// transient user-facing indicator); it must not block.
func NewMutationController(
	log *slog.Logger,
	store contracts.RenderStore,
	onError func(recordID string, err error),
) *MutationController {
	return &MutationController{
		log:     log,
		store:   store,
		onError: onError,
		pending: make(map[string]pendingIntent),
	}
}

// Apply publishes mutate(current) to render state before anything can
// suspend, then runs confirm and blocks until it settles. Callers wanting
// fire-and-forget semantics run Apply on its own goroutine; the optimistic
// publish still happens first.
func (c *MutationController) Apply(
	ctx context.Context,
	recordID string,
	current any,
	mutate MutateFunc,
	confirm ConfirmFunc,
) error {
	ctx, span := tracer.Start(ctx, "MutationController.Apply", trace.WithAttributes(
		attribute.String("record_id", recordID),
	))
	defer span.End()

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.pending[recordID] = pendingIntent{id: id, snapshot: current}
	c.mu.Unlock()
	span.SetAttributes(attribute.Int64("intent_id", int64(id)))

	c.store.Publish(recordID, mutate(current))
	metrics.MutationsApplied.Inc()

	err := confirm(ctx)

	c.mu.Lock()
	in, ok := c.pending[recordID]
	latest := ok && in.id == id
	if latest {
		delete(c.pending, recordID)
	}
	c.mu.Unlock()

	if err == nil {
		c.log.DebugContext(ctx, "optimistic - apply - confirmed", logging.Record(recordID), logging.Intent(id))
		return nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "confirm failed")
	if latest {
		c.store.Publish(recordID, in.snapshot)
		metrics.MutationsRolledBack.Inc()
		c.log.WarnContext(ctx, "optimistic - apply - confirm failed, rolled back",
			logging.Record(recordID), logging.Intent(id), logging.Err(err))
		if c.onError != nil {
			c.onError(recordID, err)
		}
	} else {
		// A newer intent for this record is (or was) in flight; its value
		// stands and this failure must not overwrite it.
		c.log.WarnContext(ctx, "optimistic - apply - confirm failed, superseded",
			logging.Record(recordID), logging.Intent(id), logging.Err(err))
	}
	return fmt.Errorf("confirm %s: %w", recordID, err)
}
