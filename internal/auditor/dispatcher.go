// Package auditor moves committed audit events from the database outbox to
// the Kafka audit topic.
package auditor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/corventa/finance-ledger/internal/config"
	"github.com/corventa/finance-ledger/internal/domain/audit"
	"github.com/corventa/finance-ledger/internal/platform/messaging/producers"
	"github.com/corventa/finance-ledger/internal/platform/metrics"
)

// Dispatcher polls pending audit events and publishes them through a worker
// pool. Publishing is at-least-once: an event is only marked PROCESSED after
// the broker acknowledged it, and events that exhaust their attempts are
// parked as FAILED_TO_PUBLISH instead of blocking the queue.
type Dispatcher struct {
	auditRepo        audit.Repository
	publisher        producers.MessagePublisher
	pool             *ants.Pool
	collector        *metrics.Collector
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

// NewDispatcher creates the audit dispatcher with its worker pool
func NewDispatcher(
	cfg *config.AuditConfig,
	poolCfg *config.WorkerPoolConfig,
	auditRepo audit.Repository,
	publisher producers.MessagePublisher,
	collector *metrics.Collector,
	logger *slog.Logger,
) (*Dispatcher, error) {
	pool, err := ants.NewPool(poolCfg.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit worker pool: %w", err)
	}

	return &Dispatcher{
		auditRepo:        auditRepo,
		publisher:        publisher,
		pool:             pool,
		collector:        collector,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}, nil
}

// Start begins polling until the context is canceled
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("Starting audit dispatcher",
		"poll_interval", d.pollInterval.String(),
		"batch_size", d.batchSize,
		"max_retry_attempts", d.maxRetryAttempts,
	)
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Audit dispatcher stopping due to context cancellation.")
			return
		case <-ticker.C:
			if err := d.processPendingEvents(ctx); err != nil {
				d.logger.Error("Error during batch processing of pending audit events", "error", err)
			}
		}
	}
}

// Shutdown releases the worker pool.
func (d *Dispatcher) Shutdown() {
	d.logger.Info("Shutting down audit dispatcher worker pool", "running_workers", d.pool.Running())
	d.pool.Release()
}

// processPendingEvents fetches one batch and fans it out across the pool,
// waiting for the whole batch before the next tick.
func (d *Dispatcher) processPendingEvents(ctx context.Context) error {
	events, err := d.auditRepo.GetPending(ctx, d.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending audit events: %w", err)
	}

	if len(events) == 0 {
		return nil
	}

	d.logger.Debug("Fetched pending audit events", "count", len(events))

	var wg sync.WaitGroup
	for _, event := range events {
		event := event
		wg.Add(1)
		if err := d.pool.Submit(func() {
			defer wg.Done()
			d.publishEvent(ctx, event)
		}); err != nil {
			wg.Done()
			d.logger.Error("Failed to submit audit event to worker pool", "event_id", event.ID, "error", err)
		}
	}
	wg.Wait()

	return nil
}

func (d *Dispatcher) publishEvent(ctx context.Context, event *audit.Event) {
	if err := d.publisher.Publish(ctx, event.EntityID, event); err != nil {
		d.logger.Error("Failed to publish audit event",
			"event_id", event.ID,
			"action", string(event.Action),
			"current_attempts", event.Attempts,
			"error", err,
		)

		if errInc := d.auditRepo.IncrementAttempts(ctx, event.ID); errInc != nil {
			d.logger.Error("Failed to increment attempts for audit event", "event_id", event.ID, "error", errInc)
			return
		}

		if event.Attempts+1 >= d.maxRetryAttempts {
			d.logger.Warn("Max retry attempts reached for audit event, marking as FAILED_TO_PUBLISH",
				"event_id", event.ID,
				"attempts_made", event.Attempts+1,
			)
			if errUpdate := d.auditRepo.UpdateStatus(ctx, event.ID, audit.PublishStatusFailedToPublish); errUpdate != nil {
				d.logger.Error("Failed to mark audit event as FAILED_TO_PUBLISH", "event_id", event.ID, "error", errUpdate)
				return
			}
			d.collector.RecordAuditFailed()
		}
		return
	}

	if err := d.auditRepo.UpdateStatus(ctx, event.ID, audit.PublishStatusProcessed); err != nil {
		d.logger.Error("Failed to mark audit event as PROCESSED", "event_id", event.ID, "error", err)
		return
	}
	d.collector.RecordAuditPublished()
	d.logger.Debug("Published audit event", "event_id", event.ID, "action", string(event.Action))
}
