package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/fr0stylo/storefront/internal/app/ports"
)

const (
	defaultRelayBatch    = 100
	defaultRelayAttempts = 5
)

// EventRelay forwards unpublished outbox events to a downstream publisher and
// marks them published once delivered. Delivery is at-least-once.
type EventRelay struct {
	store     ports.MarketStore
	publisher ports.EventPublisher
	log       *slog.Logger
	now       func() time.Time
	batchSize int64
	newPolicy func() backoff.BackOff
}

// RelayOption configures an EventRelay.
type RelayOption func(*EventRelay)

// WithRelayBatchSize caps how many events one RunOnce delivers.
func WithRelayBatchSize(size int64) RelayOption {
	return func(r *EventRelay) {
		if size > 0 {
			r.batchSize = size
		}
	}
}

// WithRelayLogger sets the relay logger.
func WithRelayLogger(log *slog.Logger) RelayOption {
	return func(r *EventRelay) {
		if log != nil {
			r.log = log
		}
	}
}

// WithRetryPolicy overrides the delivery retry policy.
func WithRetryPolicy(newPolicy func() backoff.BackOff) RelayOption {
	return func(r *EventRelay) {
		if newPolicy != nil {
			r.newPolicy = newPolicy
		}
	}
}

// NewEventRelay constructs an outbox relay.
func NewEventRelay(store ports.MarketStore, publisher ports.EventPublisher, opts ...RelayOption) *EventRelay {
	r := &EventRelay{
		store:     store,
		publisher: publisher,
		log:       slog.Default(),
		now:       time.Now,
		batchSize: defaultRelayBatch,
		newPolicy: defaultRetryPolicy,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func defaultRetryPolicy() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxInterval = 5 * time.Second
	policy.MaxElapsedTime = 30 * time.Second
	return backoff.WithMaxRetries(policy, defaultRelayAttempts)
}

// RunOnce delivers one batch of pending events in log order and returns how
// many were published.
func (r *EventRelay) RunOnce(ctx context.Context) (int, error) {
	pending, err := r.store.ListPendingEvents(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	deliver := func() error {
		err := r.publisher.Publish(ctx, pending)
		if err != nil && errors.Is(err, context.Canceled) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		r.log.WarnContext(ctx, "Event delivery failed, retrying",
			"events", len(pending),
			"first_seq", pending[0].Seq,
			"retry_in", wait.String(),
			"error", err,
		)
	}
	if err := backoff.RetryNotify(deliver, backoff.WithContext(r.newPolicy(), ctx), notify); err != nil {
		return 0, err
	}

	seqs := make([]int64, 0, len(pending))
	for _, event := range pending {
		seqs = append(seqs, event.Seq)
	}
	if err := r.store.MarkEventsPublished(ctx, seqs, r.now().UTC()); err != nil {
		return 0, err
	}
	r.log.DebugContext(ctx, "Events relayed", "events", len(seqs), "last_seq", seqs[len(seqs)-1])
	return len(seqs), nil
}

// Run drains the outbox every interval until ctx is done. A full batch is
// followed immediately by the next one.
func (r *EventRelay) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		published, err := r.RunOnce(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil:
			r.log.ErrorContext(ctx, "Event relay pass failed", "error", err)
		case int64(published) >= r.batchSize:
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
