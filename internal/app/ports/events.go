package ports

import "context"

// EventPublisher delivers outbox rows to downstream indexers.
type EventPublisher interface {
	Publish(ctx context.Context, events []EventRecord) error
}
