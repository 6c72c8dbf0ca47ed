package queries

import (
	"context"
	"database/sql"
)

const appendEventStore = `-- name: AppendEventStore :one
INSERT INTO event_store (
    event_id, event_type, storefront_id, listing_id, payload_json, occurred_at
) VALUES (?, ?, ?, ?, ?, ?)
RETURNING seq
`

type AppendEventStoreParams struct {
	EventID      string
	EventType    string
	StorefrontID string
	ListingID    sql.NullInt64
	PayloadJson  string
	OccurredAt   string
}

func (q *Queries) AppendEventStore(ctx context.Context, arg AppendEventStoreParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, appendEventStore,
		arg.EventID,
		arg.EventType,
		arg.StorefrontID,
		arg.ListingID,
		arg.PayloadJson,
		arg.OccurredAt,
	)
	var seq int64
	err := row.Scan(&seq)
	return seq, err
}

const listEventsAfter = `-- name: ListEventsAfter :many
SELECT seq, event_id, event_type, storefront_id, listing_id, payload_json, occurred_at, published_at
FROM event_store
WHERE seq > ?
ORDER BY seq
LIMIT ?
`

type ListEventsAfterParams struct {
	AfterSeq int64
	Limit    int64
}

func (q *Queries) ListEventsAfter(ctx context.Context, arg ListEventsAfterParams) ([]EventStore, error) {
	rows, err := q.db.QueryContext(ctx, listEventsAfter, arg.AfterSeq, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []EventStore
	for rows.Next() {
		var i EventStore
		if err := rows.Scan(
			&i.Seq,
			&i.EventID,
			&i.EventType,
			&i.StorefrontID,
			&i.ListingID,
			&i.PayloadJson,
			&i.OccurredAt,
			&i.PublishedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listPendingEvents = `-- name: ListPendingEvents :many
SELECT seq, event_id, event_type, storefront_id, listing_id, payload_json, occurred_at, published_at
FROM event_store
WHERE published_at IS NULL
ORDER BY seq
LIMIT ?
`

func (q *Queries) ListPendingEvents(ctx context.Context, limit int64) ([]EventStore, error) {
	rows, err := q.db.QueryContext(ctx, listPendingEvents, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []EventStore
	for rows.Next() {
		var i EventStore
		if err := rows.Scan(
			&i.Seq,
			&i.EventID,
			&i.EventType,
			&i.StorefrontID,
			&i.ListingID,
			&i.PayloadJson,
			&i.OccurredAt,
			&i.PublishedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markEventPublished = `-- name: MarkEventPublished :exec
UPDATE event_store
SET published_at = ?
WHERE seq = ? AND published_at IS NULL
`

type MarkEventPublishedParams struct {
	PublishedAt string
	Seq         int64
}

func (q *Queries) MarkEventPublished(ctx context.Context, arg MarkEventPublishedParams) error {
	_, err := q.db.ExecContext(ctx, markEventPublished, arg.PublishedAt, arg.Seq)
	return err
}
