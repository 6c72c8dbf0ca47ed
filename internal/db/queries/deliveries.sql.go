package queries

import "context"

const insertPendingDelivery = `-- name: InsertPendingDelivery :one
INSERT INTO pending_deliveries (
    storefront_id, listing_id, asset_type, asset_id,
    destination_provider, destination_owner, destination_resource,
    reason, last_error, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id
`

type InsertPendingDeliveryParams struct {
	StorefrontID        string
	ListingID           int64
	AssetType           string
	AssetID             string
	DestinationProvider string
	DestinationOwner    string
	DestinationResource string
	Reason              string
	LastError           string
	CreatedAt           string
}

func (q *Queries) InsertPendingDelivery(ctx context.Context, arg InsertPendingDeliveryParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, insertPendingDelivery,
		arg.StorefrontID,
		arg.ListingID,
		arg.AssetType,
		arg.AssetID,
		arg.DestinationProvider,
		arg.DestinationOwner,
		arg.DestinationResource,
		arg.Reason,
		arg.LastError,
		arg.CreatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getPendingDelivery = `-- name: GetPendingDelivery :one
SELECT id, storefront_id, listing_id, asset_type, asset_id,
       destination_provider, destination_owner, destination_resource,
       reason, last_error, created_at
FROM pending_deliveries
WHERE id = ?
`

func (q *Queries) GetPendingDelivery(ctx context.Context, id int64) (PendingDelivery, error) {
	row := q.db.QueryRowContext(ctx, getPendingDelivery, id)
	var i PendingDelivery
	err := row.Scan(
		&i.ID,
		&i.StorefrontID,
		&i.ListingID,
		&i.AssetType,
		&i.AssetID,
		&i.DestinationProvider,
		&i.DestinationOwner,
		&i.DestinationResource,
		&i.Reason,
		&i.LastError,
		&i.CreatedAt,
	)
	return i, err
}

const deletePendingDelivery = `-- name: DeletePendingDelivery :execrows
DELETE FROM pending_deliveries
WHERE id = ?
`

func (q *Queries) DeletePendingDelivery(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deletePendingDelivery, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listPendingDeliveries = `-- name: ListPendingDeliveries :many
SELECT id, storefront_id, listing_id, asset_type, asset_id,
       destination_provider, destination_owner, destination_resource,
       reason, last_error, created_at
FROM pending_deliveries
ORDER BY id
LIMIT ?
`

func (q *Queries) ListPendingDeliveries(ctx context.Context, limit int64) ([]PendingDelivery, error) {
	rows, err := q.db.QueryContext(ctx, listPendingDeliveries, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PendingDelivery
	for rows.Next() {
		var i PendingDelivery
		if err := rows.Scan(
			&i.ID,
			&i.StorefrontID,
			&i.ListingID,
			&i.AssetType,
			&i.AssetID,
			&i.DestinationProvider,
			&i.DestinationOwner,
			&i.DestinationResource,
			&i.Reason,
			&i.LastError,
			&i.CreatedAt,
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
