package queries

import "context"

const createStorefront = `-- name: CreateStorefront :exec
INSERT INTO storefronts (
    id, owner, seller_sink_provider, seller_sink_owner, seller_sink_resource,
    owner_token_hash, next_listing_id, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateStorefrontParams struct {
	ID                 string
	Owner              string
	SellerSinkProvider string
	SellerSinkOwner    string
	SellerSinkResource string
	OwnerTokenHash     string
	NextListingID      int64
	CreatedAt          string
	UpdatedAt          string
}

func (q *Queries) CreateStorefront(ctx context.Context, arg CreateStorefrontParams) error {
	_, err := q.db.ExecContext(ctx, createStorefront,
		arg.ID,
		arg.Owner,
		arg.SellerSinkProvider,
		arg.SellerSinkOwner,
		arg.SellerSinkResource,
		arg.OwnerTokenHash,
		arg.NextListingID,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getStorefront = `-- name: GetStorefront :one
SELECT id, owner, seller_sink_provider, seller_sink_owner, seller_sink_resource,
       owner_token_hash, next_listing_id, created_at, updated_at
FROM storefronts
WHERE id = ?
`

func (q *Queries) GetStorefront(ctx context.Context, id string) (Storefront, error) {
	row := q.db.QueryRowContext(ctx, getStorefront, id)
	var i Storefront
	err := row.Scan(
		&i.ID,
		&i.Owner,
		&i.SellerSinkProvider,
		&i.SellerSinkOwner,
		&i.SellerSinkResource,
		&i.OwnerTokenHash,
		&i.NextListingID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateStorefrontCounter = `-- name: UpdateStorefrontCounter :execrows
UPDATE storefronts
SET next_listing_id = ?, updated_at = ?
WHERE id = ?
`

type UpdateStorefrontCounterParams struct {
	NextListingID int64
	UpdatedAt     string
	ID            string
}

func (q *Queries) UpdateStorefrontCounter(ctx context.Context, arg UpdateStorefrontCounterParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateStorefrontCounter, arg.NextListingID, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteStorefront = `-- name: DeleteStorefront :execrows
DELETE FROM storefronts WHERE id = ?
`

func (q *Queries) DeleteStorefront(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteStorefront, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listStorefronts = `-- name: ListStorefronts :many
SELECT s.id, s.owner, COUNT(l.listing_id) AS listing_count, s.created_at
FROM storefronts s
LEFT JOIN listings l ON l.storefront_id = s.id
GROUP BY s.id, s.owner, s.created_at
ORDER BY s.created_at, s.id
`

type ListStorefrontsRow struct {
	ID           string
	Owner        string
	ListingCount int64
	CreatedAt    string
}

func (q *Queries) ListStorefronts(ctx context.Context) ([]ListStorefrontsRow, error) {
	rows, err := q.db.QueryContext(ctx, listStorefronts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListStorefrontsRow
	for rows.Next() {
		var i ListStorefrontsRow
		if err := rows.Scan(&i.ID, &i.Owner, &i.ListingCount, &i.CreatedAt); err != nil {
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
