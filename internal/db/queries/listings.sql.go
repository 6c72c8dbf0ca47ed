package queries

import (
	"context"
	"database/sql"
)

const insertListing = `-- name: InsertListing :exec
INSERT INTO listings (
    storefront_id, listing_id, asset_source_provider, asset_source_owner, asset_source_resource,
    asset_type, asset_id, denomination, price, custom_id, expires_at, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type InsertListingParams struct {
	StorefrontID        string
	ListingID           int64
	AssetSourceProvider string
	AssetSourceOwner    string
	AssetSourceResource string
	AssetType           string
	AssetID             string
	Denomination        string
	Price               string
	CustomID            string
	ExpiresAt           sql.NullString
	CreatedAt           string
}

func (q *Queries) InsertListing(ctx context.Context, arg InsertListingParams) error {
	_, err := q.db.ExecContext(ctx, insertListing,
		arg.StorefrontID,
		arg.ListingID,
		arg.AssetSourceProvider,
		arg.AssetSourceOwner,
		arg.AssetSourceResource,
		arg.AssetType,
		arg.AssetID,
		arg.Denomination,
		arg.Price,
		arg.CustomID,
		arg.ExpiresAt,
		arg.CreatedAt,
	)
	return err
}

const listListings = `-- name: ListListings :many
SELECT storefront_id, listing_id, asset_source_provider, asset_source_owner, asset_source_resource,
       asset_type, asset_id, denomination, price, custom_id, expires_at, created_at
FROM listings
WHERE storefront_id = ?
ORDER BY listing_id
`

func (q *Queries) ListListings(ctx context.Context, storefrontID string) ([]Listing, error) {
	rows, err := q.db.QueryContext(ctx, listListings, storefrontID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Listing
	for rows.Next() {
		var i Listing
		if err := rows.Scan(
			&i.StorefrontID,
			&i.ListingID,
			&i.AssetSourceProvider,
			&i.AssetSourceOwner,
			&i.AssetSourceResource,
			&i.AssetType,
			&i.AssetID,
			&i.Denomination,
			&i.Price,
			&i.CustomID,
			&i.ExpiresAt,
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

const deleteListings = `-- name: DeleteListings :exec
DELETE FROM listings WHERE storefront_id = ?
`

func (q *Queries) DeleteListings(ctx context.Context, storefrontID string) error {
	_, err := q.db.ExecContext(ctx, deleteListings, storefrontID)
	return err
}

const insertSaleCut = `-- name: InsertSaleCut :exec
INSERT INTO sale_cuts (
    storefront_id, listing_id, position, receiver_provider, receiver_owner, receiver_resource, amount
) VALUES (?, ?, ?, ?, ?, ?, ?)
`

type InsertSaleCutParams struct {
	StorefrontID     string
	ListingID        int64
	Position         int64
	ReceiverProvider string
	ReceiverOwner    string
	ReceiverResource string
	Amount           string
}

func (q *Queries) InsertSaleCut(ctx context.Context, arg InsertSaleCutParams) error {
	_, err := q.db.ExecContext(ctx, insertSaleCut,
		arg.StorefrontID,
		arg.ListingID,
		arg.Position,
		arg.ReceiverProvider,
		arg.ReceiverOwner,
		arg.ReceiverResource,
		arg.Amount,
	)
	return err
}

const listSaleCuts = `-- name: ListSaleCuts :many
SELECT storefront_id, listing_id, position, receiver_provider, receiver_owner, receiver_resource, amount
FROM sale_cuts
WHERE storefront_id = ?
ORDER BY listing_id, position
`

func (q *Queries) ListSaleCuts(ctx context.Context, storefrontID string) ([]SaleCut, error) {
	rows, err := q.db.QueryContext(ctx, listSaleCuts, storefrontID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SaleCut
	for rows.Next() {
		var i SaleCut
		if err := rows.Scan(
			&i.StorefrontID,
			&i.ListingID,
			&i.Position,
			&i.ReceiverProvider,
			&i.ReceiverOwner,
			&i.ReceiverResource,
			&i.Amount,
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
