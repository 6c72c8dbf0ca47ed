package queries

import (
	"database/sql"
)

type EventStore struct {
	Seq          int64
	EventID      string
	EventType    string
	StorefrontID string
	ListingID    sql.NullInt64
	PayloadJson  string
	OccurredAt   string
	PublishedAt  sql.NullString
}

type Listing struct {
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

type PendingDelivery struct {
	ID                  int64
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

type SaleCut struct {
	StorefrontID     string
	ListingID        int64
	Position         int64
	ReceiverProvider string
	ReceiverOwner    string
	ReceiverResource string
	Amount           string
}

type Storefront struct {
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
