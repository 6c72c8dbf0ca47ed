package ports

import (
	"context"
	"errors"
	"time"

	"github.com/fr0stylo/storefront/internal/storefront"
)

var (
	// ErrStorefrontNotFound is returned by stores for unknown storefront ids.
	ErrStorefrontNotFound = errors.New("storefront not found")
	// ErrDeliveryNotFound is returned for unknown or already delivered parcels.
	ErrDeliveryNotFound = errors.New("delivery not found")
)

// StorefrontRecord is one persisted storefront: engine state plus host metadata.
type StorefrontRecord struct {
	State          storefront.State
	OwnerTokenHash string
	CreatedAt      time.Time
}

// StorefrontSummary is one row of the storefront directory.
type StorefrontSummary struct {
	ID           string    `json:"id"`
	Owner        string    `json:"owner"`
	ListingCount int64     `json:"listingCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// EventRecord is one outbox row.
type EventRecord struct {
	Seq          int64
	EventID      string
	EventType    string
	StorefrontID string
	ListingID    *uint64
	PayloadJSON  string
	OccurredAt   time.Time
	PublishedAt  *time.Time
}

// Delivery reasons.
const (
	DeliveryToBuyer = "purchase"
	DeliveryRestock = "restock"
)

// PendingDelivery is an asset that left its source collection but has not
// reached its destination. Until it is delivered the row is the only record
// of the asset.
type PendingDelivery struct {
	ID           int64                    `json:"id"`
	StorefrontID string                   `json:"storefrontId"`
	ListingID    uint64                   `json:"listingId"`
	AssetType    string                   `json:"assetType"`
	AssetID      uint64                   `json:"assetId"`
	Destination  storefront.CapabilityRef `json:"destination"`
	Reason       string                   `json:"reason"`
	LastError    string                   `json:"lastError,omitempty"`
	CreatedAt    time.Time                `json:"createdAt"`
}

// MarketTx is the write contract available inside one store transaction.
type MarketTx interface {
	CreateStorefront(ctx context.Context, record StorefrontRecord) error
	LoadStorefront(ctx context.Context, storefrontID string) (StorefrontRecord, error)
	SaveStorefront(ctx context.Context, state storefront.State) error
	DeleteStorefront(ctx context.Context, storefrontID string) error
	AppendEvents(ctx context.Context, events []EventRecord) error
	ParkDelivery(ctx context.Context, delivery PendingDelivery) (int64, error)
	TakeDelivery(ctx context.Context, deliveryID int64) (PendingDelivery, error)
}

// MarketStore persists storefronts and the ordered event outbox.
type MarketStore interface {
	WithinTx(ctx context.Context, fn func(MarketTx) error) error
	LoadStorefront(ctx context.Context, storefrontID string) (StorefrontRecord, error)
	ListStorefronts(ctx context.Context) ([]StorefrontSummary, error)
	ListEvents(ctx context.Context, afterSeq int64, limit int64) ([]EventRecord, error)
	ListPendingEvents(ctx context.Context, limit int64) ([]EventRecord, error)
	MarkEventsPublished(ctx context.Context, seqs []int64, publishedAt time.Time) error
	ListPendingDeliveries(ctx context.Context, limit int64) ([]PendingDelivery, error)
	Close() error
}
