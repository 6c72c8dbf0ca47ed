package storefront

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType names one kind of storefront notification.
type EventType string

const (
	EventStorefrontInitialized EventType = "storefront.initialized"
	EventStorefrontDestroyed   EventType = "storefront.destroyed"
	EventListingAvailable      EventType = "listing.available"
	EventListingCompleted      EventType = "listing.completed"
	EventUnpaidReceiver        EventType = "listing.unpaid_receiver"
)

// Event is an append-only notification for external indexers.
type Event interface {
	Kind() EventType
	Storefront() string
	// Listing returns the listing id the event is about, if any.
	Listing() (uint64, bool)
}

// Emitter receives events in emission order.
type Emitter interface {
	Emit(Event)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(Event)

func (f EmitterFunc) Emit(e Event) { f(e) }

// Recorder buffers events for one transaction.
type Recorder struct {
	events []Event
}

func (r *Recorder) Emit(e Event) { r.events = append(r.events, e) }

// Events returns the buffered events in order.
func (r *Recorder) Events() []Event {
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Reset drops buffered events.
func (r *Recorder) Reset() { r.events = r.events[:0] }

type StorefrontInitialized struct {
	StorefrontID string `json:"storefrontId"`
	Owner        string `json:"owner"`
}

func (e StorefrontInitialized) Kind() EventType         { return EventStorefrontInitialized }
func (e StorefrontInitialized) Storefront() string      { return e.StorefrontID }
func (e StorefrontInitialized) Listing() (uint64, bool) { return 0, false }

type StorefrontDestroyed struct {
	StorefrontID string `json:"storefrontId"`
}

func (e StorefrontDestroyed) Kind() EventType         { return EventStorefrontDestroyed }
func (e StorefrontDestroyed) Storefront() string      { return e.StorefrontID }
func (e StorefrontDestroyed) Listing() (uint64, bool) { return 0, false }

type ListingAvailable struct {
	StorefrontID string          `json:"storefrontId"`
	ListingID    uint64          `json:"listingId"`
	AssetType    string          `json:"assetType"`
	AssetID      uint64          `json:"assetId"`
	Price        decimal.Decimal `json:"price"`
	Denomination string          `json:"denomination"`
	CustomID     string          `json:"customId,omitempty"`
	Expiry       *time.Time      `json:"expiry,omitempty"`
}

func (e ListingAvailable) Kind() EventType         { return EventListingAvailable }
func (e ListingAvailable) Storefront() string      { return e.StorefrontID }
func (e ListingAvailable) Listing() (uint64, bool) { return e.ListingID, true }

type ListingCompleted struct {
	StorefrontID string `json:"storefrontId"`
	ListingID    uint64 `json:"listingId"`
	Purchased    bool   `json:"purchased"`
	AssetType    string `json:"assetType"`
	AssetID      uint64 `json:"assetId"`
}

func (e ListingCompleted) Kind() EventType         { return EventListingCompleted }
func (e ListingCompleted) Storefront() string      { return e.StorefrontID }
func (e ListingCompleted) Listing() (uint64, bool) { return e.ListingID, true }

type UnpaidReceiver struct {
	StorefrontID string          `json:"storefrontId"`
	ListingID    uint64          `json:"listingId"`
	CutIndex     int             `json:"cutIndex"`
	Receiver     string          `json:"receiver"`
	Amount       decimal.Decimal `json:"amount"`
	Denomination string          `json:"denomination"`
}

func (e UnpaidReceiver) Kind() EventType         { return EventUnpaidReceiver }
func (e UnpaidReceiver) Storefront() string      { return e.StorefrontID }
func (e UnpaidReceiver) Listing() (uint64, bool) { return e.ListingID, true }
