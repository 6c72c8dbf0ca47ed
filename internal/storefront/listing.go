package storefront

import (
	"time"

	"github.com/shopspring/decimal"
)

// ListingInput describes a new sale offer. The price is not supplied: it is
// the sum of the sale cut amounts.
type ListingInput struct {
	AssetSource  CapabilityRef
	AssetType    string
	AssetID      uint64
	Denomination string
	SaleCuts     []SaleCut
	// CustomID is free-form attribution, usually the marketplace that created the listing.
	CustomID string
	// Expiry is optional; the zero value never expires.
	Expiry time.Time
}

// Listing is one sale offer owned by exactly one Storefront.
type Listing struct {
	id           uint64
	assetSource  CapabilityRef
	assetType    string
	assetID      uint64
	denomination string
	price        decimal.Decimal
	saleCuts     []SaleCut
	customID     string
	expiry       time.Time
	createdAt    time.Time
	purchased    bool
}

func (l *Listing) expired(now time.Time) bool {
	return !l.expiry.IsZero() && !now.Before(l.expiry)
}

func (l *Listing) sameAsset(assetType string, assetID uint64) bool {
	return l.assetType == assetType && l.assetID == assetID
}

// CutDetails describes one payout without exposing the receiver capability.
type CutDetails struct {
	Receiver string          `json:"receiver"`
	Owner    string          `json:"owner"`
	Amount   decimal.Decimal `json:"amount"`
}

// Details is a read-only copy of a listing's public state.
type Details struct {
	ListingID       uint64          `json:"listingId"`
	StorefrontID    string          `json:"storefrontId"`
	StorefrontOwner string          `json:"storefrontOwner"`
	AssetType       string          `json:"assetType"`
	AssetID         uint64          `json:"assetId"`
	Price           decimal.Decimal `json:"price"`
	Denomination    string          `json:"denomination"`
	SaleCuts        []CutDetails    `json:"saleCuts"`
	Purchased       bool            `json:"purchased"`
	CustomID        string          `json:"customId,omitempty"`
	Expiry          *time.Time      `json:"expiry,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

func (l *Listing) details(storefrontID, owner string) Details {
	cuts := make([]CutDetails, len(l.saleCuts))
	for i, cut := range l.saleCuts {
		cuts[i] = CutDetails{Receiver: cut.Receiver.String(), Owner: cut.Receiver.Owner, Amount: cut.Amount}
	}
	d := Details{
		ListingID:       l.id,
		StorefrontID:    storefrontID,
		StorefrontOwner: owner,
		AssetType:       l.assetType,
		AssetID:         l.assetID,
		Price:           l.price,
		Denomination:    l.denomination,
		SaleCuts:        cuts,
		Purchased:       l.purchased,
		CustomID:        l.customID,
		CreatedAt:       l.createdAt,
	}
	if !l.expiry.IsZero() {
		expiry := l.expiry
		d.Expiry = &expiry
	}
	return d
}
