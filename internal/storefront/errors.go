package storefront

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates an unknown or already purchased listing id.
	ErrNotFound = errors.New("storefront: listing not found")
	// ErrInvalidInput indicates malformed listing input or sale cuts.
	ErrInvalidInput = errors.New("storefront: invalid input")
	// ErrAssetUnavailable indicates the listed asset can no longer be probed or withdrawn.
	ErrAssetUnavailable = errors.New("storefront: asset unavailable")
	// ErrPaymentMismatch indicates a payment with the wrong amount or denomination.
	ErrPaymentMismatch = errors.New("storefront: payment mismatch")
	// ErrUnauthorized indicates a non-owner calling an owner-only operation.
	ErrUnauthorized = errors.New("storefront: unauthorized")
	// ErrStillValid indicates cleanup of a listing whose asset is still resolvable.
	ErrStillValid = errors.New("storefront: listing still valid")
	// ErrListingExpired indicates a purchase attempt after the listing expiry.
	ErrListingExpired = errors.New("storefront: listing expired")
	// ErrSettlementInProgress indicates a reentrant call against a listing being settled.
	ErrSettlementInProgress = errors.New("storefront: settlement in progress")
	// ErrDestroyed indicates an operation against a destroyed storefront.
	ErrDestroyed = errors.New("storefront: storefront destroyed")
	// ErrPaymentUndeliverable indicates neither the receiver nor the seller sink accepted funds.
	ErrPaymentUndeliverable = errors.New("storefront: payment undeliverable")
	// ErrMoved indicates use of an asset or payment handle after it was moved.
	ErrMoved = errors.New("storefront: value already moved")
)

// SettlementError reports a purchase that failed after the asset left its
// source. The caller owns Asset and should put it back into Source. Funds
// that were not routed stay in the payment handed to Purchase.
type SettlementError struct {
	ListingID uint64
	Source    CapabilityRef
	Asset     *Asset
	Err       error
}

func (e *SettlementError) Error() string {
	return fmt.Sprintf("settle listing %d: %v", e.ListingID, e.Err)
}

func (e *SettlementError) Unwrap() error { return e.Err }
