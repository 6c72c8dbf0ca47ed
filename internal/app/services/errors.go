package services

import (
	"errors"

	"github.com/fr0stylo/storefront/internal/app/ports"
	"github.com/fr0stylo/storefront/internal/storefront"
)

var (
	// ErrBuyerPayment indicates the buyer's vault refused to release the price.
	ErrBuyerPayment = errors.New("buyer payment refused")
	// ErrAssetUndelivered indicates a completed sale whose asset could not be
	// handed to the buyer's collection.
	ErrAssetUndelivered = errors.New("purchased asset not delivered")
)

// ErrorKind classifies marketplace failures for transport-specific mapping.
type ErrorKind string

const (
	// ErrorNone is returned for a nil error.
	ErrorNone ErrorKind = ""
	// ErrorNotFound indicates an unknown storefront or listing.
	ErrorNotFound ErrorKind = "not_found"
	// ErrorInvalidInput indicates a malformed request.
	ErrorInvalidInput ErrorKind = "invalid_input"
	// ErrorPaymentMismatch indicates the payment does not match the listing.
	ErrorPaymentMismatch ErrorKind = "payment_mismatch"
	// ErrorAssetUnavailable indicates the listed asset can no longer be withdrawn.
	ErrorAssetUnavailable ErrorKind = "asset_unavailable"
	// ErrorStillValid indicates a cleanup of a listing that is still purchasable.
	ErrorStillValid ErrorKind = "still_valid"
	// ErrorExpired indicates a purchase of an expired listing.
	ErrorExpired ErrorKind = "expired"
	// ErrorUnauthorized indicates a missing or wrong owner token.
	ErrorUnauthorized ErrorKind = "unauthorized"
	// ErrorConflict indicates the storefront is busy or retired, or an asset
	// could not be placed.
	ErrorConflict ErrorKind = "conflict"
	// ErrorUnavailable indicates custody could not be reached.
	ErrorUnavailable ErrorKind = "unavailable"
	// ErrorInternal is used for everything else.
	ErrorInternal ErrorKind = "internal"
)

// ClassifyError classifies a returned marketplace error.
func ClassifyError(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorNone
	case errors.Is(err, ports.ErrCustodyUnavailable):
		return ErrorUnavailable
	case errors.Is(err, ports.ErrStorefrontNotFound), errors.Is(err, storefront.ErrNotFound),
		errors.Is(err, ports.ErrDeliveryNotFound):
		return ErrorNotFound
	case errors.Is(err, storefront.ErrUnauthorized):
		return ErrorUnauthorized
	case errors.Is(err, storefront.ErrInvalidInput), errors.Is(err, storefront.ErrMoved):
		return ErrorInvalidInput
	case errors.Is(err, storefront.ErrPaymentMismatch), errors.Is(err, ErrBuyerPayment):
		return ErrorPaymentMismatch
	case errors.Is(err, storefront.ErrListingExpired):
		return ErrorExpired
	case errors.Is(err, storefront.ErrStillValid):
		return ErrorStillValid
	case errors.Is(err, storefront.ErrAssetUnavailable):
		return ErrorAssetUnavailable
	case errors.Is(err, storefront.ErrSettlementInProgress),
		errors.Is(err, storefront.ErrDestroyed),
		errors.Is(err, storefront.ErrPaymentUndeliverable),
		errors.Is(err, ErrAssetUndelivered):
		return ErrorConflict
	default:
		return ErrorInternal
	}
}
