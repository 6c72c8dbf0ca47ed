package ports

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/fr0stylo/storefront/internal/storefront"
)

// ErrCustodyUnavailable marks custody failures that say nothing about the
// asset or funds themselves, such as an unreachable remote service.
var ErrCustodyUnavailable = errors.New("custody: service unavailable")

// Custody is the external system holding assets and funds. Besides resolving
// capability handles for the engine, it lets the host take a buyer's payment
// and hand the purchased asset to the buyer.
type Custody interface {
	storefront.Resolver
	WithdrawPayment(ctx context.Context, from storefront.CapabilityRef, denomination string, amount decimal.Decimal) (*storefront.Payment, error)
	DepositAsset(ctx context.Context, to storefront.CapabilityRef, asset *storefront.Asset) error
}

// CustodyAdmin provisions collections and vaults. Only local and test custody
// providers implement it.
type CustodyAdmin interface {
	OpenCollection(owner, resource string) storefront.CapabilityRef
	Mint(ref storefront.CapabilityRef, assetType string, id uint64) error
	Holds(ref storefront.CapabilityRef, assetType string, id uint64) bool
	OpenVault(owner, resource, denomination string, balance decimal.Decimal) storefront.CapabilityRef
	Balance(ref storefront.CapabilityRef) (decimal.Decimal, error)
	Revoke(ref storefront.CapabilityRef) error
}
