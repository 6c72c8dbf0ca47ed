package storefront

import (
	"context"
	"strings"
)

// CapabilityRef is an indirect handle to state held by an external provider.
// It is resolved through a Resolver every time it is used and never cached.
type CapabilityRef struct {
	Provider string `json:"provider,omitempty"`
	Owner    string `json:"owner"`
	Resource string `json:"resource"`
}

// Valid reports whether the handle names an owner and a resource.
func (r CapabilityRef) Valid() bool {
	return strings.TrimSpace(r.Owner) != "" && strings.TrimSpace(r.Resource) != ""
}

// Normalize trims all handle parts.
func (r CapabilityRef) Normalize() CapabilityRef {
	return CapabilityRef{
		Provider: strings.TrimSpace(r.Provider),
		Owner:    strings.TrimSpace(r.Owner),
		Resource: strings.TrimSpace(r.Resource),
	}
}

func (r CapabilityRef) String() string {
	if r.Provider == "" {
		return r.Owner + "/" + r.Resource
	}
	return r.Provider + ":" + r.Owner + "/" + r.Resource
}

// AssetSource can hand out one specific asset on demand.
type AssetSource interface {
	Probe(ctx context.Context, assetType string, assetID uint64) (bool, error)
	Withdraw(ctx context.Context, assetType string, assetID uint64) (*Asset, error)
}

// PaymentSink accepts funds for one party.
//
// Deposit must either move the whole payment and return nil, or leave the
// payment untouched and return an error.
type PaymentSink interface {
	Deposit(ctx context.Context, payment *Payment) error
}

// DenominatedSink is a PaymentSink that only accepts one denomination.
// An empty Denomination means the sink cannot tell.
type DenominatedSink interface {
	PaymentSink
	Denomination() string
}

func acceptsDenomination(sink PaymentSink, denomination string) bool {
	d, ok := sink.(DenominatedSink)
	if !ok || d.Denomination() == "" {
		return true
	}
	return d.Denomination() == denomination
}

// Resolver turns capability handles into live capabilities at call time.
// Revoked or unknown handles resolve to an error wrapping ErrAssetUnavailable
// (asset sources) or any error (payment sinks).
type Resolver interface {
	AssetSource(ctx context.Context, ref CapabilityRef) (AssetSource, error)
	PaymentSink(ctx context.Context, ref CapabilityRef) (PaymentSink, error)
}
