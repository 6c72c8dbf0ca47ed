// Package memcustody is an in-memory custody provider: asset collections and
// fungible vaults keyed by owner and resource. It backs local development and
// tests; production deployments talk to a real custody service through
// custodyhttp.
package memcustody

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fr0stylo/storefront/internal/storefront"
)

// Provider is the CapabilityRef.Provider value served by this package.
const Provider = "memory"

var (
	// ErrUnknownCapability indicates a handle that was never opened.
	ErrUnknownCapability = errors.New("memcustody: unknown capability")
	// ErrRevoked indicates a handle whose owner revoked access.
	ErrRevoked = errors.New("memcustody: capability revoked")
	// ErrInsufficientFunds indicates a withdrawal larger than the vault balance.
	ErrInsufficientFunds = errors.New("memcustody: insufficient funds")
	// ErrDenomination indicates a payment in the wrong denomination for a vault.
	ErrDenomination = errors.New("memcustody: denomination mismatch")
	// ErrRejected indicates a vault configured to refuse deposits.
	ErrRejected = errors.New("memcustody: deposit rejected")
	// ErrAssetExists indicates minting or depositing an asset already held.
	ErrAssetExists = errors.New("memcustody: asset already held")
)

type assetKey struct {
	assetType string
	id        uint64
}

type collection struct {
	assets  map[assetKey]struct{}
	revoked bool
}

type vault struct {
	denomination string
	balance      decimal.Decimal
	revoked      bool
	rejecting    bool
}

type handle struct {
	owner    string
	resource string
}

// Custody holds every collection and vault in memory. Safe for concurrent use.
type Custody struct {
	mu          sync.Mutex
	collections map[handle]*collection
	vaults      map[handle]*vault
}

// New returns an empty custody provider.
func New() *Custody {
	return &Custody{
		collections: make(map[handle]*collection),
		vaults:      make(map[handle]*vault),
	}
}

func keyOf(ref storefront.CapabilityRef) (handle, error) {
	ref = ref.Normalize()
	if ref.Provider != "" && ref.Provider != Provider {
		return handle{}, fmt.Errorf("%w: provider %q", ErrUnknownCapability, ref.Provider)
	}
	if !ref.Valid() {
		return handle{}, fmt.Errorf("%w: empty handle", ErrUnknownCapability)
	}
	return handle{owner: ref.Owner, resource: ref.Resource}, nil
}

// Ref builds a handle served by this provider.
func Ref(owner, resource string) storefront.CapabilityRef {
	return storefront.CapabilityRef{Provider: Provider, Owner: strings.TrimSpace(owner), Resource: strings.TrimSpace(resource)}
}

// OpenCollection creates an empty asset collection, or returns the existing one.
func (c *Custody) OpenCollection(owner, resource string) storefront.CapabilityRef {
	ref := Ref(owner, resource)
	c.mu.Lock()
	defer c.mu.Unlock()
	key := handle{owner: ref.Owner, resource: ref.Resource}
	if _, ok := c.collections[key]; !ok {
		c.collections[key] = &collection{assets: make(map[assetKey]struct{})}
	}
	return ref
}

// Mint places a new asset in a collection.
func (c *Custody) Mint(ref storefront.CapabilityRef, assetType string, id uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	col, err := c.collectionLocked(ref, false)
	if err != nil {
		return err
	}
	key := assetKey{assetType: strings.TrimSpace(assetType), id: id}
	if _, ok := col.assets[key]; ok {
		return fmt.Errorf("%w: %s#%d", ErrAssetExists, key.assetType, id)
	}
	col.assets[key] = struct{}{}
	return nil
}

// Holds reports whether the collection currently holds the asset.
func (c *Custody) Holds(ref storefront.CapabilityRef, assetType string, id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	col, err := c.collectionLocked(ref, true)
	if err != nil {
		return false
	}
	_, ok := col.assets[assetKey{assetType: assetType, id: id}]
	return ok
}

// Burn removes an asset from a collection out of band.
func (c *Custody) Burn(ref storefront.CapabilityRef, assetType string, id uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	col, err := c.collectionLocked(ref, true)
	if err != nil {
		return err
	}
	key := assetKey{assetType: assetType, id: id}
	if _, ok := col.assets[key]; !ok {
		return fmt.Errorf("%w: %s#%d", storefront.ErrAssetUnavailable, assetType, id)
	}
	delete(col.assets, key)
	return nil
}

// OpenVault creates a fungible vault with an opening balance, or returns the existing one.
func (c *Custody) OpenVault(owner, resource, denomination string, balance decimal.Decimal) storefront.CapabilityRef {
	ref := Ref(owner, resource)
	c.mu.Lock()
	defer c.mu.Unlock()
	key := handle{owner: ref.Owner, resource: ref.Resource}
	if _, ok := c.vaults[key]; !ok {
		c.vaults[key] = &vault{denomination: strings.TrimSpace(denomination), balance: balance}
	}
	return ref
}

// Balance returns a vault balance, ignoring revocation.
func (c *Custody) Balance(ref storefront.CapabilityRef) (decimal.Decimal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, err := c.vaultLocked(ref, true)
	if err != nil {
		return decimal.Zero, err
	}
	return v.balance, nil
}

// Revoke makes a collection or vault handle unresolvable.
func (c *Custody) Revoke(ref storefront.CapabilityRef) error {
	return c.setRevoked(ref, true)
}

// Restore undoes Revoke.
func (c *Custody) Restore(ref storefront.CapabilityRef) error {
	return c.setRevoked(ref, false)
}

func (c *Custody) setRevoked(ref storefront.CapabilityRef, revoked bool) error {
	key, err := keyOf(ref)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	found := false
	if col, ok := c.collections[key]; ok {
		col.revoked = revoked
		found = true
	}
	if v, ok := c.vaults[key]; ok {
		v.revoked = revoked
		found = true
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownCapability, ref)
	}
	return nil
}

// RejectDeposits makes a vault refuse every deposit while still resolving.
func (c *Custody) RejectDeposits(ref storefront.CapabilityRef, reject bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, err := c.vaultLocked(ref, true)
	if err != nil {
		return err
	}
	v.rejecting = reject
	return nil
}

func (c *Custody) collectionLocked(ref storefront.CapabilityRef, allowRevoked bool) (*collection, error) {
	key, err := keyOf(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storefront.ErrAssetUnavailable, err)
	}
	col, ok := c.collections[key]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", storefront.ErrAssetUnavailable, ErrUnknownCapability, ref)
	}
	if col.revoked && !allowRevoked {
		return nil, fmt.Errorf("%w: %w: %s", storefront.ErrAssetUnavailable, ErrRevoked, ref)
	}
	return col, nil
}

func (c *Custody) vaultLocked(ref storefront.CapabilityRef, allowRevoked bool) (*vault, error) {
	key, err := keyOf(ref)
	if err != nil {
		return nil, err
	}
	v, ok := c.vaults[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCapability, ref)
	}
	if v.revoked && !allowRevoked {
		return nil, fmt.Errorf("%w: %s", ErrRevoked, ref)
	}
	return v, nil
}

// AssetSource resolves a collection handle.
func (c *Custody) AssetSource(_ context.Context, ref storefront.CapabilityRef) (storefront.AssetSource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.collectionLocked(ref, false); err != nil {
		return nil, err
	}
	return assetSource{c: c, ref: ref}, nil
}

// PaymentSink resolves a vault handle.
func (c *Custody) PaymentSink(_ context.Context, ref storefront.CapabilityRef) (storefront.PaymentSink, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.vaultLocked(ref, false); err != nil {
		return nil, err
	}
	return paymentSink{c: c, ref: ref}, nil
}

// WithdrawPayment takes funds out of a vault as a payment handle.
func (c *Custody) WithdrawPayment(_ context.Context, ref storefront.CapabilityRef, denomination string, amount decimal.Decimal) (*storefront.Payment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, err := c.vaultLocked(ref, false)
	if err != nil {
		return nil, err
	}
	if v.denomination != strings.TrimSpace(denomination) {
		return nil, fmt.Errorf("%w: vault holds %s", ErrDenomination, v.denomination)
	}
	if amount.IsNegative() || amount.GreaterThan(v.balance) {
		return nil, fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientFunds, v.balance, amount)
	}
	payment, err := storefront.NewPayment(v.denomination, amount)
	if err != nil {
		return nil, err
	}
	v.balance = v.balance.Sub(amount)
	return payment, nil
}

// DepositAsset moves an asset into a collection.
func (c *Custody) DepositAsset(_ context.Context, ref storefront.CapabilityRef, asset *storefront.Asset) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	col, err := c.collectionLocked(ref, false)
	if err != nil {
		return err
	}
	if !asset.Live() {
		return storefront.ErrMoved
	}
	key := assetKey{assetType: asset.Type(), id: asset.ID()}
	if _, ok := col.assets[key]; ok {
		return fmt.Errorf("%w: %s", ErrAssetExists, asset)
	}
	if _, err := asset.Move(); err != nil {
		return err
	}
	col.assets[key] = struct{}{}
	return nil
}

type assetSource struct {
	c   *Custody
	ref storefront.CapabilityRef
}

func (s assetSource) Probe(_ context.Context, assetType string, assetID uint64) (bool, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	col, err := s.c.collectionLocked(s.ref, false)
	if err != nil {
		return false, err
	}
	_, ok := col.assets[assetKey{assetType: assetType, id: assetID}]
	return ok, nil
}

func (s assetSource) Withdraw(_ context.Context, assetType string, assetID uint64) (*storefront.Asset, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	col, err := s.c.collectionLocked(s.ref, false)
	if err != nil {
		return nil, err
	}
	key := assetKey{assetType: assetType, id: assetID}
	if _, ok := col.assets[key]; !ok {
		return nil, fmt.Errorf("%w: %s#%d not in %s", storefront.ErrAssetUnavailable, assetType, assetID, s.ref)
	}
	delete(col.assets, key)
	return storefront.NewAsset(assetType, assetID), nil
}

type paymentSink struct {
	c   *Custody
	ref storefront.CapabilityRef
}

// Denomination reports the vault currency, or "" once the vault is gone.
func (s paymentSink) Denomination() string {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	v, err := s.c.vaultLocked(s.ref, true)
	if err != nil {
		return ""
	}
	return v.denomination
}

func (s paymentSink) Deposit(_ context.Context, payment *storefront.Payment) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	v, err := s.c.vaultLocked(s.ref, false)
	if err != nil {
		return err
	}
	if v.rejecting {
		return fmt.Errorf("%w: %s", ErrRejected, s.ref)
	}
	if !payment.Live() {
		return storefront.ErrMoved
	}
	if payment.Denomination() != v.denomination {
		return fmt.Errorf("%w: vault holds %s, got %s", ErrDenomination, v.denomination, payment.Denomination())
	}
	taken, err := payment.Take()
	if err != nil {
		return err
	}
	v.balance = v.balance.Add(taken.Balance())
	return nil
}
