// Package storefront implements the listing lifecycle and purchase settlement
// engine for one seller. A Storefront never owns the assets it advertises; it
// keeps capability handles and resolves them when a listing is created,
// bought or cleaned up.
//
// A Storefront is not safe for concurrent use. Hosts run each operation inside
// one serialized transaction and persist Snapshot afterwards.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Public is the surface reachable by anyone holding the storefront address.
type Public interface {
	ID() string
	Owner() string
	ListingIDs() []uint64
	BorrowListing(listingID uint64) (Details, error)
	DuplicateListingIDs(assetType string, assetID, listingID uint64) []uint64
	Purchase(ctx context.Context, listingID uint64, payment *Payment) (*Asset, error)
	Cleanup(ctx context.Context, listingID uint64) error
	CleanupExpired(ctx context.Context, fromIndex, toIndex int) ([]uint64, error)
}

// Option configures a Storefront.
type Option func(*Storefront)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Storefront) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger used for settlement diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(s *Storefront) {
		if log != nil {
			s.log = log
		}
	}
}

// Storefront is the owner's handle: it exposes every operation, including the
// owner-only ones. Hand out Public() to everyone else.
type Storefront struct {
	id            string
	owner         string
	sellerSink    CapabilityRef
	resolver      Resolver
	emitter       Emitter
	listings      map[uint64]*Listing
	nextListingID uint64
	settling      map[uint64]struct{}
	destroyed     bool
	now           func() time.Time
	log           *slog.Logger
}

// New initializes an empty storefront and emits StorefrontInitialized.
func New(id, owner string, sellerSink CapabilityRef, resolver Resolver, emitter Emitter, opts ...Option) (*Storefront, error) {
	s, err := newStorefront(id, owner, sellerSink, resolver, emitter, opts...)
	if err != nil {
		return nil, err
	}
	s.emitter.Emit(StorefrontInitialized{StorefrontID: s.id, Owner: s.owner})
	return s, nil
}

func newStorefront(id, owner string, sellerSink CapabilityRef, resolver Resolver, emitter Emitter, opts ...Option) (*Storefront, error) {
	id = strings.TrimSpace(id)
	owner = strings.TrimSpace(owner)
	sellerSink = sellerSink.Normalize()
	if id == "" || owner == "" {
		return nil, fmt.Errorf("%w: storefront id and owner are required", ErrInvalidInput)
	}
	if !sellerSink.Valid() {
		return nil, fmt.Errorf("%w: seller payment sink is required", ErrInvalidInput)
	}
	if resolver == nil {
		return nil, errors.New("storefront: resolver is required")
	}
	if emitter == nil {
		emitter = EmitterFunc(func(Event) {})
	}
	s := &Storefront{
		id:            id,
		owner:         owner,
		sellerSink:    sellerSink,
		resolver:      resolver,
		emitter:       emitter,
		listings:      make(map[uint64]*Listing),
		nextListingID: 1,
		settling:      make(map[uint64]struct{}),
		now:           time.Now,
		log:           slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Public returns the non-owner view of this storefront.
func (s *Storefront) Public() Public { return publicStorefront{s: s} }

func (s *Storefront) ID() string    { return s.id }
func (s *Storefront) Owner() string { return s.owner }

// SellerSink returns the fallback sink for unpaid receivers.
func (s *Storefront) SellerSink() CapabilityRef { return s.sellerSink }

// CreateListing resolves the seller sink and every cut receiver, checks once
// that the asset is withdrawable, stores a new listing and emits
// ListingAvailable. Nothing changes when it fails.
func (s *Storefront) CreateListing(ctx context.Context, in ListingInput) (uint64, error) {
	if s.destroyed {
		return 0, ErrDestroyed
	}
	assetType := strings.TrimSpace(in.AssetType)
	denomination := strings.TrimSpace(in.Denomination)
	source := in.AssetSource.Normalize()
	if assetType == "" {
		return 0, fmt.Errorf("%w: asset type is required", ErrInvalidInput)
	}
	if denomination == "" {
		return 0, fmt.Errorf("%w: payment denomination is required", ErrInvalidInput)
	}
	if !source.Valid() {
		return 0, fmt.Errorf("%w: asset source is required", ErrInvalidInput)
	}
	price, err := validateCuts(in.SaleCuts)
	if err != nil {
		return 0, err
	}
	now := s.now()
	if !in.Expiry.IsZero() && !in.Expiry.After(now) {
		return 0, fmt.Errorf("%w: expiry %s is not in the future", ErrInvalidInput, in.Expiry.UTC().Format(time.RFC3339))
	}

	if err := s.checkSinks(ctx, denomination, in.SaleCuts); err != nil {
		return 0, err
	}

	ok, err := s.probeAsset(ctx, source, assetType, in.AssetID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: %s#%d is not withdrawable from %s", ErrAssetUnavailable, assetType, in.AssetID, source)
	}

	listing := &Listing{
		id:           s.nextListingID,
		assetSource:  source,
		assetType:    assetType,
		assetID:      in.AssetID,
		denomination: denomination,
		price:        price,
		saleCuts:     copyCuts(in.SaleCuts),
		customID:     strings.TrimSpace(in.CustomID),
		expiry:       in.Expiry.UTC(),
		createdAt:    now.UTC(),
	}
	s.nextListingID++
	s.listings[listing.id] = listing

	event := ListingAvailable{
		StorefrontID: s.id,
		ListingID:    listing.id,
		AssetType:    listing.assetType,
		AssetID:      listing.assetID,
		Price:        listing.price,
		Denomination: listing.denomination,
		CustomID:     listing.customID,
	}
	if !listing.expiry.IsZero() {
		expiry := listing.expiry
		event.Expiry = &expiry
	}
	s.emitter.Emit(event)
	return listing.id, nil
}

// RemoveListing cancels a listing. Owner only; no asset moves.
func (s *Storefront) RemoveListing(_ context.Context, listingID uint64) error {
	if s.destroyed {
		return ErrDestroyed
	}
	listing, err := s.mutableListing(listingID)
	if err != nil {
		return err
	}
	s.drop(listing, false)
	return nil
}

// ListingIDs returns the ids of all live listings in ascending order.
func (s *Storefront) ListingIDs() []uint64 {
	ids := make([]uint64, 0, len(s.listings))
	for id := range s.listings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// BorrowListing returns a copy of the listing's public state.
func (s *Storefront) BorrowListing(listingID uint64) (Details, error) {
	listing, ok := s.listings[listingID]
	if !ok {
		return Details{}, fmt.Errorf("%w: %d", ErrNotFound, listingID)
	}
	return listing.details(s.id, s.owner), nil
}

// DuplicateListingIDs returns the other live listings advertising the same asset.
func (s *Storefront) DuplicateListingIDs(assetType string, assetID, listingID uint64) []uint64 {
	assetType = strings.TrimSpace(assetType)
	out := make([]uint64, 0)
	for _, id := range s.ListingIDs() {
		if id == listingID {
			continue
		}
		if s.listings[id].sameAsset(assetType, assetID) {
			out = append(out, id)
		}
	}
	return out
}

// Destroy drains every listing without touching the underlying assets and
// retires the storefront.
func (s *Storefront) Destroy(_ context.Context) error {
	if s.destroyed {
		return ErrDestroyed
	}
	if len(s.settling) > 0 {
		return ErrSettlementInProgress
	}
	for _, id := range s.ListingIDs() {
		s.drop(s.listings[id], false)
	}
	s.destroyed = true
	s.emitter.Emit(StorefrontDestroyed{StorefrontID: s.id})
	return nil
}

// Destroyed reports whether Destroy has run.
func (s *Storefront) Destroyed() bool { return s.destroyed }

func (s *Storefront) mutableListing(listingID uint64) (*Listing, error) {
	if _, busy := s.settling[listingID]; busy {
		return nil, fmt.Errorf("%w: listing %d", ErrSettlementInProgress, listingID)
	}
	listing, ok := s.listings[listingID]
	if !ok || listing.purchased {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, listingID)
	}
	return listing, nil
}

// drop removes a listing and emits its completion.
func (s *Storefront) drop(listing *Listing, purchased bool) {
	delete(s.listings, listing.id)
	s.emitter.Emit(ListingCompleted{
		StorefrontID: s.id,
		ListingID:    listing.id,
		Purchased:    purchased,
		AssetType:    listing.assetType,
		AssetID:      listing.assetID,
	})
}

// probeAsset reports whether an asset is still withdrawable. A handle that no
// longer resolves counts as "not withdrawable"; other failures are returned.
func (s *Storefront) probeAsset(ctx context.Context, ref CapabilityRef, assetType string, assetID uint64) (bool, error) {
	source, err := s.resolver.AssetSource(ctx, ref)
	if err != nil {
		if errors.Is(err, ErrAssetUnavailable) {
			return false, nil
		}
		return false, fmt.Errorf("resolve asset source %s: %w", ref, err)
	}
	ok, err := source.Probe(ctx, assetType, assetID)
	if err != nil {
		if errors.Is(err, ErrAssetUnavailable) {
			return false, nil
		}
		return false, fmt.Errorf("probe %s#%d: %w", assetType, assetID, err)
	}
	return ok, nil
}

// checkSinks resolves the seller sink and each cut receiver once. Nothing
// resolved here is kept.
func (s *Storefront) checkSinks(ctx context.Context, denomination string, cuts []SaleCut) error {
	check := func(role string, ref CapabilityRef) error {
		sink, err := s.resolver.PaymentSink(ctx, ref)
		if err != nil {
			return fmt.Errorf("%w: %s %s: %w", ErrInvalidInput, role, ref, err)
		}
		if !acceptsDenomination(sink, denomination) {
			return fmt.Errorf("%w: %s %s does not accept %s", ErrInvalidInput, role, ref, denomination)
		}
		return nil
	}
	if err := check("seller sink", s.sellerSink); err != nil {
		return err
	}
	for i, cut := range cuts {
		if err := check(fmt.Sprintf("sale cut %d receiver", i), cut.Receiver.Normalize()); err != nil {
			return err
		}
	}
	return nil
}

type publicStorefront struct {
	s *Storefront
}

func (p publicStorefront) ID() string           { return p.s.ID() }
func (p publicStorefront) Owner() string        { return p.s.Owner() }
func (p publicStorefront) ListingIDs() []uint64 { return p.s.ListingIDs() }

func (p publicStorefront) BorrowListing(listingID uint64) (Details, error) {
	return p.s.BorrowListing(listingID)
}

func (p publicStorefront) DuplicateListingIDs(assetType string, assetID, listingID uint64) []uint64 {
	return p.s.DuplicateListingIDs(assetType, assetID, listingID)
}

func (p publicStorefront) Purchase(ctx context.Context, listingID uint64, payment *Payment) (*Asset, error) {
	return p.s.Purchase(ctx, listingID, payment)
}

func (p publicStorefront) Cleanup(ctx context.Context, listingID uint64) error {
	return p.s.Cleanup(ctx, listingID)
}

func (p publicStorefront) CleanupExpired(ctx context.Context, fromIndex, toIndex int) ([]uint64, error) {
	return p.s.CleanupExpired(ctx, fromIndex, toIndex)
}

var _ Public = (*Storefront)(nil)
