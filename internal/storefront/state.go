package storefront

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// State is the persistable form of a storefront.
type State struct {
	ID            string
	Owner         string
	SellerSink    CapabilityRef
	NextListingID uint64
	Listings      []ListingState
}

// ListingState is the persistable form of a listing. The price is not stored;
// it is recomputed from the cuts on restore.
type ListingState struct {
	ID           uint64
	AssetSource  CapabilityRef
	AssetType    string
	AssetID      uint64
	Denomination string
	SaleCuts     []SaleCut
	CustomID     string
	Expiry       time.Time
	CreatedAt    time.Time
}

// Price returns the sum of the listing's cut amounts.
func (l ListingState) Price() decimal.Decimal {
	total := decimal.Zero
	for _, cut := range l.SaleCuts {
		total = total.Add(cut.Amount)
	}
	return total
}

// Snapshot captures the storefront's current state, listings in id order.
func (s *Storefront) Snapshot() State {
	st := State{
		ID:            s.id,
		Owner:         s.owner,
		SellerSink:    s.sellerSink,
		NextListingID: s.nextListingID,
		Listings:      make([]ListingState, 0, len(s.listings)),
	}
	for _, id := range s.ListingIDs() {
		l := s.listings[id]
		st.Listings = append(st.Listings, ListingState{
			ID:           l.id,
			AssetSource:  l.assetSource,
			AssetType:    l.assetType,
			AssetID:      l.assetID,
			Denomination: l.denomination,
			SaleCuts:     copyCuts(l.saleCuts),
			CustomID:     l.customID,
			Expiry:       l.expiry,
			CreatedAt:    l.createdAt,
		})
	}
	return st
}

// Restore rebuilds a storefront from persisted state without emitting events.
func Restore(st State, resolver Resolver, emitter Emitter, opts ...Option) (*Storefront, error) {
	s, err := newStorefront(st.ID, st.Owner, st.SellerSink, resolver, emitter, opts...)
	if err != nil {
		return nil, err
	}
	if st.NextListingID > 0 {
		s.nextListingID = st.NextListingID
	}
	for _, ls := range st.Listings {
		if ls.ID == 0 || ls.ID >= s.nextListingID {
			return nil, fmt.Errorf("%w: listing id %d outside allocated range (next %d)", ErrInvalidInput, ls.ID, s.nextListingID)
		}
		if _, dup := s.listings[ls.ID]; dup {
			return nil, fmt.Errorf("%w: listing id %d restored twice", ErrInvalidInput, ls.ID)
		}
		price, err := validateCuts(ls.SaleCuts)
		if err != nil {
			return nil, fmt.Errorf("restore listing %d: %w", ls.ID, err)
		}
		s.listings[ls.ID] = &Listing{
			id:           ls.ID,
			assetSource:  ls.AssetSource.Normalize(),
			assetType:    ls.AssetType,
			assetID:      ls.AssetID,
			denomination: ls.Denomination,
			price:        price,
			saleCuts:     copyCuts(ls.SaleCuts),
			customID:     ls.CustomID,
			expiry:       ls.Expiry,
			createdAt:    ls.CreatedAt,
		}
	}
	return s, nil
}
