package storefront

import (
	"context"
	"fmt"
)

// Cleanup removes a listing whose asset is gone. Anyone may call it; a
// listing that can still be bought is left alone with ErrStillValid.
func (s *Storefront) Cleanup(ctx context.Context, listingID uint64) error {
	if s.destroyed {
		return ErrDestroyed
	}
	listing, err := s.mutableListing(listingID)
	if err != nil {
		return err
	}
	ok, err := s.probeAsset(ctx, listing.assetSource, listing.assetType, listing.assetID)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: listing %d", ErrStillValid, listingID)
	}
	s.drop(listing, false)
	return nil
}

// CleanupExpired removes expired listings whose position in ListingIDs lies in
// [fromIndex, toIndex]. It returns the removed ids.
func (s *Storefront) CleanupExpired(_ context.Context, fromIndex, toIndex int) ([]uint64, error) {
	if s.destroyed {
		return nil, ErrDestroyed
	}
	ids := s.ListingIDs()
	if fromIndex < 0 || fromIndex > toIndex {
		return nil, fmt.Errorf("%w: invalid range [%d, %d]", ErrInvalidInput, fromIndex, toIndex)
	}
	if toIndex >= len(ids) {
		return nil, fmt.Errorf("%w: index %d out of range for %d listings", ErrInvalidInput, toIndex, len(ids))
	}
	now := s.now()
	removed := make([]uint64, 0)
	for _, id := range ids[fromIndex : toIndex+1] {
		if _, busy := s.settling[id]; busy {
			continue
		}
		listing := s.listings[id]
		if !listing.expired(now) {
			continue
		}
		s.drop(listing, false)
		removed = append(removed, id)
	}
	return removed, nil
}
