package storefront

import (
	"context"
	"errors"
	"fmt"
)

// Purchase swaps the listed asset for payment. The payment must match the
// listing price and denomination exactly. A cut whose receiver cannot take the
// funds is diverted to the seller sink and reported with UnpaidReceiver.
//
// If the seller sink refuses a diverted cut the sale fails with a
// *SettlementError carrying the withdrawn asset, the listing stays, and the
// undelivered funds are folded back into payment.
func (s *Storefront) Purchase(ctx context.Context, listingID uint64, payment *Payment) (*Asset, error) {
	if s.destroyed {
		return nil, ErrDestroyed
	}
	listing, err := s.mutableListing(listingID)
	if err != nil {
		return nil, err
	}
	if listing.expired(s.now()) {
		return nil, fmt.Errorf("%w: listing %d", ErrListingExpired, listingID)
	}
	if !payment.Live() {
		return nil, fmt.Errorf("%w: no payment supplied", ErrPaymentMismatch)
	}
	if payment.Denomination() != listing.denomination {
		return nil, fmt.Errorf("%w: want denomination %s, got %s", ErrPaymentMismatch, listing.denomination, payment.Denomination())
	}
	if !payment.Balance().Equal(listing.price) {
		return nil, fmt.Errorf("%w: want %s, got %s", ErrPaymentMismatch, listing.price, payment.Balance())
	}

	// The fallback sink is resolved before anything moves so a broken seller
	// sink aborts the purchase instead of stranding funds.
	sellerSink, err := s.resolver.PaymentSink(ctx, s.sellerSink)
	if err != nil {
		return nil, fmt.Errorf("%w: seller sink %s: %v", ErrPaymentUndeliverable, s.sellerSink, err)
	}
	if !acceptsDenomination(sellerSink, listing.denomination) {
		return nil, fmt.Errorf("%w: seller sink %s does not accept %s", ErrPaymentUndeliverable, s.sellerSink, listing.denomination)
	}
	source, err := s.resolver.AssetSource(ctx, listing.assetSource)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %v", ErrAssetUnavailable, listing.assetSource, err)
	}

	s.settling[listingID] = struct{}{}
	defer delete(s.settling, listingID)

	asset, err := source.Withdraw(ctx, listing.assetType, listing.assetID)
	if err != nil {
		if errors.Is(err, ErrAssetUnavailable) {
			return nil, fmt.Errorf("withdraw listing %d: %w", listingID, err)
		}
		return nil, fmt.Errorf("%w: withdraw listing %d: %v", ErrAssetUnavailable, listingID, err)
	}
	if !asset.Live() {
		return nil, fmt.Errorf("%w: source returned no asset for listing %d", ErrAssetUnavailable, listingID)
	}

	if err := s.settle(ctx, listing, payment, sellerSink); err != nil {
		s.log.ErrorContext(ctx, "Settlement failed after withdrawal",
			"storefront_id", s.id,
			"listing_id", listing.id,
			"asset", asset.String(),
			"unrouted", payment.String(),
			"error", err,
		)
		return nil, &SettlementError{ListingID: listing.id, Source: listing.assetSource, Asset: asset, Err: err}
	}

	listing.purchased = true
	s.drop(listing, true)
	for _, id := range s.DuplicateListingIDs(listing.assetType, listing.assetID, listing.id) {
		if _, busy := s.settling[id]; busy {
			continue
		}
		s.drop(s.listings[id], false)
	}
	return asset, nil
}

// settle routes every cut in order. The payment is fully drained on success;
// on failure it holds every amount that did not reach a sink.
func (s *Storefront) settle(ctx context.Context, listing *Listing, payment *Payment, sellerSink PaymentSink) error {
	for i, cut := range listing.saleCuts {
		part, err := payment.Split(cut.Amount)
		if err != nil {
			return fmt.Errorf("%w: split cut %d: %v", ErrPaymentUndeliverable, i, err)
		}
		depositErr := s.deposit(ctx, cut.Receiver, part)
		if depositErr == nil || !part.Live() {
			continue
		}
		if err := sellerSink.Deposit(ctx, part); err != nil || part.Live() {
			payment.absorb(part)
			if err == nil {
				err = errors.New("seller sink did not take the payment")
			}
			return fmt.Errorf("%w: cut %d to seller sink: %v", ErrPaymentUndeliverable, i, err)
		}
		s.log.WarnContext(ctx, "Sale cut diverted to seller",
			"storefront_id", s.id,
			"listing_id", listing.id,
			"cut_index", i,
			"receiver", cut.Receiver.String(),
			"amount", cut.Amount.String(),
			"error", depositErr,
		)
		s.emitter.Emit(UnpaidReceiver{
			StorefrontID: s.id,
			ListingID:    listing.id,
			CutIndex:     i,
			Receiver:     cut.Receiver.String(),
			Amount:       cut.Amount,
			Denomination: listing.denomination,
		})
	}
	return payment.close()
}

func (s *Storefront) deposit(ctx context.Context, ref CapabilityRef, part *Payment) error {
	sink, err := s.resolver.PaymentSink(ctx, ref)
	if err != nil {
		return fmt.Errorf("resolve receiver %s: %w", ref, err)
	}
	if err := sink.Deposit(ctx, part); err != nil {
		return fmt.Errorf("deposit to %s: %w", ref, err)
	}
	if part.Live() {
		return fmt.Errorf("receiver %s did not take the payment", ref)
	}
	return nil
}
