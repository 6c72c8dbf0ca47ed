package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/fr0stylo/storefront/internal/app/ports"
	"github.com/fr0stylo/storefront/internal/storefront"
)

// PendingDeliveries lists parked assets, oldest first.
func (s *MarketService) PendingDeliveries(ctx context.Context, limit int64) ([]ports.PendingDelivery, error) {
	switch {
	case limit <= 0:
		limit = defaultEventLimit
	case limit > maxEventLimit:
		limit = maxEventLimit
	}
	return s.store.ListPendingDeliveries(ctx, limit)
}

// RetryDelivery deposits a parked asset into its destination collection. The
// parcel is removed only when the deposit succeeds.
func (s *MarketService) RetryDelivery(ctx context.Context, deliveryID int64) (ports.PendingDelivery, error) {
	if deliveryID <= 0 {
		return ports.PendingDelivery{}, fmt.Errorf("%w: delivery id must be positive", storefront.ErrInvalidInput)
	}
	unlock := s.locks.lock("delivery:" + strconv.FormatInt(deliveryID, 10))
	defer unlock()

	var delivered ports.PendingDelivery
	err := s.store.WithinTx(ctx, func(tx ports.MarketTx) error {
		parcel, err := tx.TakeDelivery(ctx, deliveryID)
		if err != nil {
			return err
		}
		// The parcel row holds the asset while it is parked.
		asset := storefront.NewAsset(parcel.AssetType, parcel.AssetID)
		if err := s.custody.DepositAsset(ctx, parcel.Destination, asset); err != nil {
			if errors.Is(err, ports.ErrCustodyUnavailable) {
				return err
			}
			return fmt.Errorf("%w: %s to %s: %v", ErrAssetUndelivered, asset, parcel.Destination, err)
		}
		delivered = parcel
		return nil
	})
	if err != nil {
		return ports.PendingDelivery{}, err
	}

	s.log.InfoContext(ctx, "Parked asset delivered",
		"delivery_id", delivered.ID,
		"storefront_id", delivered.StorefrontID,
		"listing_id", delivered.ListingID,
		"destination", delivered.Destination.String(),
		"reason", delivered.Reason,
	)
	return delivered, nil
}

// restock returns the asset of a failed settlement to the listing's
// collection. A parcel comes back when the collection refuses it.
func (s *MarketService) restock(ctx context.Context, storefrontID string, settleErr *storefront.SettlementError) *ports.PendingDelivery {
	err := s.custody.DepositAsset(ctx, settleErr.Source, settleErr.Asset)
	if err == nil {
		s.log.WarnContext(ctx, "Asset returned after failed settlement",
			"listing_id", settleErr.ListingID,
			"asset", settleErr.Asset.String(),
			"source", settleErr.Source.String(),
		)
		return nil
	}
	s.log.ErrorContext(ctx, "Asset could not be returned after failed settlement",
		"listing_id", settleErr.ListingID,
		"asset", settleErr.Asset.String(),
		"source", settleErr.Source.String(),
		"error", err,
	)
	return s.parcelFor(storefrontID, settleErr.ListingID, settleErr.Asset, settleErr.Source, ports.DeliveryRestock, err)
}

// parcelFor retires asset into a delivery record bound for to.
func (s *MarketService) parcelFor(storefrontID string, listingID uint64, asset *storefront.Asset, to storefront.CapabilityRef, reason string, cause error) *ports.PendingDelivery {
	parcel := &ports.PendingDelivery{
		StorefrontID: storefrontID,
		ListingID:    listingID,
		AssetType:    asset.Type(),
		AssetID:      asset.ID(),
		Destination:  to,
		Reason:       reason,
		CreatedAt:    s.now().UTC(),
	}
	if cause != nil {
		parcel.LastError = cause.Error()
	}
	_, _ = asset.Move()
	return parcel
}

// park stores a parcel in its own transaction and returns its id, or 0 when
// the store refused it.
func (s *MarketService) park(ctx context.Context, parcel *ports.PendingDelivery) int64 {
	err := s.store.WithinTx(ctx, func(tx ports.MarketTx) error {
		id, err := tx.ParkDelivery(ctx, *parcel)
		parcel.ID = id
		return err
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to park undelivered asset",
			"storefront_id", parcel.StorefrontID,
			"listing_id", parcel.ListingID,
			"asset_type", parcel.AssetType,
			"asset_id", parcel.AssetID,
			"destination", parcel.Destination.String(),
			"error", err,
		)
		return 0
	}
	s.metrics.DeliveryParked(ctx, parcel.Reason)
	s.log.WarnContext(ctx, "Asset parked for later delivery",
		"delivery_id", parcel.ID,
		"storefront_id", parcel.StorefrontID,
		"listing_id", parcel.ListingID,
		"destination", parcel.Destination.String(),
		"reason", parcel.Reason,
	)
	return parcel.ID
}
