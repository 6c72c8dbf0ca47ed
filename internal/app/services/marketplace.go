package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fr0stylo/storefront/internal/app/ports"
	"github.com/fr0stylo/storefront/internal/observability"
	"github.com/fr0stylo/storefront/internal/storefront"
)

const (
	ownerTokenBytes   = 24
	defaultEventLimit = 100
	maxEventLimit     = 1000
)

// MarketService hosts storefronts: every call restores one storefront from
// the store, runs a single engine operation and persists the resulting state
// together with its events in one transaction.
type MarketService struct {
	store   ports.MarketStore
	custody ports.Custody
	log     *slog.Logger
	now     func() time.Time
	metrics *observability.SettlementMetrics
	locks   *keyedMutex
}

// MarketOption configures a MarketService.
type MarketOption func(*MarketService)

// WithClock overrides the service and engine time source.
func WithClock(now func() time.Time) MarketOption {
	return func(s *MarketService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) MarketOption {
	return func(s *MarketService) {
		if log != nil {
			s.log = log
		}
	}
}

// NewMarketService constructs the marketplace service.
func NewMarketService(store ports.MarketStore, custody ports.Custody, opts ...MarketOption) *MarketService {
	s := &MarketService{
		store:   store,
		custody: custody,
		log:     slog.Default(),
		now:     time.Now,
		metrics: observability.Settlement(),
		locks:   newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenStorefrontCommand is transport-agnostic storefront creation input.
type OpenStorefrontCommand struct {
	Owner      string
	SellerSink storefront.CapabilityRef
}

// OpenedStorefront is returned once; the owner token is not recoverable later.
type OpenedStorefront struct {
	ID         string `json:"id"`
	Owner      string `json:"owner"`
	OwnerToken string `json:"ownerToken"`
}

// PurchaseCommand names where the buyer pays from and where the asset goes.
type PurchaseCommand struct {
	BuyerVault      storefront.CapabilityRef
	BuyerCollection storefront.CapabilityRef
}

// PurchaseResult describes a completed sale.
type PurchaseResult struct {
	StorefrontID string          `json:"storefrontId"`
	ListingID    uint64          `json:"listingId"`
	AssetType    string          `json:"assetType"`
	AssetID      uint64          `json:"assetId"`
	Price        decimal.Decimal `json:"price"`
	Denomination string          `json:"denomination"`
	DeliveredTo  string          `json:"deliveredTo"`
	// PendingDeliveryID is set when the asset was parked instead of delivered.
	PendingDeliveryID int64 `json:"pendingDeliveryId,omitempty"`
}

// OpenStorefront creates an empty storefront and returns its owner token.
func (s *MarketService) OpenStorefront(ctx context.Context, cmd OpenStorefrontCommand) (OpenedStorefront, error) {
	if _, err := s.custody.PaymentSink(ctx, cmd.SellerSink.Normalize()); err != nil {
		if errors.Is(err, ports.ErrCustodyUnavailable) {
			return OpenedStorefront{}, err
		}
		return OpenedStorefront{}, fmt.Errorf("%w: seller sink %s: %v", storefront.ErrInvalidInput, cmd.SellerSink, err)
	}

	token, err := randomHexToken(ownerTokenBytes)
	if err != nil {
		return OpenedStorefront{}, err
	}
	id := uuid.NewString()
	ctx = observability.WithStorefront(ctx, id)

	recorder := &storefront.Recorder{}
	sf, err := storefront.New(id, cmd.Owner, cmd.SellerSink, s.custody, recorder, s.engineOptions()...)
	if err != nil {
		return OpenedStorefront{}, err
	}

	err = s.store.WithinTx(ctx, func(tx ports.MarketTx) error {
		if err := tx.CreateStorefront(ctx, ports.StorefrontRecord{
			State:          sf.Snapshot(),
			OwnerTokenHash: hashToken(token),
			CreatedAt:      s.now().UTC(),
		}); err != nil {
			return err
		}
		records, err := s.eventRecords(recorder.Events())
		if err != nil {
			return err
		}
		return tx.AppendEvents(ctx, records)
	})
	if err != nil {
		return OpenedStorefront{}, err
	}

	s.log.InfoContext(ctx, "Storefront opened", "owner", sf.Owner(), "seller_sink", sf.SellerSink().String())
	return OpenedStorefront{ID: id, Owner: sf.Owner(), OwnerToken: token}, nil
}

// CreateListing adds a listing to an owned storefront.
func (s *MarketService) CreateListing(ctx context.Context, storefrontID, ownerToken string, in storefront.ListingInput) (uint64, error) {
	var listingID uint64
	err := s.mutate(ctx, storefrontID, ownerToken, "create_listing", 0, func(ctx context.Context, sf *storefront.Storefront) error {
		id, err := sf.CreateListing(ctx, in)
		listingID = id
		return err
	})
	return listingID, err
}

// RemoveListing cancels a listing of an owned storefront.
func (s *MarketService) RemoveListing(ctx context.Context, storefrontID, ownerToken string, listingID uint64) error {
	return s.mutate(ctx, storefrontID, ownerToken, "remove_listing", listingID, func(ctx context.Context, sf *storefront.Storefront) error {
		return sf.RemoveListing(ctx, listingID)
	})
}

// DestroyStorefront drains an owned storefront and deletes it. Its events stay
// in the log.
func (s *MarketService) DestroyStorefront(ctx context.Context, storefrontID, ownerToken string) error {
	var drained int
	err := s.mutate(ctx, storefrontID, ownerToken, "destroy", 0, func(ctx context.Context, sf *storefront.Storefront) error {
		drained = len(sf.ListingIDs())
		return sf.Destroy(ctx)
	})
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "Storefront destroyed", "listings_drained", drained)
	return nil
}

// Purchase takes the listing price from the buyer's vault, settles the sale
// and delivers the asset to the buyer's collection. Payment taken before a
// failed purchase is returned to the buyer's vault, and an asset withdrawn
// before a failed settlement goes back to the listing's collection.
//
// A sale is committed once the engine completes it; if the asset then cannot
// be delivered it is parked for RetryDelivery and the result is returned
// together with ErrAssetUndelivered.
func (s *MarketService) Purchase(ctx context.Context, storefrontID string, listingID uint64, cmd PurchaseCommand) (PurchaseResult, error) {
	cmd.BuyerVault = cmd.BuyerVault.Normalize()
	cmd.BuyerCollection = cmd.BuyerCollection.Normalize()
	if !cmd.BuyerVault.Valid() || !cmd.BuyerCollection.Valid() {
		return PurchaseResult{}, fmt.Errorf("%w: buyer vault and collection are required", storefront.ErrInvalidInput)
	}

	var (
		result      PurchaseResult
		deliveryErr error
		parcel      *ports.PendingDelivery
	)
	err := s.mutate(ctx, storefrontID, "", "purchase", listingID, func(ctx context.Context, sf *storefront.Storefront) error {
		details, err := sf.BorrowListing(listingID)
		if err != nil {
			return err
		}
		if _, err := s.custody.AssetSource(ctx, cmd.BuyerCollection); err != nil {
			if errors.Is(err, ports.ErrCustodyUnavailable) {
				return err
			}
			return fmt.Errorf("%w: buyer collection %s: %v", storefront.ErrInvalidInput, cmd.BuyerCollection, err)
		}

		payment, err := s.custody.WithdrawPayment(ctx, cmd.BuyerVault, details.Denomination, details.Price)
		if err != nil {
			if errors.Is(err, ports.ErrCustodyUnavailable) {
				return err
			}
			return fmt.Errorf("%w: %v", ErrBuyerPayment, err)
		}

		asset, err := sf.Purchase(ctx, listingID, payment)
		if err != nil {
			var settleErr *storefront.SettlementError
			if errors.As(err, &settleErr) {
				parcel = s.restock(ctx, sf.ID(), settleErr)
			}
			s.refund(ctx, cmd.BuyerVault, payment)
			return err
		}

		result = PurchaseResult{
			StorefrontID: sf.ID(),
			ListingID:    listingID,
			AssetType:    asset.Type(),
			AssetID:      asset.ID(),
			Price:        details.Price,
			Denomination: details.Denomination,
			DeliveredTo:  cmd.BuyerCollection.String(),
		}
		if err := s.custody.DepositAsset(ctx, cmd.BuyerCollection, asset); err != nil {
			deliveryErr = fmt.Errorf("%w: %s to %s: %v", ErrAssetUndelivered, asset, cmd.BuyerCollection, err)
			s.log.ErrorContext(ctx, "Purchased asset not delivered",
				"listing_id", listingID,
				"asset", asset.String(),
				"buyer_collection", cmd.BuyerCollection.String(),
				"error", err,
			)
			parcel = s.parcelFor(sf.ID(), listingID, asset, cmd.BuyerCollection, ports.DeliveryToBuyer, err)
		}
		return nil
	})
	if parcel != nil {
		// Parked on its own: the purchase transaction may have rolled back.
		if id := s.park(ctx, parcel); err == nil {
			result.PendingDeliveryID = id
		}
	}
	if err != nil {
		return PurchaseResult{}, err
	}

	s.metrics.Purchase(ctx, result.Denomination)
	s.log.InfoContext(ctx, "Listing purchased",
		"listing_id", listingID,
		"price", result.Price.String(),
		"denomination", result.Denomination,
	)
	return result, deliveryErr
}

// Cleanup removes a listing whose asset is gone. Anyone may call it.
func (s *MarketService) Cleanup(ctx context.Context, storefrontID string, listingID uint64) error {
	return s.mutate(ctx, storefrontID, "", "cleanup", listingID, func(ctx context.Context, sf *storefront.Storefront) error {
		return sf.Cleanup(ctx, listingID)
	})
}

// CleanupExpired removes expired listings whose positions in the ascending id
// list fall within [fromIndex, toIndex]. Anyone may call it.
func (s *MarketService) CleanupExpired(ctx context.Context, storefrontID string, fromIndex, toIndex int) ([]uint64, error) {
	var removed []uint64
	err := s.mutate(ctx, storefrontID, "", "cleanup_expired", 0, func(ctx context.Context, sf *storefront.Storefront) error {
		ids, err := sf.CleanupExpired(ctx, fromIndex, toIndex)
		removed = ids
		return err
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// ListStorefronts returns the storefront directory.
func (s *MarketService) ListStorefronts(ctx context.Context) ([]ports.StorefrontSummary, error) {
	return s.store.ListStorefronts(ctx)
}

// ListingIDs returns the live listing ids of a storefront in ascending order.
func (s *MarketService) ListingIDs(ctx context.Context, storefrontID string) ([]uint64, error) {
	sf, err := s.view(ctx, storefrontID)
	if err != nil {
		return nil, err
	}
	return sf.ListingIDs(), nil
}

// BorrowListing returns a read-only copy of one listing.
func (s *MarketService) BorrowListing(ctx context.Context, storefrontID string, listingID uint64) (storefront.Details, error) {
	sf, err := s.view(ctx, storefrontID)
	if err != nil {
		return storefront.Details{}, err
	}
	return sf.BorrowListing(listingID)
}

// DuplicateListingIDs returns the other listings advertising the same asset
// as listingID.
func (s *MarketService) DuplicateListingIDs(ctx context.Context, storefrontID string, listingID uint64) ([]uint64, error) {
	sf, err := s.view(ctx, storefrontID)
	if err != nil {
		return nil, err
	}
	details, err := sf.BorrowListing(listingID)
	if err != nil {
		return nil, err
	}
	return sf.DuplicateListingIDs(details.AssetType, details.AssetID, listingID), nil
}

// Events returns logged events with a sequence number above afterSeq.
func (s *MarketService) Events(ctx context.Context, afterSeq, limit int64) ([]ports.EventRecord, error) {
	if afterSeq < 0 {
		return nil, fmt.Errorf("%w: negative cursor", storefront.ErrInvalidInput)
	}
	switch {
	case limit <= 0:
		limit = defaultEventLimit
	case limit > maxEventLimit:
		limit = maxEventLimit
	}
	return s.store.ListEvents(ctx, afterSeq, limit)
}

// view restores a storefront for reads. Only its public surface is returned.
func (s *MarketService) view(ctx context.Context, storefrontID string) (storefront.Public, error) {
	record, err := s.store.LoadStorefront(ctx, strings.TrimSpace(storefrontID))
	if err != nil {
		return nil, err
	}
	sf, err := storefront.Restore(record.State, s.custody, nil, s.engineOptions()...)
	if err != nil {
		return nil, fmt.Errorf("restore storefront %s: %w", storefrontID, err)
	}
	return sf.Public(), nil
}

// mutate runs one engine operation inside a store transaction. Owner-only
// operations compare ownerToken with the stored hash first.
func (s *MarketService) mutate(ctx context.Context, storefrontID, ownerToken, operation string, listingID uint64, fn func(context.Context, *storefront.Storefront) error) (err error) {
	storefrontID = strings.TrimSpace(storefrontID)
	if storefrontID == "" {
		return fmt.Errorf("%w: storefront id is required", storefront.ErrInvalidInput)
	}
	ownerOnly := isOwnerOperation(operation)

	unlock := s.locks.lock(storefrontID)
	defer unlock()

	ctx = observability.WithStorefront(ctx, storefrontID)
	ctx, span := observability.StartEngineSpan(ctx, operation, listingID)
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	var committed []storefront.Event
	err = s.store.WithinTx(ctx, func(tx ports.MarketTx) error {
		record, err := tx.LoadStorefront(ctx, storefrontID)
		if err != nil {
			return err
		}
		if ownerOnly && !tokenMatches(ownerToken, record.OwnerTokenHash) {
			return fmt.Errorf("%w: storefront %s", storefront.ErrUnauthorized, storefrontID)
		}

		recorder := &storefront.Recorder{}
		sf, err := storefront.Restore(record.State, s.custody, recorder, s.engineOptions()...)
		if err != nil {
			return fmt.Errorf("restore storefront %s: %w", storefrontID, err)
		}
		if err := fn(ctx, sf); err != nil {
			return err
		}

		if sf.Destroyed() {
			err = tx.DeleteStorefront(ctx, storefrontID)
		} else {
			err = tx.SaveStorefront(ctx, sf.Snapshot())
		}
		if err != nil {
			return err
		}

		events := recorder.Events()
		records, err := s.eventRecords(events)
		if err != nil {
			return err
		}
		if err := tx.AppendEvents(ctx, records); err != nil {
			return err
		}
		committed = events
		return nil
	})
	if err != nil {
		return err
	}
	s.countEvents(ctx, operation, committed)
	return nil
}

func isOwnerOperation(operation string) bool {
	switch operation {
	case "create_listing", "remove_listing", "destroy":
		return true
	default:
		return false
	}
}

func (s *MarketService) engineOptions() []storefront.Option {
	return []storefront.Option{storefront.WithClock(s.now), storefront.WithLogger(s.log)}
}

func (s *MarketService) eventRecords(events []storefront.Event) ([]ports.EventRecord, error) {
	now := s.now().UTC()
	records := make([]ports.EventRecord, 0, len(events))
	for _, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("encode %s event: %w", e.Kind(), err)
		}
		record := ports.EventRecord{
			EventID:      uuid.NewString(),
			EventType:    string(e.Kind()),
			StorefrontID: e.Storefront(),
			PayloadJSON:  string(payload),
			OccurredAt:   now,
		}
		if id, ok := e.Listing(); ok {
			record.ListingID = &id
		}
		records = append(records, record)
	}
	return records, nil
}

var removalReasons = map[string]string{
	"remove_listing":  "remove",
	"cleanup":         "cleanup",
	"cleanup_expired": "expired",
	"purchase":        "duplicate",
	"destroy":         "destroy",
}

func (s *MarketService) countEvents(ctx context.Context, operation string, events []storefront.Event) {
	for _, e := range events {
		switch ev := e.(type) {
		case storefront.UnpaidReceiver:
			s.metrics.UnpaidReceiver(ctx)
		case storefront.ListingCompleted:
			if !ev.Purchased {
				s.metrics.ListingRemoved(ctx, removalReasons[operation])
			}
		}
	}
}

// refund returns whatever is left of a buyer's payment. A failed refund is
// logged; the funds stay in the handle and are lost with it.
func (s *MarketService) refund(ctx context.Context, vault storefront.CapabilityRef, payment *storefront.Payment) {
	if !payment.Live() || payment.Balance().IsZero() {
		return
	}
	amount := payment.Balance()
	sink, err := s.custody.PaymentSink(ctx, vault)
	if err == nil {
		err = sink.Deposit(ctx, payment)
	}
	if err != nil {
		s.log.ErrorContext(ctx, "Buyer refund failed",
			"buyer_vault", vault.String(),
			"amount", amount.String(),
			"denomination", payment.Denomination(),
			"error", err,
		)
	}
}
