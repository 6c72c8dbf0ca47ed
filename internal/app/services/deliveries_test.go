package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fr0stylo/storefront/internal/app/ports"
	"github.com/fr0stylo/storefront/internal/custody/memcustody"
	"github.com/fr0stylo/storefront/internal/storefront"
)

// refusingCustody fails asset deposits into selected collections.
type refusingCustody struct {
	*memcustody.Custody
	mu     sync.Mutex
	refuse map[storefront.CapabilityRef]bool
}

func (c *refusingCustody) setRefusing(ref storefront.CapabilityRef, refuse bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refuse[ref] = refuse
}

func (c *refusingCustody) DepositAsset(ctx context.Context, ref storefront.CapabilityRef, asset *storefront.Asset) error {
	c.mu.Lock()
	refuse := c.refuse[ref]
	c.mu.Unlock()
	if refuse {
		return errors.New("collection is read-only")
	}
	return c.Custody.DepositAsset(ctx, ref, asset)
}

// listWithRefusingSeller lists kitty 1 with cuts [bob 60, carol 40], revokes
// carol and makes the seller vault refuse deposits, so the diverted cut has
// nowhere to go.
func listWithRefusingSeller(t *testing.T, f *marketFixture) (uint64, storefront.CapabilityRef) {
	t.Helper()
	bob := f.custody.OpenVault("bob", "royalties", flow, decimal.Zero)
	carol := f.custody.OpenVault("carol", "royalties", flow, decimal.Zero)
	id := f.list(t, 1, time.Time{}, saleCut(bob, 60), saleCut(carol, 40))
	if err := f.custody.Revoke(carol); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := f.custody.RejectDeposits(f.sellerVault, true); err != nil {
		t.Fatalf("reject deposits: %v", err)
	}
	return id, bob
}

func TestMarketService_FailedSettlementReturnsAssetAndRefundsRest(t *testing.T) {
	t.Parallel()
	f := newMarketFixture(t)
	ctx := context.Background()

	id, bob := listWithRefusingSeller(t, f)
	dave := f.buyer(t, "dave", 100)

	_, err := f.svc.Purchase(ctx, f.opened.ID, id, dave)
	if !errors.Is(err, storefront.ErrPaymentUndeliverable) || ClassifyError(err) != ErrorConflict {
		t.Fatalf("expected undeliverable conflict, got %v", err)
	}
	if !f.custody.Holds(f.kitties, "Kitty", 1) {
		t.Fatal("expected kitty 1 back in the seller collection")
	}
	if f.custody.Holds(dave.BuyerCollection, "Kitty", 1) {
		t.Fatal("buyer must not receive kitty 1")
	}
	if got := f.balance(t, bob); got != "60" {
		t.Fatalf("expected bob paid 60, got %s", got)
	}
	if got := f.balance(t, dave.BuyerVault); got != "40" {
		t.Fatalf("expected the undelivered 40 refunded, got %s", got)
	}

	ids, err := f.svc.ListingIDs(ctx, f.opened.ID)
	if err != nil || len(ids) != 1 || ids[0] != id {
		t.Fatalf("expected listing %d to remain, got %v (%v)", id, ids, err)
	}
	parked, err := f.svc.PendingDeliveries(ctx, 0)
	if err != nil || len(parked) != 0 {
		t.Fatalf("expected nothing parked, got %+v (%v)", parked, err)
	}
	assertEventTypes(t, f.eventTypes(t),
		string(storefront.EventStorefrontInitialized),
		string(storefront.EventListingAvailable),
	)
}

func TestMarketService_AssetThatCannotBeRestockedIsParked(t *testing.T) {
	t.Parallel()
	f := newMarketFixture(t)
	ctx := context.Background()

	id, _ := listWithRefusingSeller(t, f)
	custody := &refusingCustody{Custody: f.custody, refuse: map[storefront.CapabilityRef]bool{}}
	custody.setRefusing(f.kitties, true)
	svc := NewMarketService(f.store, custody,
		WithClock(func() time.Time { return f.now }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	dave := f.buyer(t, "dave", 100)

	if _, err := svc.Purchase(ctx, f.opened.ID, id, dave); ClassifyError(err) != ErrorConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if got := f.balance(t, dave.BuyerVault); got != "40" {
		t.Fatalf("expected the undelivered 40 refunded, got %s", got)
	}

	parked, err := svc.PendingDeliveries(ctx, 10)
	if err != nil {
		t.Fatalf("pending deliveries: %v", err)
	}
	if len(parked) != 1 {
		t.Fatalf("expected one parked asset, got %+v", parked)
	}
	parcel := parked[0]
	if parcel.Reason != ports.DeliveryRestock || parcel.Destination != f.kitties || parcel.AssetID != 1 || parcel.ListingID != id {
		t.Fatalf("unexpected parcel %+v", parcel)
	}

	custody.setRefusing(f.kitties, false)
	delivered, err := svc.RetryDelivery(ctx, parcel.ID)
	if err != nil {
		t.Fatalf("retry delivery: %v", err)
	}
	if delivered.ID != parcel.ID || !f.custody.Holds(f.kitties, "Kitty", 1) {
		t.Fatalf("expected kitty 1 back with the seller, got %+v", delivered)
	}
	if _, err := svc.RetryDelivery(ctx, parcel.ID); ClassifyError(err) != ErrorNotFound {
		t.Fatalf("expected a delivered parcel to be gone, got %v", err)
	}
}

func TestMarketService_UndeliveredPurchaseCanBeRetried(t *testing.T) {
	t.Parallel()
	f := newMarketFixture(t)
	ctx := context.Background()

	id := f.list(t, 1, time.Time{}, saleCut(f.sellerVault, 10))
	bob := f.buyer(t, "bob", 10)
	// A colliding asset id makes the delivery fail after settlement.
	if err := f.custody.Mint(bob.BuyerCollection, "Kitty", 1); err != nil {
		t.Fatalf("mint colliding kitty: %v", err)
	}

	result, err := f.svc.Purchase(ctx, f.opened.ID, id, bob)
	if !errors.Is(err, ErrAssetUndelivered) {
		t.Fatalf("expected ErrAssetUndelivered, got %v", err)
	}
	if result.ListingID != id || result.PendingDeliveryID == 0 {
		t.Fatalf("expected committed sale with a parked delivery, got %+v", result)
	}
	if got := f.balance(t, f.sellerVault); got != "10" {
		t.Fatalf("expected seller paid, got %s", got)
	}

	if _, err := f.svc.RetryDelivery(ctx, result.PendingDeliveryID); !errors.Is(err, ErrAssetUndelivered) {
		t.Fatalf("expected retry to fail while the collision remains, got %v", err)
	}
	parked, err := f.svc.PendingDeliveries(ctx, 10)
	if err != nil || len(parked) != 1 || parked[0].ID != result.PendingDeliveryID {
		t.Fatalf("expected parcel kept after failed retry, got %+v (%v)", parked, err)
	}
	if parked[0].Reason != ports.DeliveryToBuyer || parked[0].Destination != bob.BuyerCollection {
		t.Fatalf("unexpected parcel %+v", parked[0])
	}

	if err := f.custody.Burn(bob.BuyerCollection, "Kitty", 1); err != nil {
		t.Fatalf("burn colliding kitty: %v", err)
	}
	if _, err := f.svc.RetryDelivery(ctx, result.PendingDeliveryID); err != nil {
		t.Fatalf("retry delivery: %v", err)
	}
	if !f.custody.Holds(bob.BuyerCollection, "Kitty", 1) {
		t.Fatal("expected kitty 1 delivered to bob")
	}
	if parked, _ := f.svc.PendingDeliveries(ctx, 10); len(parked) != 0 {
		t.Fatalf("expected no parcels left, got %+v", parked)
	}
}

func TestMarketService_RetryDeliveryValidatesID(t *testing.T) {
	t.Parallel()
	f := newMarketFixture(t)

	if _, err := f.svc.RetryDelivery(context.Background(), 0); ClassifyError(err) != ErrorInvalidInput {
		t.Fatalf("expected invalid_input, got %v", err)
	}
	if _, err := f.svc.RetryDelivery(context.Background(), 42); ClassifyError(err) != ErrorNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestMarketService_CreateListingRejectsUnknownReceiver(t *testing.T) {
	t.Parallel()
	f := newMarketFixture(t)

	ghost := memcustody.Ref("nobody", "royalties")
	_, err := f.svc.CreateListing(context.Background(), f.opened.ID, f.opened.OwnerToken, storefront.ListingInput{
		AssetSource:  f.kitties,
		AssetType:    "Kitty",
		AssetID:      1,
		Denomination: flow,
		SaleCuts:     []storefront.SaleCut{saleCut(f.sellerVault, 5), saleCut(ghost, 5)},
	})
	if ClassifyError(err) != ErrorInvalidInput {
		t.Fatalf("expected invalid_input, got %v", err)
	}
	ids, err := f.svc.ListingIDs(context.Background(), f.opened.ID)
	if err != nil || len(ids) != 0 {
		t.Fatalf("expected no listings, got %v (%v)", ids, err)
	}
}
