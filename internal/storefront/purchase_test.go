package storefront_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fr0stylo/storefront/internal/storefront"
)

func TestPurchase_RoutesEveryCut(t *testing.T) {
	f := newFixture(t)
	bob := f.vault(t, "bob", 0)
	buyer := f.vault(t, "carol", 150)
	id := f.list(t, 1, cut(f.sellerSink, 60), cut(bob, 40))
	f.events.Reset()

	asset, err := f.sf.Public().Purchase(context.Background(), id, f.pay(t, buyer, 100))
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if asset.Type() != "Kitty" || asset.ID() != 1 || !asset.Live() {
		t.Fatalf("unexpected asset %s", asset)
	}
	if f.custody.Holds(f.collection, "Kitty", 1) {
		t.Fatal("expected asset to leave the seller collection")
	}
	if got := f.balance(t, f.sellerSink); !got.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("expected seller 60, got %s", got)
	}
	if got := f.balance(t, bob); !got.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected bob 40, got %s", got)
	}
	if got := f.balance(t, buyer); !got.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected buyer 50 left, got %s", got)
	}
	if ids := f.sf.ListingIDs(); len(ids) != 0 {
		t.Fatalf("expected listing removed, got %v", ids)
	}

	events := f.events.Events()
	assertKinds(t, events, storefront.EventListingCompleted)
	if done := events[0].(storefront.ListingCompleted); !done.Purchased || done.ListingID != id {
		t.Fatalf("unexpected completion %+v", done)
	}
}

func TestPurchase_WrongAmountLeavesEverythingUntouched(t *testing.T) {
	f := newFixture(t)
	bob := f.vault(t, "bob", 0)
	buyer := f.vault(t, "carol", 100)
	id := f.list(t, 1, cut(f.sellerSink, 60), cut(bob, 40))
	f.events.Reset()

	payment := f.pay(t, buyer, 99)
	asset, err := f.sf.Purchase(context.Background(), id, payment)
	if !errors.Is(err, storefront.ErrPaymentMismatch) {
		t.Fatalf("expected ErrPaymentMismatch, got %v", err)
	}
	if asset != nil {
		t.Fatal("expected no asset on failed purchase")
	}
	if !payment.Live() || !payment.Balance().Equal(decimal.NewFromInt(99)) {
		t.Fatalf("expected payment returned intact, got %s", payment)
	}
	if _, err := f.sf.BorrowListing(id); err != nil {
		t.Fatalf("expected listing to remain, got %v", err)
	}
	if !f.custody.Holds(f.collection, "Kitty", 1) {
		t.Fatal("expected asset to stay with the seller")
	}
	if len(f.events.Events()) != 0 {
		t.Fatalf("expected no events, got %v", kinds(f.events.Events()))
	}
}

func TestPurchase_WrongDenominationOrMissingPayment(t *testing.T) {
	f := newFixture(t)
	id := f.list(t, 1, cut(f.sellerSink, 10))

	usd, err := storefront.NewPayment("USD", decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("new payment: %v", err)
	}
	if _, err := f.sf.Purchase(context.Background(), id, usd); !errors.Is(err, storefront.ErrPaymentMismatch) {
		t.Fatalf("expected ErrPaymentMismatch for denomination, got %v", err)
	}
	if _, err := f.sf.Purchase(context.Background(), id, nil); !errors.Is(err, storefront.ErrPaymentMismatch) {
		t.Fatalf("expected ErrPaymentMismatch for nil payment, got %v", err)
	}
}

func TestPurchase_AtMostOnce(t *testing.T) {
	f := newFixture(t)
	buyer := f.vault(t, "carol", 20)
	id := f.list(t, 1, cut(f.sellerSink, 10))

	if _, err := f.sf.Purchase(context.Background(), id, f.pay(t, buyer, 10)); err != nil {
		t.Fatalf("first purchase: %v", err)
	}
	second := f.pay(t, buyer, 10)
	if _, err := f.sf.Purchase(context.Background(), id, second); !errors.Is(err, storefront.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !second.Live() {
		t.Fatal("expected second payment to be untouched")
	}
	if got := f.balance(t, f.sellerSink); !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected seller paid once, got %s", got)
	}
}

func TestPurchase_UnpaidReceiverFallsBackToSeller(t *testing.T) {
	f := newFixture(t)
	bob := f.vault(t, "bob", 0)
	buyer := f.vault(t, "carol", 100)
	id := f.list(t, 1, cut(f.sellerSink, 60), cut(bob, 40))
	if err := f.custody.Revoke(bob); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	f.events.Reset()

	if _, err := f.sf.Purchase(context.Background(), id, f.pay(t, buyer, 100)); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if got := f.balance(t, f.sellerSink); !got.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected seller to receive 100, got %s", got)
	}
	if got := f.balance(t, bob); !got.IsZero() {
		t.Fatalf("expected bob to receive nothing, got %s", got)
	}

	events := f.events.Events()
	assertKinds(t, events, storefront.EventUnpaidReceiver, storefront.EventListingCompleted)
	unpaid := events[0].(storefront.UnpaidReceiver)
	if unpaid.CutIndex != 1 || !unpaid.Amount.Equal(decimal.NewFromInt(40)) || unpaid.ListingID != id {
		t.Fatalf("unexpected unpaid event %+v", unpaid)
	}
}

func TestPurchase_RejectingReceiverFallsBackToSeller(t *testing.T) {
	f := newFixture(t)
	bob := f.vault(t, "bob", 0)
	dave := f.vault(t, "dave", 0)
	buyer := f.vault(t, "carol", 100)
	id := f.list(t, 1, cut(bob, 50), cut(f.sellerSink, 30), cut(dave, 20))
	if err := f.custody.RejectDeposits(bob, true); err != nil {
		t.Fatalf("reject deposits: %v", err)
	}
	f.events.Reset()

	if _, err := f.sf.Purchase(context.Background(), id, f.pay(t, buyer, 100)); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if got := f.balance(t, f.sellerSink); !got.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("expected seller 80, got %s", got)
	}
	if got := f.balance(t, dave); !got.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected dave 20, got %s", got)
	}
	assertKinds(t, f.events.Events(), storefront.EventUnpaidReceiver, storefront.EventListingCompleted)
}

func TestPurchase_BrokenSellerSinkAbortsBeforeWithdrawal(t *testing.T) {
	f := newFixture(t)
	buyer := f.vault(t, "carol", 10)
	id := f.list(t, 1, cut(f.sellerSink, 10))
	if err := f.custody.Revoke(f.sellerSink); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	payment := f.pay(t, buyer, 10)
	if _, err := f.sf.Purchase(context.Background(), id, payment); !errors.Is(err, storefront.ErrPaymentUndeliverable) {
		t.Fatalf("expected ErrPaymentUndeliverable, got %v", err)
	}
	if !payment.Live() {
		t.Fatal("expected payment to stay with the buyer")
	}
	if !f.custody.Holds(f.collection, "Kitty", 1) {
		t.Fatal("expected asset to stay with the seller")
	}
	if _, err := f.sf.BorrowListing(id); err != nil {
		t.Fatalf("expected listing to remain, got %v", err)
	}
}

func TestPurchase_SellerSinkRefusingDivertedCutHandsBackAsset(t *testing.T) {
	f := newFixture(t)
	bob := f.vault(t, "bob", 0)
	carol := f.vault(t, "carol", 0)
	buyer := f.vault(t, "dave", 100)
	id := f.list(t, 1, cut(bob, 60), cut(carol, 40))
	if err := f.custody.Revoke(carol); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := f.custody.RejectDeposits(f.sellerSink, true); err != nil {
		t.Fatalf("reject deposits: %v", err)
	}
	f.events.Reset()

	payment := f.pay(t, buyer, 100)
	asset, err := f.sf.Purchase(context.Background(), id, payment)
	if !errors.Is(err, storefront.ErrPaymentUndeliverable) {
		t.Fatalf("expected ErrPaymentUndeliverable, got %v", err)
	}
	if asset != nil {
		t.Fatal("expected no asset for the buyer")
	}
	var settleErr *storefront.SettlementError
	if !errors.As(err, &settleErr) {
		t.Fatalf("expected *SettlementError, got %T", err)
	}
	if settleErr.ListingID != id || settleErr.Source != f.collection {
		t.Fatalf("unexpected settlement error %+v", settleErr)
	}
	if !settleErr.Asset.Live() || settleErr.Asset.Type() != "Kitty" || settleErr.Asset.ID() != 1 {
		t.Fatalf("expected live Kitty#1 in the error, got %s", settleErr.Asset)
	}
	if !payment.Live() || !payment.Balance().Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected the undelivered 40 to stay in the payment, got %s", payment)
	}
	if got := f.balance(t, bob); !got.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("expected bob 60, got %s", got)
	}
	if _, err := f.sf.BorrowListing(id); err != nil {
		t.Fatalf("expected listing to remain, got %v", err)
	}
	if len(f.events.Events()) != 0 {
		t.Fatalf("expected no events, got %v", kinds(f.events.Events()))
	}
}

func TestPurchase_SellerSinkInOtherDenominationAbortsBeforeWithdrawal(t *testing.T) {
	f := newFixture(t)
	buyer := f.vault(t, "carol", 10)
	id := f.list(t, 1, cut(f.sellerSink, 10))

	st := f.sf.Snapshot()
	st.SellerSink = f.custody.OpenVault("alice", "usd-vault", "USD", decimal.Zero)
	sf, err := storefront.Restore(st, f.resolver, f.events, storefront.WithClock(f.clock))
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	payment := f.pay(t, buyer, 10)
	if _, err := sf.Purchase(context.Background(), id, payment); !errors.Is(err, storefront.ErrPaymentUndeliverable) {
		t.Fatalf("expected ErrPaymentUndeliverable, got %v", err)
	}
	if !payment.Live() || !payment.Balance().Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected payment intact, got %s", payment)
	}
	if !f.custody.Holds(f.collection, "Kitty", 1) {
		t.Fatal("expected asset to stay with the seller")
	}
}

func TestPurchase_AssetGoneFailsWithoutTakingPayment(t *testing.T) {
	f := newFixture(t)
	buyer := f.vault(t, "carol", 10)
	id := f.list(t, 1, cut(f.sellerSink, 10))
	if err := f.custody.Burn(f.collection, "Kitty", 1); err != nil {
		t.Fatalf("burn: %v", err)
	}

	payment := f.pay(t, buyer, 10)
	if _, err := f.sf.Purchase(context.Background(), id, payment); !errors.Is(err, storefront.ErrAssetUnavailable) {
		t.Fatalf("expected ErrAssetUnavailable, got %v", err)
	}
	if !payment.Live() || !payment.Balance().Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected payment intact, got %s", payment)
	}
	if got := f.balance(t, f.sellerSink); !got.IsZero() {
		t.Fatalf("expected seller unpaid, got %s", got)
	}
}

func TestPurchase_RemovesDuplicatesOfSoldAsset(t *testing.T) {
	f := newFixture(t)
	buyer := f.vault(t, "carol", 10)
	sold := f.list(t, 1, cut(f.sellerSink, 10))
	dup := f.list(t, 1, cut(f.sellerSink, 15))
	other := f.list(t, 2, cut(f.sellerSink, 10))
	f.events.Reset()

	if _, err := f.sf.Purchase(context.Background(), sold, f.pay(t, buyer, 10)); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	ids := f.sf.ListingIDs()
	if len(ids) != 1 || ids[0] != other {
		t.Fatalf("expected only listing %d left, got %v", other, ids)
	}

	events := f.events.Events()
	assertKinds(t, events, storefront.EventListingCompleted, storefront.EventListingCompleted)
	if done := events[1].(storefront.ListingCompleted); done.ListingID != dup || done.Purchased {
		t.Fatalf("unexpected duplicate completion %+v", done)
	}
}

func TestPurchase_ExpiredListing(t *testing.T) {
	f := newFixture(t)
	buyer := f.vault(t, "carol", 10)
	id, err := f.sf.CreateListing(context.Background(), storefront.ListingInput{
		AssetSource:  f.collection,
		AssetType:    "Kitty",
		AssetID:      1,
		Denomination: flow,
		SaleCuts:     []storefront.SaleCut{cut(f.sellerSink, 10)},
		Expiry:       f.now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	f.now = f.now.Add(time.Hour)

	payment := f.pay(t, buyer, 10)
	if _, err := f.sf.Purchase(context.Background(), id, payment); !errors.Is(err, storefront.ErrListingExpired) {
		t.Fatalf("expected ErrListingExpired, got %v", err)
	}
	if !payment.Live() {
		t.Fatal("expected payment intact")
	}
}

func TestPurchase_ReentrantCallsAreRejected(t *testing.T) {
	f := newFixture(t)
	bob := f.vault(t, "bob", 0)
	buyer := f.vault(t, "carol", 10)
	id := f.list(t, 1, cut(bob, 10))

	var purchaseErr, cleanupErr, removeErr error
	f.resolver.beforeDeposit = func(ctx context.Context, _ *storefront.Payment) {
		f.resolver.beforeDeposit = nil
		_, purchaseErr = f.sf.Purchase(ctx, id, nil)
		cleanupErr = f.sf.Cleanup(ctx, id)
		removeErr = f.sf.RemoveListing(ctx, id)
	}

	if _, err := f.sf.Purchase(context.Background(), id, f.pay(t, buyer, 10)); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	for name, err := range map[string]error{"purchase": purchaseErr, "cleanup": cleanupErr, "remove": removeErr} {
		if !errors.Is(err, storefront.ErrSettlementInProgress) {
			t.Fatalf("expected reentrant %s to fail with ErrSettlementInProgress, got %v", name, err)
		}
	}
	if got := f.balance(t, bob); !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected bob paid once, got %s", got)
	}
}

func TestPurchase_SinkThatIgnoresPaymentIsUnpaid(t *testing.T) {
	f := newFixture(t)
	bob := f.vault(t, "bob", 0)
	buyer := f.vault(t, "carol", 10)
	id := f.list(t, 1, cut(bob, 4), cut(f.sellerSink, 6))
	f.events.Reset()

	sf, err := storefront.Restore(f.sf.Snapshot(), lazyResolver{hookResolver: f.resolver, lazy: bob}, f.events, storefront.WithClock(f.clock))
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if _, err := sf.Purchase(context.Background(), id, f.pay(t, buyer, 10)); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if got := f.balance(t, f.sellerSink); !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected seller 10, got %s", got)
	}
	assertKinds(t, f.events.Events(), storefront.EventUnpaidReceiver, storefront.EventListingCompleted)
}

// lazyResolver hands out a sink for one handle that reports success without
// taking the funds.
type lazyResolver struct {
	*hookResolver
	lazy storefront.CapabilityRef
}

func (r lazyResolver) PaymentSink(ctx context.Context, ref storefront.CapabilityRef) (storefront.PaymentSink, error) {
	if ref == r.lazy {
		return lazySink{}, nil
	}
	return r.hookResolver.PaymentSink(ctx, ref)
}

type lazySink struct{}

func (lazySink) Deposit(context.Context, *storefront.Payment) error { return nil }
