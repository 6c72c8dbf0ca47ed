package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/fr0stylo/storefront/internal/adapters/sqlite"
	"github.com/fr0stylo/storefront/internal/app/ports"
	portmocks "github.com/fr0stylo/storefront/internal/app/ports/mocks"
	"github.com/fr0stylo/storefront/internal/custody/memcustody"
	"github.com/fr0stylo/storefront/internal/db"
	"github.com/fr0stylo/storefront/internal/storefront"
)

const flow = "FLOW"

type marketFixture struct {
	svc         *MarketService
	store       *sqlite.MarketStore
	custody     *memcustody.Custody
	now         time.Time
	opened      OpenedStorefront
	sellerVault storefront.CapabilityRef
	kitties     storefront.CapabilityRef
}

func newMarketFixture(t *testing.T) *marketFixture {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "market"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	store := sqlite.NewMarketStore(database)
	t.Cleanup(func() { _ = store.Close() })

	f := &marketFixture{
		store:   store,
		custody: memcustody.New(),
		now:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.sellerVault = f.custody.OpenVault("alice", "flow-vault", flow, decimal.Zero)
	f.kitties = f.custody.OpenCollection("alice", "kitties")
	for _, id := range []uint64{1, 2, 3} {
		if err := f.custody.Mint(f.kitties, "Kitty", id); err != nil {
			t.Fatalf("mint kitty %d: %v", id, err)
		}
	}

	f.svc = NewMarketService(store, f.custody,
		WithClock(func() time.Time { return f.now }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	f.opened, err = f.svc.OpenStorefront(context.Background(), OpenStorefrontCommand{Owner: "alice", SellerSink: f.sellerVault})
	if err != nil {
		t.Fatalf("open storefront: %v", err)
	}
	return f
}

func (f *marketFixture) list(t *testing.T, assetID uint64, expiry time.Time, cuts ...storefront.SaleCut) uint64 {
	t.Helper()
	id, err := f.svc.CreateListing(context.Background(), f.opened.ID, f.opened.OwnerToken, storefront.ListingInput{
		AssetSource:  f.kitties,
		AssetType:    "Kitty",
		AssetID:      assetID,
		Denomination: flow,
		SaleCuts:     cuts,
		Expiry:       expiry,
	})
	if err != nil {
		t.Fatalf("create listing for kitty %d: %v", assetID, err)
	}
	return id
}

func (f *marketFixture) buyer(t *testing.T, name string, balance int64) PurchaseCommand {
	t.Helper()
	return PurchaseCommand{
		BuyerVault:      f.custody.OpenVault(name, "flow-vault", flow, decimal.NewFromInt(balance)),
		BuyerCollection: f.custody.OpenCollection(name, "kitties"),
	}
}

func (f *marketFixture) balance(t *testing.T, ref storefront.CapabilityRef) string {
	t.Helper()
	b, err := f.custody.Balance(ref)
	if err != nil {
		t.Fatalf("balance of %s: %v", ref, err)
	}
	return b.String()
}

func (f *marketFixture) eventTypes(t *testing.T) []string {
	t.Helper()
	events, err := f.svc.Events(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.EventType)
	}
	return out
}

func assertEventTypes(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, got)
		}
	}
}

func saleCut(receiver storefront.CapabilityRef, amount int64) storefront.SaleCut {
	return storefront.SaleCut{Receiver: receiver, Amount: decimal.NewFromInt(amount)}
}

func TestMarketService_OpenStorefrontLogsInitialization(t *testing.T) {
	t.Parallel()
	f := newMarketFixture(t)

	if f.opened.ID == "" || len(f.opened.OwnerToken) != 2*ownerTokenBytes {
		t.Fatalf("unexpected opened storefront: %+v", f.opened)
	}
	record, err := f.store.LoadStorefront(context.Background(), f.opened.ID)
	if err != nil {
		t.Fatalf("load storefront: %v", err)
	}
	if record.OwnerTokenHash == f.opened.OwnerToken || !tokenMatches(f.opened.OwnerToken, record.OwnerTokenHash) {
		t.Fatalf("owner token must be stored hashed")
	}
	assertEventTypes(t, f.eventTypes(t), string(storefront.EventStorefrontInitialized))

	summaries, err := f.svc.ListStorefronts(context.Background())
	if err != nil {
		t.Fatalf("list storefronts: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Owner != "alice" || summaries[0].ListingCount != 0 {
		t.Fatalf("unexpected directory: %+v", summaries)
	}
}

func TestMarketService_OpenStorefrontRejectsUnknownSellerSink(t *testing.T) {
	t.Parallel()
	f := newMarketFixture(t)

	_, err := f.svc.OpenStorefront(context.Background(), OpenStorefrontCommand{
		Owner:      "mallory",
		SellerSink: memcustody.Ref("mallory", "nowhere"),
	})
	if ClassifyError(err) != ErrorInvalidInput {
		t.Fatalf("expected invalid_input, got %v", err)
	}
}

func TestMarketService_OwnerOperationsRequireToken(t *testing.T) {
	t.Parallel()
	f := newMarketFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateListing(ctx, f.opened.ID, "not-the-token", storefront.ListingInput{
		AssetSource:  f.kitties,
		AssetType:    "Kitty",
		AssetID:      1,
		Denomination: flow,
		SaleCuts:     []storefront.SaleCut{saleCut(f.sellerVault, 10)},
	})
	if !errors.Is(err, storefront.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	id := f.list(t, 1, time.Time{}, saleCut(f.sellerVault, 10))
	if err := f.svc.RemoveListing(ctx, f.opened.ID, "", id); ClassifyError(err) != ErrorUnauthorized {
		t.Fatalf("expected unauthorized remove, got %v", err)
	}
	if err := f.svc.DestroyStorefront(ctx, f.opened.ID, "nope"); ClassifyError(err) != ErrorUnauthorized {
		t.Fatalf("expected unauthorized destroy, got %v", err)
	}
	if err := f.svc.RemoveListing(ctx, f.opened.ID, f.opened.OwnerToken, id); err != nil {
		t.Fatalf("owner remove: %v", err)
	}

	assertEventTypes(t, f.eventTypes(t),
		string(storefront.EventStorefrontInitialized),
		string(storefront.EventListingAvailable),
		string(storefront.EventListingCompleted),
	)
}

func TestMarketService_PurchaseSettlesAndDelivers(t *testing.T) {
	t.Parallel()
	f := newMarketFixture(t)
	ctx := context.Background()

	royalties := f.custody.OpenVault("carol", "royalties", flow, decimal.Zero)
	id := f.list(t, 1, time.Time{}, saleCut(f.sellerVault, 90), saleCut(royalties, 10))
	dup := f.list(t, 1, time.Time{}, saleCut(f.sellerVault, 120))
	bob := f.buyer(t, "bob", 500)

	dups, err := f.svc.DuplicateListingIDs(ctx, f.opened.ID, id)
	if err != nil || len(dups) != 1 || dups[0] != dup {
		t.Fatalf("expected duplicate %d, got %v (%v)", dup, dups, err)
	}

	result, err := f.svc.Purchase(ctx, f.opened.ID, id, bob)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if result.AssetID != 1 || !result.Price.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := f.balance(t, bob.BuyerVault); got != "400" {
		t.Fatalf("expected buyer balance 400, got %s", got)
	}
	if got := f.balance(t, f.sellerVault); got != "90" {
		t.Fatalf("expected seller balance 90, got %s", got)
	}
	if got := f.balance(t, royalties); got != "10" {
		t.Fatalf("expected royalty balance 10, got %s", got)
	}
	if !f.custody.Holds(bob.BuyerCollection, "Kitty", 1) || f.custody.Holds(f.kitties, "Kitty", 1) {
		t.Fatalf("kitty 1 should have moved to the buyer")
	}

	ids, err := f.svc.ListingIDs(ctx, f.opened.ID)
	if err != nil {
		t.Fatalf("listing ids: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected sold listing and its duplicate gone, got %v", ids)
	}

	assertEventTypes(t, f.eventTypes(t),
		string(storefront.EventStorefrontInitialized),
		string(storefront.EventListingAvailable),
		string(storefront.EventListingAvailable),
		string(storefront.EventListingCompleted),
		string(storefront.EventListingCompleted),
	)

	if _, err := f.svc.Purchase(ctx, f.opened.ID, id, f.buyer(t, "dave", 500)); ClassifyError(err) != ErrorNotFound {
		t.Fatalf("expected second purchase to find nothing, got %v", err)
	}
}

func TestMarketService_PurchaseRefundsWhenAssetIsGone(t *testing.T) {
	t.Parallel()
	f := newMarketFixture(t)
	ctx := context.Background()

	id := f.list(t, 2, time.Time{}, saleCut(f.sellerVault, 50))
	if err := f.custody.Burn(f.kitties, "Kitty", 2); err != nil {
		t.Fatalf("burn: %v", err)
	}
	bob := f.buyer(t, "bob", 80)

	_, err := f.svc.Purchase(ctx, f.opened.ID, id, bob)
	if ClassifyError(err) != ErrorAssetUnavailable {
		t.Fatalf("expected asset_unavailable, got %v", err)
	}
	if got := f.balance(t, bob.BuyerVault); got != "80" {
		t.Fatalf("expected buyer refunded to 80, got %s", got)
	}
	if got := f.balance(t, f.sellerVault); got != "0" {
		t.Fatalf("seller must not be paid, got %s", got)
	}

	if err := f.svc.Cleanup(ctx, f.opened.ID, id); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, err := f.svc.BorrowListing(ctx, f.opened.ID, id); !errors.Is(err, storefront.ErrNotFound) {
		t.Fatalf("expected listing gone after cleanup, got %v", err)
	}
}

func TestMarketService_PurchaseWithShortVault(t *testing.T) {
	t.Parallel()
	f := newMarketFixture(t)

	id := f.list(t, 1, time.Time{}, saleCut(f.sellerVault, 50))
	bob := f.buyer(t, "bob", 20)

	_, err := f.svc.Purchase(context.Background(), f.opened.ID, id, bob)
	if !errors.Is(err, ErrBuyerPayment) || ClassifyError(err) != ErrorPaymentMismatch {
		t.Fatalf("expected ErrBuyerPayment, got %v", err)
	}
	if got := f.balance(t, bob.BuyerVault); got != "20" {
		t.Fatalf("expected untouched buyer vault, got %s", got)
	}
	if _, err := f.svc.BorrowListing(context.Background(), f.opened.ID, id); err != nil {
		t.Fatalf("listing should remain: %v", err)
	}
}

func TestMarketService_PurchaseFallsBackToSellerForRevokedReceiver(t *testing.T) {
	t.Parallel()
	f := newMarketFixture(t)
	ctx := context.Background()

	royalties := f.custody.OpenVault("carol", "royalties", flow, decimal.Zero)
	id := f.list(t, 3, time.Time{}, saleCut(f.sellerVault, 70), saleCut(royalties, 30))
	if err := f.custody.Revoke(royalties); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if _, err := f.svc.Purchase(ctx, f.opened.ID, id, f.buyer(t, "bob", 100)); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if got := f.balance(t, f.sellerVault); got != "100" {
		t.Fatalf("expected seller to receive the unpaid cut, got %s", got)
	}

	types := f.eventTypes(t)
	if types[len(types)-2] != string(storefront.EventUnpaidReceiver) {
		t.Fatalf("expected UnpaidReceiver before completion, got %v", types)
	}
}

func TestMarketService_CleanupExpired(t *testing.T) {
	t.Parallel()
	f := newMarketFixture(t)
	ctx := context.Background()

	soon := f.list(t, 1, f.now.Add(time.Hour), saleCut(f.sellerVault, 5))
	later := f.list(t, 2, f.now.Add(48*time.Hour), saleCut(f.sellerVault, 5))

	if err := f.svc.Cleanup(ctx, f.opened.ID, soon); ClassifyError(err) != ErrorStillValid {
		t.Fatalf("expected still_valid, got %v", err)
	}

	f.now = f.now.Add(2 * time.Hour)
	if _, err := f.svc.Purchase(ctx, f.opened.ID, soon, f.buyer(t, "bob", 10)); ClassifyError(err) != ErrorExpired {
		t.Fatalf("expected expired, got %v", err)
	}

	removed, err := f.svc.CleanupExpired(ctx, f.opened.ID, 0, 1)
	if err != nil {
		t.Fatalf("cleanup expired: %v", err)
	}
	if len(removed) != 1 || removed[0] != soon {
		t.Fatalf("expected only %d removed, got %v", soon, removed)
	}
	ids, err := f.svc.ListingIDs(ctx, f.opened.ID)
	if err != nil {
		t.Fatalf("listing ids: %v", err)
	}
	if len(ids) != 1 || ids[0] != later {
		t.Fatalf("expected %d to remain, got %v", later, ids)
	}

	if _, err := f.svc.CleanupExpired(ctx, f.opened.ID, 0, 5); ClassifyError(err) != ErrorInvalidInput {
		t.Fatalf("expected invalid range, got %v", err)
	}
}

func TestMarketService_DestroyKeepsEventLog(t *testing.T) {
	t.Parallel()
	f := newMarketFixture(t)
	ctx := context.Background()

	f.list(t, 1, time.Time{}, saleCut(f.sellerVault, 5))
	if err := f.svc.DestroyStorefront(ctx, f.opened.ID, f.opened.OwnerToken); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if _, err := f.svc.ListingIDs(ctx, f.opened.ID); ClassifyError(err) != ErrorNotFound {
		t.Fatalf("expected destroyed storefront to be gone, got %v", err)
	}
	if !f.custody.Holds(f.kitties, "Kitty", 1) {
		t.Fatalf("destroy must not touch listed assets")
	}
	assertEventTypes(t, f.eventTypes(t),
		string(storefront.EventStorefrontInitialized),
		string(storefront.EventListingAvailable),
		string(storefront.EventListingCompleted),
		string(storefront.EventStorefrontDestroyed),
	)
}

func TestMarketService_ConcurrentPurchasesSettleOnce(t *testing.T) {
	t.Parallel()
	f := newMarketFixture(t)
	ctx := context.Background()

	id := f.list(t, 1, time.Time{}, saleCut(f.sellerVault, 25))
	buyers := []PurchaseCommand{f.buyer(t, "bob", 25), f.buyer(t, "dave", 25), f.buyer(t, "erin", 25)}

	var (
		wg   sync.WaitGroup
		errs = make([]error, len(buyers))
	)
	for i, cmd := range buyers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.Purchase(ctx, f.opened.ID, id, cmd)
		}()
	}
	wg.Wait()

	wins := 0
	for i, err := range errs {
		switch {
		case err == nil:
			wins++
		case ClassifyError(err) == ErrorNotFound:
			if got := f.balance(t, buyers[i].BuyerVault); got != "25" {
				t.Fatalf("losing buyer %d was charged: balance %s", i, got)
			}
		default:
			t.Fatalf("unexpected purchase error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winning purchase, got %d", wins)
	}
	if got := f.balance(t, f.sellerVault); got != "25" {
		t.Fatalf("expected seller paid once, got %s", got)
	}
}

func TestMarketService_CustodyOutageStopsBeforeStore(t *testing.T) {
	t.Parallel()

	store := portmocks.NewMockMarketStore(t)
	custody := portmocks.NewMockCustody(t)
	svc := NewMarketService(store, custody, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	sink := memcustody.Ref("alice", "flow-vault")
	custody.EXPECT().PaymentSink(mock.Anything, sink).Return(nil, ports.ErrCustodyUnavailable)

	_, err := svc.OpenStorefront(context.Background(), OpenStorefrontCommand{Owner: "alice", SellerSink: sink})
	if ClassifyError(err) != ErrorUnavailable {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestMarketService_EventsValidatesCursor(t *testing.T) {
	t.Parallel()

	store := portmocks.NewMockMarketStore(t)
	svc := NewMarketService(store, portmocks.NewMockCustody(t))

	if _, err := svc.Events(context.Background(), -1, 10); ClassifyError(err) != ErrorInvalidInput {
		t.Fatalf("expected invalid_input, got %v", err)
	}

	store.EXPECT().ListEvents(mock.Anything, int64(7), int64(maxEventLimit)).Return([]ports.EventRecord{{Seq: 8}}, nil)
	events, err := svc.Events(context.Background(), 7, 50000)
	if err != nil || len(events) != 1 {
		t.Fatalf("expected clamped read, got %v (%v)", events, err)
	}
}
