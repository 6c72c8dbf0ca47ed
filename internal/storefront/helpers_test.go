package storefront_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fr0stylo/storefront/internal/custody/memcustody"
	"github.com/fr0stylo/storefront/internal/storefront"
)

const flow = "FLOW"

type fixture struct {
	custody    *memcustody.Custody
	resolver   *hookResolver
	events     *storefront.Recorder
	sf         *storefront.Storefront
	sellerSink storefront.CapabilityRef
	collection storefront.CapabilityRef
	now        time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		custody: memcustody.New(),
		events:  &storefront.Recorder{},
		now:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.resolver = &hookResolver{Custody: f.custody}
	f.sellerSink = f.custody.OpenVault("alice", "flow-vault", flow, decimal.Zero)
	f.collection = f.custody.OpenCollection("alice", "kitties")
	for _, id := range []uint64{1, 2, 3} {
		if err := f.custody.Mint(f.collection, "Kitty", id); err != nil {
			t.Fatalf("mint kitty %d: %v", id, err)
		}
	}
	sf, err := storefront.New("sf-1", "alice", f.sellerSink, f.resolver, f.events, storefront.WithClock(f.clock))
	if err != nil {
		t.Fatalf("new storefront: %v", err)
	}
	f.sf = sf
	return f
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) vault(t *testing.T, owner string, balance int64) storefront.CapabilityRef {
	t.Helper()
	return f.custody.OpenVault(owner, "flow-vault", flow, decimal.NewFromInt(balance))
}

func (f *fixture) balance(t *testing.T, ref storefront.CapabilityRef) decimal.Decimal {
	t.Helper()
	b, err := f.custody.Balance(ref)
	if err != nil {
		t.Fatalf("balance %s: %v", ref, err)
	}
	return b
}

func (f *fixture) pay(t *testing.T, from storefront.CapabilityRef, amount int64) *storefront.Payment {
	t.Helper()
	p, err := f.custody.WithdrawPayment(context.Background(), from, flow, decimal.NewFromInt(amount))
	if err != nil {
		t.Fatalf("withdraw payment: %v", err)
	}
	return p
}

func (f *fixture) list(t *testing.T, assetID uint64, cuts ...storefront.SaleCut) uint64 {
	t.Helper()
	id, err := f.sf.CreateListing(context.Background(), storefront.ListingInput{
		AssetSource:  f.collection,
		AssetType:    "Kitty",
		AssetID:      assetID,
		Denomination: flow,
		SaleCuts:     cuts,
	})
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	return id
}

func cut(receiver storefront.CapabilityRef, amount int64) storefront.SaleCut {
	return storefront.SaleCut{Receiver: receiver, Amount: decimal.NewFromInt(amount)}
}

func kinds(events []storefront.Event) []storefront.EventType {
	out := make([]storefront.EventType, len(events))
	for i, e := range events {
		out[i] = e.Kind()
	}
	return out
}

func assertKinds(t *testing.T, events []storefront.Event, want ...storefront.EventType) {
	t.Helper()
	got := kinds(events)
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, got)
		}
	}
}

// hookResolver wraps memcustody so tests can run code while a deposit is in flight.
type hookResolver struct {
	*memcustody.Custody
	beforeDeposit func(ctx context.Context, payment *storefront.Payment)
}

func (r *hookResolver) PaymentSink(ctx context.Context, ref storefront.CapabilityRef) (storefront.PaymentSink, error) {
	sink, err := r.Custody.PaymentSink(ctx, ref)
	if err != nil {
		return nil, err
	}
	return hookSink{inner: sink, r: r}, nil
}

type hookSink struct {
	inner storefront.PaymentSink
	r     *hookResolver
}

func (s hookSink) Deposit(ctx context.Context, payment *storefront.Payment) error {
	if s.r.beforeDeposit != nil {
		s.r.beforeDeposit(ctx, payment)
	}
	return s.inner.Deposit(ctx, payment)
}

func (s hookSink) Denomination() string {
	if d, ok := s.inner.(storefront.DenominatedSink); ok {
		return d.Denomination()
	}
	return ""
}
