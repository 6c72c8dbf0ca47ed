// Package custodytest holds a conformance suite every custody provider must
// pass before the marketplace can settle through it.
package custodytest

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fr0stylo/storefront/internal/app/ports"
	"github.com/fr0stylo/storefront/internal/storefront"
)

// Harness pairs the provider under test with an admin view of the same backing state.
type Harness struct {
	Custody ports.Custody
	Admin   ports.CustodyAdmin
}

// NewHarness constructs a fresh, isolated provider for one subtest.
type NewHarness func(t *testing.T) Harness

// RunConformance exercises the custody contract the storefront engine relies on.
func RunConformance(t *testing.T, newHarness NewHarness) {
	t.Helper()
	ctx := context.Background()

	t.Run("ProbeThenWithdraw", func(t *testing.T) {
		h := newHarness(t)
		col := h.Admin.OpenCollection("alice", "kitties")
		if err := h.Admin.Mint(col, "Kitty", 1); err != nil {
			t.Fatalf("Mint failed: %v", err)
		}

		source, err := h.Custody.AssetSource(ctx, col)
		if err != nil {
			t.Fatalf("AssetSource failed: %v", err)
		}
		ok, err := source.Probe(ctx, "Kitty", 1)
		if err != nil || !ok {
			t.Fatalf("Probe(held) = %v, %v; want true", ok, err)
		}
		ok, err = source.Probe(ctx, "Kitty", 2)
		if err != nil || ok {
			t.Fatalf("Probe(missing) = %v, %v; want false", ok, err)
		}

		asset, err := source.Withdraw(ctx, "Kitty", 1)
		if err != nil {
			t.Fatalf("Withdraw failed: %v", err)
		}
		if !asset.Live() || asset.Type() != "Kitty" || asset.ID() != 1 {
			t.Fatalf("Withdraw returned %s", asset)
		}
		if h.Admin.Holds(col, "Kitty", 1) {
			t.Fatalf("asset still held after Withdraw")
		}
		if _, err := source.Withdraw(ctx, "Kitty", 1); !errors.Is(err, storefront.ErrAssetUnavailable) {
			t.Fatalf("second Withdraw: want ErrAssetUnavailable, got %v", err)
		}
	})

	t.Run("UnknownOrRevokedCollection", func(t *testing.T) {
		h := newHarness(t)
		if _, err := h.Custody.AssetSource(ctx, storefront.CapabilityRef{Owner: "nobody", Resource: "nothing"}); !errors.Is(err, storefront.ErrAssetUnavailable) {
			t.Fatalf("unknown collection: want ErrAssetUnavailable, got %v", err)
		}

		col := h.Admin.OpenCollection("alice", "kitties")
		if err := h.Admin.Revoke(col); err != nil {
			t.Fatalf("Revoke failed: %v", err)
		}
		if _, err := h.Custody.AssetSource(ctx, col); !errors.Is(err, storefront.ErrAssetUnavailable) {
			t.Fatalf("revoked collection: want ErrAssetUnavailable, got %v", err)
		}
	})

	t.Run("DepositMovesWholePayment", func(t *testing.T) {
		h := newHarness(t)
		buyer := h.Admin.OpenVault("carol", "flow-vault", "FLOW", decimal.NewFromInt(100))
		seller := h.Admin.OpenVault("alice", "flow-vault", "FLOW", decimal.Zero)

		payment, err := h.Custody.WithdrawPayment(ctx, buyer, "FLOW", decimal.NewFromInt(40))
		if err != nil {
			t.Fatalf("WithdrawPayment failed: %v", err)
		}
		if !payment.Balance().Equal(decimal.NewFromInt(40)) || payment.Denomination() != "FLOW" {
			t.Fatalf("WithdrawPayment returned %s", payment)
		}
		assertBalance(t, h.Admin, buyer, 60)

		sink, err := h.Custody.PaymentSink(ctx, seller)
		if err != nil {
			t.Fatalf("PaymentSink failed: %v", err)
		}
		if err := sink.Deposit(ctx, payment); err != nil {
			t.Fatalf("Deposit failed: %v", err)
		}
		if payment.Live() {
			t.Fatalf("payment still live after Deposit")
		}
		assertBalance(t, h.Admin, seller, 40)
	})

	t.Run("FailedDepositLeavesPaymentLive", func(t *testing.T) {
		h := newHarness(t)
		buyer := h.Admin.OpenVault("carol", "usd-vault", "USD", decimal.NewFromInt(10))
		seller := h.Admin.OpenVault("alice", "flow-vault", "FLOW", decimal.Zero)

		payment, err := h.Custody.WithdrawPayment(ctx, buyer, "USD", decimal.NewFromInt(10))
		if err != nil {
			t.Fatalf("WithdrawPayment failed: %v", err)
		}
		sink, err := h.Custody.PaymentSink(ctx, seller)
		if err != nil {
			t.Fatalf("PaymentSink failed: %v", err)
		}
		if err := sink.Deposit(ctx, payment); err == nil {
			t.Fatalf("Deposit of wrong denomination succeeded")
		}
		if !payment.Live() || !payment.Balance().Equal(decimal.NewFromInt(10)) {
			t.Fatalf("payment changed after failed Deposit: %s", payment)
		}
		assertBalance(t, h.Admin, seller, 0)
	})

	t.Run("RevokedVaultDoesNotResolve", func(t *testing.T) {
		h := newHarness(t)
		vault := h.Admin.OpenVault("bob", "flow-vault", "FLOW", decimal.Zero)
		if err := h.Admin.Revoke(vault); err != nil {
			t.Fatalf("Revoke failed: %v", err)
		}
		if _, err := h.Custody.PaymentSink(ctx, vault); err == nil {
			t.Fatalf("PaymentSink resolved a revoked vault")
		}
	})

	t.Run("OverdrawIsRejected", func(t *testing.T) {
		h := newHarness(t)
		buyer := h.Admin.OpenVault("carol", "flow-vault", "FLOW", decimal.NewFromInt(5))
		if _, err := h.Custody.WithdrawPayment(ctx, buyer, "FLOW", decimal.NewFromInt(6)); err == nil {
			t.Fatalf("WithdrawPayment overdraw succeeded")
		}
		assertBalance(t, h.Admin, buyer, 5)
	})

	t.Run("DepositAssetMovesOwnership", func(t *testing.T) {
		h := newHarness(t)
		from := h.Admin.OpenCollection("alice", "kitties")
		to := h.Admin.OpenCollection("carol", "kitties")
		if err := h.Admin.Mint(from, "Kitty", 9); err != nil {
			t.Fatalf("Mint failed: %v", err)
		}
		source, err := h.Custody.AssetSource(ctx, from)
		if err != nil {
			t.Fatalf("AssetSource failed: %v", err)
		}
		asset, err := source.Withdraw(ctx, "Kitty", 9)
		if err != nil {
			t.Fatalf("Withdraw failed: %v", err)
		}
		if err := h.Custody.DepositAsset(ctx, to, asset); err != nil {
			t.Fatalf("DepositAsset failed: %v", err)
		}
		if asset.Live() {
			t.Fatalf("asset handle still live after DepositAsset")
		}
		if !h.Admin.Holds(to, "Kitty", 9) {
			t.Fatalf("receiving collection does not hold the asset")
		}
	})
}

func assertBalance(t *testing.T, admin ports.CustodyAdmin, ref storefront.CapabilityRef, want int64) {
	t.Helper()
	got, err := admin.Balance(ref)
	if err != nil {
		t.Fatalf("Balance(%s) failed: %v", ref, err)
	}
	if !got.Equal(decimal.NewFromInt(want)) {
		t.Fatalf("Balance(%s) = %s, want %d", ref, got, want)
	}
}
