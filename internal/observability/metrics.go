package observability

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "storefront/engine"

// SettlementMetrics counts marketplace outcomes. Instruments come from the
// global meter provider, so they are no-ops until SetupOpenTelemetry runs.
type SettlementMetrics struct {
	purchases       metric.Int64Counter
	unpaidReceivers metric.Int64Counter
	listingsRemoved metric.Int64Counter
	parkedAssets    metric.Int64Counter
}

var (
	settlementOnce    sync.Once
	settlementMetrics *SettlementMetrics
)

// Settlement returns the process-wide settlement counters.
func Settlement() *SettlementMetrics {
	settlementOnce.Do(func() {
		meter := otel.Meter(meterName)
		m := &SettlementMetrics{}
		m.purchases, _ = meter.Int64Counter("storefront.purchases",
			metric.WithDescription("Completed purchases"))
		m.unpaidReceivers, _ = meter.Int64Counter("storefront.unpaid_receivers",
			metric.WithDescription("Sale cuts diverted to the seller"))
		m.listingsRemoved, _ = meter.Int64Counter("storefront.listings_removed",
			metric.WithDescription("Listings removed without a sale"))
		m.parkedAssets, _ = meter.Int64Counter("storefront.deliveries_parked",
			metric.WithDescription("Assets parked after a failed deposit"))
		settlementMetrics = m
	})
	return settlementMetrics
}

// Purchase records one completed sale.
func (m *SettlementMetrics) Purchase(ctx context.Context, denomination string) {
	if m == nil || m.purchases == nil {
		return
	}
	m.purchases.Add(ctx, 1, metric.WithAttributes(attribute.String("denomination", denomination)))
}

// UnpaidReceiver records one diverted cut.
func (m *SettlementMetrics) UnpaidReceiver(ctx context.Context) {
	if m == nil || m.unpaidReceivers == nil {
		return
	}
	m.unpaidReceivers.Add(ctx, 1)
}

// ListingRemoved records one listing leaving without a sale; reason is
// remove, cleanup, expired, duplicate or destroy.
func (m *SettlementMetrics) ListingRemoved(ctx context.Context, reason string) {
	if m == nil || m.listingsRemoved == nil {
		return
	}
	m.listingsRemoved.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// DeliveryParked records one asset parked for a later deposit; reason is
// purchase or restock.
func (m *SettlementMetrics) DeliveryParked(ctx context.Context, reason string) {
	if m == nil || m.parkedAssets == nil {
		return
	}
	m.parkedAssets.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
