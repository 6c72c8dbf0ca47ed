package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fr0stylo/storefront/internal/app/ports"
	"github.com/fr0stylo/storefront/internal/db"
	"github.com/fr0stylo/storefront/internal/db/queries"
	"github.com/fr0stylo/storefront/internal/storefront"
)

const timeLayout = time.RFC3339Nano

// MarketStore persists storefronts and the event outbox in SQLite.
type MarketStore struct {
	db  *db.Database
	now func() time.Time
}

// NewMarketStore wraps an opened database.
func NewMarketStore(database *db.Database) *MarketStore {
	return &MarketStore{db: database, now: time.Now}
}

// WithinTx runs fn in one SQLite transaction.
func (s *MarketStore) WithinTx(ctx context.Context, fn func(ports.MarketTx) error) error {
	return s.db.WithTx(ctx, func(q *queries.Queries) error {
		return fn(&marketTx{q: q, now: s.now})
	})
}

func (s *MarketStore) LoadStorefront(ctx context.Context, storefrontID string) (ports.StorefrontRecord, error) {
	return loadRecord(ctx, s.db.Queries, storefrontID)
}

func (s *MarketStore) ListStorefronts(ctx context.Context) ([]ports.StorefrontSummary, error) {
	rows, err := s.db.ListStorefronts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ports.StorefrontSummary, 0, len(rows))
	for _, row := range rows {
		createdAt, err := parseTime(row.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, ports.StorefrontSummary{
			ID:           row.ID,
			Owner:        row.Owner,
			ListingCount: row.ListingCount,
			CreatedAt:    createdAt,
		})
	}
	return out, nil
}

func (s *MarketStore) ListEvents(ctx context.Context, afterSeq, limit int64) ([]ports.EventRecord, error) {
	rows, err := s.db.ListEventsAfter(ctx, queries.ListEventsAfterParams{AfterSeq: afterSeq, Limit: limit})
	if err != nil {
		return nil, err
	}
	return toEventRecords(rows)
}

func (s *MarketStore) ListPendingEvents(ctx context.Context, limit int64) ([]ports.EventRecord, error) {
	rows, err := s.db.ListPendingEvents(ctx, limit)
	if err != nil {
		return nil, err
	}
	return toEventRecords(rows)
}

func (s *MarketStore) MarkEventsPublished(ctx context.Context, seqs []int64, publishedAt time.Time) error {
	if len(seqs) == 0 {
		return nil
	}
	stamp := publishedAt.UTC().Format(timeLayout)
	return s.db.WithTx(ctx, func(q *queries.Queries) error {
		for _, seq := range seqs {
			if err := q.MarkEventPublished(ctx, queries.MarkEventPublishedParams{PublishedAt: stamp, Seq: seq}); err != nil {
				return fmt.Errorf("mark event %d published: %w", seq, err)
			}
		}
		return nil
	})
}

func (s *MarketStore) ListPendingDeliveries(ctx context.Context, limit int64) ([]ports.PendingDelivery, error) {
	rows, err := s.db.ListPendingDeliveries(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ports.PendingDelivery, 0, len(rows))
	for _, row := range rows {
		d, err := toPendingDelivery(row)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *MarketStore) Close() error {
	return s.db.Close()
}

type marketTx struct {
	q   *queries.Queries
	now func() time.Time
}

func (t *marketTx) CreateStorefront(ctx context.Context, record ports.StorefrontRecord) error {
	st := record.State
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = t.now()
	}
	stamp := createdAt.UTC().Format(timeLayout)
	err := t.q.CreateStorefront(ctx, queries.CreateStorefrontParams{
		ID:                 st.ID,
		Owner:              st.Owner,
		SellerSinkProvider: st.SellerSink.Provider,
		SellerSinkOwner:    st.SellerSink.Owner,
		SellerSinkResource: st.SellerSink.Resource,
		OwnerTokenHash:     record.OwnerTokenHash,
		NextListingID:      int64(max(st.NextListingID, 1)),
		CreatedAt:          stamp,
		UpdatedAt:          stamp,
	})
	if err != nil {
		return fmt.Errorf("create storefront %s: %w", st.ID, err)
	}
	return t.insertListings(ctx, st)
}

func (t *marketTx) LoadStorefront(ctx context.Context, storefrontID string) (ports.StorefrontRecord, error) {
	return loadRecord(ctx, t.q, storefrontID)
}

// SaveStorefront replaces the persisted listings with st.
func (t *marketTx) SaveStorefront(ctx context.Context, st storefront.State) error {
	affected, err := t.q.UpdateStorefrontCounter(ctx, queries.UpdateStorefrontCounterParams{
		NextListingID: int64(st.NextListingID),
		UpdatedAt:     t.now().UTC().Format(timeLayout),
		ID:            st.ID,
	})
	if err != nil {
		return fmt.Errorf("update storefront %s: %w", st.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ports.ErrStorefrontNotFound, st.ID)
	}
	if err := t.q.DeleteListings(ctx, st.ID); err != nil {
		return fmt.Errorf("clear listings of %s: %w", st.ID, err)
	}
	return t.insertListings(ctx, st)
}

func (t *marketTx) DeleteStorefront(ctx context.Context, storefrontID string) error {
	affected, err := t.q.DeleteStorefront(ctx, storefrontID)
	if err != nil {
		return fmt.Errorf("delete storefront %s: %w", storefrontID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ports.ErrStorefrontNotFound, storefrontID)
	}
	return nil
}

func (t *marketTx) AppendEvents(ctx context.Context, events []ports.EventRecord) error {
	for i := range events {
		e := &events[i]
		listingID := sql.NullInt64{}
		if e.ListingID != nil {
			listingID = sql.NullInt64{Int64: int64(*e.ListingID), Valid: true}
		}
		occurredAt := e.OccurredAt
		if occurredAt.IsZero() {
			occurredAt = t.now()
		}
		seq, err := t.q.AppendEventStore(ctx, queries.AppendEventStoreParams{
			EventID:      e.EventID,
			EventType:    e.EventType,
			StorefrontID: e.StorefrontID,
			ListingID:    listingID,
			PayloadJson:  e.PayloadJSON,
			OccurredAt:   occurredAt.UTC().Format(timeLayout),
		})
		if err != nil {
			return fmt.Errorf("append event %s: %w", e.EventID, err)
		}
		e.Seq = seq
	}
	return nil
}

func (t *marketTx) ParkDelivery(ctx context.Context, d ports.PendingDelivery) (int64, error) {
	createdAt := d.CreatedAt
	if createdAt.IsZero() {
		createdAt = t.now()
	}
	id, err := t.q.InsertPendingDelivery(ctx, queries.InsertPendingDeliveryParams{
		StorefrontID:        d.StorefrontID,
		ListingID:           int64(d.ListingID),
		AssetType:           d.AssetType,
		AssetID:             strconv.FormatUint(d.AssetID, 10),
		DestinationProvider: d.Destination.Provider,
		DestinationOwner:    d.Destination.Owner,
		DestinationResource: d.Destination.Resource,
		Reason:              d.Reason,
		LastError:           d.LastError,
		CreatedAt:           createdAt.UTC().Format(timeLayout),
	})
	if err != nil {
		return 0, fmt.Errorf("park %s#%d: %w", d.AssetType, d.AssetID, err)
	}
	return id, nil
}

// TakeDelivery removes a parked delivery and returns it. The removal only
// sticks if the surrounding transaction commits.
func (t *marketTx) TakeDelivery(ctx context.Context, deliveryID int64) (ports.PendingDelivery, error) {
	row, err := t.q.GetPendingDelivery(ctx, deliveryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ports.PendingDelivery{}, fmt.Errorf("%w: %d", ports.ErrDeliveryNotFound, deliveryID)
		}
		return ports.PendingDelivery{}, err
	}
	d, err := toPendingDelivery(row)
	if err != nil {
		return ports.PendingDelivery{}, err
	}
	if _, err := t.q.DeletePendingDelivery(ctx, deliveryID); err != nil {
		return ports.PendingDelivery{}, fmt.Errorf("take delivery %d: %w", deliveryID, err)
	}
	return d, nil
}

func (t *marketTx) insertListings(ctx context.Context, st storefront.State) error {
	for _, l := range st.Listings {
		expiresAt := sql.NullString{}
		if !l.Expiry.IsZero() {
			expiresAt = queries.NullString(l.Expiry.UTC().Format(timeLayout))
		}
		err := t.q.InsertListing(ctx, queries.InsertListingParams{
			StorefrontID:        st.ID,
			ListingID:           int64(l.ID),
			AssetSourceProvider: l.AssetSource.Provider,
			AssetSourceOwner:    l.AssetSource.Owner,
			AssetSourceResource: l.AssetSource.Resource,
			AssetType:           l.AssetType,
			AssetID:             strconv.FormatUint(l.AssetID, 10),
			Denomination:        l.Denomination,
			Price:               l.Price().String(),
			CustomID:            l.CustomID,
			ExpiresAt:           expiresAt,
			CreatedAt:           l.CreatedAt.UTC().Format(timeLayout),
		})
		if err != nil {
			return fmt.Errorf("insert listing %d: %w", l.ID, err)
		}
		for pos, cut := range l.SaleCuts {
			err := t.q.InsertSaleCut(ctx, queries.InsertSaleCutParams{
				StorefrontID:     st.ID,
				ListingID:        int64(l.ID),
				Position:         int64(pos),
				ReceiverProvider: cut.Receiver.Provider,
				ReceiverOwner:    cut.Receiver.Owner,
				ReceiverResource: cut.Receiver.Resource,
				Amount:           cut.Amount.String(),
			})
			if err != nil {
				return fmt.Errorf("insert sale cut %d of listing %d: %w", pos, l.ID, err)
			}
		}
	}
	return nil
}

func loadRecord(ctx context.Context, q *queries.Queries, storefrontID string) (ports.StorefrontRecord, error) {
	row, err := q.GetStorefront(ctx, storefrontID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ports.StorefrontRecord{}, fmt.Errorf("%w: %s", ports.ErrStorefrontNotFound, storefrontID)
		}
		return ports.StorefrontRecord{}, err
	}
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return ports.StorefrontRecord{}, err
	}

	listings, err := q.ListListings(ctx, storefrontID)
	if err != nil {
		return ports.StorefrontRecord{}, err
	}
	cutRows, err := q.ListSaleCuts(ctx, storefrontID)
	if err != nil {
		return ports.StorefrontRecord{}, err
	}
	cuts := make(map[int64][]storefront.SaleCut, len(listings))
	for _, c := range cutRows {
		amount, err := decimal.NewFromString(c.Amount)
		if err != nil {
			return ports.StorefrontRecord{}, fmt.Errorf("sale cut %d/%d amount: %w", c.ListingID, c.Position, err)
		}
		cuts[c.ListingID] = append(cuts[c.ListingID], storefront.SaleCut{
			Receiver: storefront.CapabilityRef{Provider: c.ReceiverProvider, Owner: c.ReceiverOwner, Resource: c.ReceiverResource},
			Amount:   amount,
		})
	}

	st := storefront.State{
		ID:            row.ID,
		Owner:         row.Owner,
		SellerSink:    storefront.CapabilityRef{Provider: row.SellerSinkProvider, Owner: row.SellerSinkOwner, Resource: row.SellerSinkResource},
		NextListingID: uint64(row.NextListingID),
		Listings:      make([]storefront.ListingState, 0, len(listings)),
	}
	for _, l := range listings {
		assetID, err := strconv.ParseUint(l.AssetID, 10, 64)
		if err != nil {
			return ports.StorefrontRecord{}, fmt.Errorf("listing %d asset id: %w", l.ListingID, err)
		}
		listingCreated, err := parseTime(l.CreatedAt)
		if err != nil {
			return ports.StorefrontRecord{}, err
		}
		var expiry time.Time
		if l.ExpiresAt.Valid {
			if expiry, err = parseTime(l.ExpiresAt.String); err != nil {
				return ports.StorefrontRecord{}, err
			}
		}
		st.Listings = append(st.Listings, storefront.ListingState{
			ID:           uint64(l.ListingID),
			AssetSource:  storefront.CapabilityRef{Provider: l.AssetSourceProvider, Owner: l.AssetSourceOwner, Resource: l.AssetSourceResource},
			AssetType:    l.AssetType,
			AssetID:      assetID,
			Denomination: l.Denomination,
			SaleCuts:     cuts[l.ListingID],
			CustomID:     l.CustomID,
			Expiry:       expiry,
			CreatedAt:    listingCreated,
		})
	}

	return ports.StorefrontRecord{State: st, OwnerTokenHash: row.OwnerTokenHash, CreatedAt: createdAt}, nil
}

func toEventRecords(rows []queries.EventStore) ([]ports.EventRecord, error) {
	out := make([]ports.EventRecord, 0, len(rows))
	for _, row := range rows {
		occurredAt, err := parseTime(row.OccurredAt)
		if err != nil {
			return nil, err
		}
		record := ports.EventRecord{
			Seq:          row.Seq,
			EventID:      row.EventID,
			EventType:    row.EventType,
			StorefrontID: row.StorefrontID,
			PayloadJSON:  row.PayloadJson,
			OccurredAt:   occurredAt,
		}
		if row.ListingID.Valid {
			id := uint64(row.ListingID.Int64)
			record.ListingID = &id
		}
		if row.PublishedAt.Valid {
			publishedAt, err := parseTime(row.PublishedAt.String)
			if err != nil {
				return nil, err
			}
			record.PublishedAt = &publishedAt
		}
		out = append(out, record)
	}
	return out, nil
}

func toPendingDelivery(row queries.PendingDelivery) (ports.PendingDelivery, error) {
	assetID, err := strconv.ParseUint(row.AssetID, 10, 64)
	if err != nil {
		return ports.PendingDelivery{}, fmt.Errorf("delivery %d asset id: %w", row.ID, err)
	}
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return ports.PendingDelivery{}, err
	}
	return ports.PendingDelivery{
		ID:           row.ID,
		StorefrontID: row.StorefrontID,
		ListingID:    uint64(row.ListingID),
		AssetType:    row.AssetType,
		AssetID:      assetID,
		Destination:  storefront.CapabilityRef{Provider: row.DestinationProvider, Owner: row.DestinationOwner, Resource: row.DestinationResource},
		Reason:       row.Reason,
		LastError:    row.LastError,
		CreatedAt:    createdAt,
	}, nil
}

func parseTime(value string) (time.Time, error) {
	parsed, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", value, err)
	}
	return parsed.UTC(), nil
}

var _ ports.MarketStore = (*MarketStore)(nil)
