package routes

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fr0stylo/storefront/internal/app/ports"
	appservices "github.com/fr0stylo/storefront/internal/app/services"
	"github.com/fr0stylo/storefront/internal/observability"
	"github.com/fr0stylo/storefront/internal/storefront"
)

const bearerPrefix = "Bearer "

// Marketplace is the application surface served over HTTP.
type Marketplace interface {
	OpenStorefront(ctx context.Context, cmd appservices.OpenStorefrontCommand) (appservices.OpenedStorefront, error)
	ListStorefronts(ctx context.Context) ([]ports.StorefrontSummary, error)
	DestroyStorefront(ctx context.Context, storefrontID, ownerToken string) error
	CreateListing(ctx context.Context, storefrontID, ownerToken string, in storefront.ListingInput) (uint64, error)
	RemoveListing(ctx context.Context, storefrontID, ownerToken string, listingID uint64) error
	ListingIDs(ctx context.Context, storefrontID string) ([]uint64, error)
	BorrowListing(ctx context.Context, storefrontID string, listingID uint64) (storefront.Details, error)
	DuplicateListingIDs(ctx context.Context, storefrontID string, listingID uint64) ([]uint64, error)
	Purchase(ctx context.Context, storefrontID string, listingID uint64, cmd appservices.PurchaseCommand) (appservices.PurchaseResult, error)
	Cleanup(ctx context.Context, storefrontID string, listingID uint64) error
	CleanupExpired(ctx context.Context, storefrontID string, fromIndex, toIndex int) ([]uint64, error)
	Events(ctx context.Context, afterSeq, limit int64) ([]ports.EventRecord, error)
	PendingDeliveries(ctx context.Context, limit int64) ([]ports.PendingDelivery, error)
	RetryDelivery(ctx context.Context, deliveryID int64) (ports.PendingDelivery, error)
}

// MarketRoutes registers the storefront API.
type MarketRoutes struct {
	market Marketplace
	log    *slog.Logger
}

// NewMarketRoutes constructs storefront API routes.
func NewMarketRoutes(market Marketplace, log *slog.Logger) *MarketRoutes {
	if log == nil {
		log = slog.Default()
	}
	return &MarketRoutes{market: market, log: log}
}

// RegisterRoutes registers storefront API endpoints.
func (m *MarketRoutes) RegisterRoutes(s *echo.Echo) {
	api := s.Group("/api/v1")

	api.POST("/storefronts", m.handleOpenStorefront)
	api.GET("/storefronts", m.handleListStorefronts)
	api.DELETE("/storefronts/:id", m.handleDestroyStorefront)

	api.GET("/storefronts/:id/listings", m.handleListingIDs)
	api.POST("/storefronts/:id/listings", m.handleCreateListing)
	api.GET("/storefronts/:id/listings/:listingID", m.handleBorrowListing)
	api.DELETE("/storefronts/:id/listings/:listingID", m.handleRemoveListing)
	api.POST("/storefronts/:id/listings/:listingID/purchase", m.handlePurchase)
	api.POST("/storefronts/:id/listings/:listingID/cleanup", m.handleCleanup)
	api.GET("/storefronts/:id/listings/:listingID/duplicates", m.handleDuplicates)
	api.POST("/storefronts/:id/cleanup-expired", m.handleCleanupExpired)

	api.GET("/events", m.handleEvents)

	api.GET("/deliveries", m.handlePendingDeliveries)
	api.POST("/deliveries/:deliveryID/retry", m.handleRetryDelivery)
}

type openStorefrontRequest struct {
	Owner      string                   `json:"owner"`
	SellerSink storefront.CapabilityRef `json:"sellerSink"`
}

type createListingRequest struct {
	AssetSource  storefront.CapabilityRef `json:"assetSource"`
	AssetType    string                   `json:"assetType"`
	AssetID      uint64                   `json:"assetId"`
	Denomination string                   `json:"denomination"`
	SaleCuts     []storefront.SaleCut     `json:"saleCuts"`
	CustomID     string                   `json:"customId"`
	Expiry       *time.Time               `json:"expiry"`
}

type purchaseRequest struct {
	BuyerVault      storefront.CapabilityRef `json:"buyerVault"`
	BuyerCollection storefront.CapabilityRef `json:"buyerCollection"`
}

type purchaseResponse struct {
	Purchase      appservices.PurchaseResult `json:"purchase"`
	DeliveryError string                     `json:"deliveryError,omitempty"`
}

type cleanupExpiredRequest struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}

type eventResponse struct {
	Seq          int64           `json:"seq"`
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	StorefrontID string          `json:"storefrontId"`
	ListingID    *uint64         `json:"listingId,omitempty"`
	OccurredAt   time.Time       `json:"occurredAt"`
	PublishedAt  *time.Time      `json:"publishedAt,omitempty"`
	Payload      json.RawMessage `json:"payload"`
}

type eventsResponse struct {
	Events []eventResponse `json:"events"`
	Next   int64           `json:"next"`
}

func (m *MarketRoutes) handleOpenStorefront(c echo.Context) error {
	var req openStorefrontRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	opened, err := m.market.OpenStorefront(c.Request().Context(), appservices.OpenStorefrontCommand{
		Owner:      req.Owner,
		SellerSink: req.SellerSink,
	})
	if err != nil {
		return writeError(c, m.log, err)
	}
	return c.JSON(http.StatusCreated, opened)
}

func (m *MarketRoutes) handleListStorefronts(c echo.Context) error {
	summaries, err := m.market.ListStorefronts(c.Request().Context())
	if err != nil {
		return writeError(c, m.log, err)
	}
	if summaries == nil {
		summaries = []ports.StorefrontSummary{}
	}
	return c.JSON(http.StatusOK, summaries)
}

func (m *MarketRoutes) handleDestroyStorefront(c echo.Context) error {
	ctx := storefrontContext(c)
	if err := m.market.DestroyStorefront(ctx, c.Param("id"), ownerToken(c)); err != nil {
		return writeError(c, m.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (m *MarketRoutes) handleListingIDs(c echo.Context) error {
	ids, err := m.market.ListingIDs(storefrontContext(c), c.Param("id"))
	if err != nil {
		return writeError(c, m.log, err)
	}
	return c.JSON(http.StatusOK, map[string][]uint64{"listingIds": nonNil(ids)})
}

func (m *MarketRoutes) handleCreateListing(c echo.Context) error {
	var req createListingRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	in := storefront.ListingInput{
		AssetSource:  req.AssetSource,
		AssetType:    req.AssetType,
		AssetID:      req.AssetID,
		Denomination: req.Denomination,
		SaleCuts:     req.SaleCuts,
		CustomID:     req.CustomID,
	}
	if req.Expiry != nil {
		in.Expiry = *req.Expiry
	}

	listingID, err := m.market.CreateListing(storefrontContext(c), c.Param("id"), ownerToken(c), in)
	if err != nil {
		return writeError(c, m.log, err)
	}
	return c.JSON(http.StatusCreated, map[string]uint64{"listingId": listingID})
}

func (m *MarketRoutes) handleBorrowListing(c echo.Context) error {
	listingID, ok := listingParam(c)
	if !ok {
		return badRequest(c, "invalid listing id")
	}
	details, err := m.market.BorrowListing(storefrontContext(c), c.Param("id"), listingID)
	if err != nil {
		return writeError(c, m.log, err)
	}
	return c.JSON(http.StatusOK, details)
}

func (m *MarketRoutes) handleRemoveListing(c echo.Context) error {
	listingID, ok := listingParam(c)
	if !ok {
		return badRequest(c, "invalid listing id")
	}
	if err := m.market.RemoveListing(storefrontContext(c), c.Param("id"), ownerToken(c), listingID); err != nil {
		return writeError(c, m.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// handlePurchase answers 202 when the sale settled but the asset is still
// waiting to be delivered to the buyer.
func (m *MarketRoutes) handlePurchase(c echo.Context) error {
	listingID, ok := listingParam(c)
	if !ok {
		return badRequest(c, "invalid listing id")
	}
	var req purchaseRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}

	result, err := m.market.Purchase(storefrontContext(c), c.Param("id"), listingID, appservices.PurchaseCommand{
		BuyerVault:      req.BuyerVault,
		BuyerCollection: req.BuyerCollection,
	})
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, purchaseResponse{Purchase: result})
	case errors.Is(err, appservices.ErrAssetUndelivered):
		return c.JSON(http.StatusAccepted, purchaseResponse{Purchase: result, DeliveryError: err.Error()})
	default:
		return writeError(c, m.log, err)
	}
}

func (m *MarketRoutes) handleCleanup(c echo.Context) error {
	listingID, ok := listingParam(c)
	if !ok {
		return badRequest(c, "invalid listing id")
	}
	if err := m.market.Cleanup(storefrontContext(c), c.Param("id"), listingID); err != nil {
		return writeError(c, m.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (m *MarketRoutes) handleDuplicates(c echo.Context) error {
	listingID, ok := listingParam(c)
	if !ok {
		return badRequest(c, "invalid listing id")
	}
	ids, err := m.market.DuplicateListingIDs(storefrontContext(c), c.Param("id"), listingID)
	if err != nil {
		return writeError(c, m.log, err)
	}
	return c.JSON(http.StatusOK, map[string][]uint64{"listingIds": nonNil(ids)})
}

func (m *MarketRoutes) handleCleanupExpired(c echo.Context) error {
	var req cleanupExpiredRequest
	if err := c.Bind(&req); err != nil || req.From == nil || req.To == nil {
		return badRequest(c, "from and to are required")
	}
	removed, err := m.market.CleanupExpired(storefrontContext(c), c.Param("id"), *req.From, *req.To)
	if err != nil {
		return writeError(c, m.log, err)
	}
	return c.JSON(http.StatusOK, map[string][]uint64{"removed": nonNil(removed)})
}

func (m *MarketRoutes) handleEvents(c echo.Context) error {
	after, err := queryInt(c, "after")
	if err != nil {
		return badRequest(c, "invalid after cursor")
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return badRequest(c, "invalid limit")
	}

	records, err := m.market.Events(c.Request().Context(), after, limit)
	if err != nil {
		return writeError(c, m.log, err)
	}
	out := eventsResponse{Events: make([]eventResponse, 0, len(records)), Next: after}
	for _, record := range records {
		out.Events = append(out.Events, eventResponse{
			Seq:          record.Seq,
			ID:           record.EventID,
			Type:         record.EventType,
			StorefrontID: record.StorefrontID,
			ListingID:    record.ListingID,
			OccurredAt:   record.OccurredAt,
			PublishedAt:  record.PublishedAt,
			Payload:      json.RawMessage(record.PayloadJSON),
		})
		out.Next = record.Seq
	}
	return c.JSON(http.StatusOK, out)
}

func (m *MarketRoutes) handlePendingDeliveries(c echo.Context) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return badRequest(c, "invalid limit")
	}
	parked, err := m.market.PendingDeliveries(c.Request().Context(), limit)
	if err != nil {
		return writeError(c, m.log, err)
	}
	if parked == nil {
		parked = []ports.PendingDelivery{}
	}
	return c.JSON(http.StatusOK, map[string][]ports.PendingDelivery{"deliveries": parked})
}

func (m *MarketRoutes) handleRetryDelivery(c echo.Context) error {
	deliveryID, err := strconv.ParseInt(strings.TrimSpace(c.Param("deliveryID")), 10, 64)
	if err != nil {
		return badRequest(c, "invalid delivery id")
	}
	delivered, err := m.market.RetryDelivery(c.Request().Context(), deliveryID)
	if err != nil {
		return writeError(c, m.log, err)
	}
	return c.JSON(http.StatusOK, delivered)
}

func storefrontContext(c echo.Context) context.Context {
	return observability.WithStorefront(c.Request().Context(), c.Param("id"))
}

func ownerToken(c echo.Context) string {
	value := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
	if !strings.HasPrefix(value, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(value, bearerPrefix))
}

func listingParam(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("listingID")), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func queryInt(c echo.Context, name string) (int64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

func nonNil(ids []uint64) []uint64 {
	if ids == nil {
		return []uint64{}
	}
	return ids
}
