package custodyhttp

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/fr0stylo/storefront/internal/app/ports"
	"github.com/fr0stylo/storefront/internal/storefront"
)

// Handler serves a custody backend over HTTP. Admin routes are registered only
// when the backend also implements ports.CustodyAdmin.
type Handler struct {
	backend ports.Custody
	admin   ports.CustodyAdmin
	token   string
	secret  string
	log     *slog.Logger
}

// NewHandler constructs custody routes. Empty token or secret disables that check.
func NewHandler(backend ports.Custody, token, secret string, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{
		backend: backend,
		token:   strings.TrimSpace(token),
		secret:  strings.TrimSpace(secret),
		log:     log,
	}
	if admin, ok := backend.(ports.CustodyAdmin); ok {
		h.admin = admin
	}
	return h
}

// RegisterRoutes registers custody endpoints.
func (h *Handler) RegisterRoutes(s *echo.Echo) {
	g := s.Group(BasePath, h.authenticate)

	g.GET("/collections/:owner/:resource", h.handleResolveCollection)
	g.GET("/collections/:owner/:resource/assets/:type/:id", h.handleProbe)
	g.POST("/collections/:owner/:resource/withdrawals", h.handleWithdrawAsset)
	g.POST("/collections/:owner/:resource/deposits", h.handleDepositAsset)
	g.GET("/vaults/:owner/:resource", h.handleResolveVault)
	g.POST("/vaults/:owner/:resource/deposits", h.handleDepositFunds)
	g.POST("/vaults/:owner/:resource/withdrawals", h.handleWithdrawFunds)

	if h.admin == nil {
		return
	}
	g.POST("/admin/collections", h.handleOpenCollection)
	g.POST("/admin/collections/:owner/:resource/mint", h.handleMint)
	g.GET("/admin/collections/:owner/:resource/assets/:type/:id", h.handleHolds)
	g.POST("/admin/vaults", h.handleOpenVault)
	g.GET("/admin/vaults/:owner/:resource", h.handleBalance)
	g.POST("/admin/revocations", h.handleRevoke)
}

func (h *Handler) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		if h.token != "" {
			token, ok := bearerToken(req.Header.Get(AuthorizationHeader))
			if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(h.token)) != 1 {
				return c.JSON(http.StatusUnauthorized, errorBody{Code: codeUnauthorized, Error: "invalid auth token"})
			}
		}
		if h.secret == "" {
			return next(c)
		}
		body, err := io.ReadAll(io.LimitReader(req.Body, maxPayloadBytes))
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorBody{Code: codeInvalidInput, Error: "invalid payload"})
		}
		if !validSignature(h.secret, req.Method, req.URL.RequestURI(), body, req.Header.Get(SignatureHeader)) {
			return c.JSON(http.StatusUnauthorized, errorBody{Code: codeUnauthorized, Error: "invalid signature"})
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
		return next(c)
	}
}

func bearerToken(value string) (string, bool) {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, BearerPrefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(trimmed, BearerPrefix)), true
}

func (h *Handler) handleResolveCollection(c echo.Context) error {
	ref, err := refParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	if _, err := h.backend.AssetSource(c.Request().Context(), ref); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) handleProbe(c echo.Context) error {
	ref, err := refParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	asset, err := assetParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	ctx := c.Request().Context()
	source, err := h.backend.AssetSource(ctx, ref)
	if err != nil {
		return h.fail(c, err)
	}
	ok, err := source.Probe(ctx, asset.Type, asset.ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, probeBody{Available: ok})
}

func (h *Handler) handleWithdrawAsset(c echo.Context) error {
	ref, err := refParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	var in assetBody
	if err := decode(c, &in); err != nil {
		return h.fail(c, err)
	}
	ctx := c.Request().Context()
	source, err := h.backend.AssetSource(ctx, ref)
	if err != nil {
		return h.fail(c, err)
	}
	asset, err := source.Withdraw(ctx, in.Type, in.ID)
	if err != nil {
		return h.fail(c, err)
	}
	h.log.InfoContext(ctx, "Asset withdrawn", "collection", ref.String(), "asset", asset.String())
	return c.JSON(http.StatusOK, assetBody{Type: asset.Type(), ID: asset.ID()})
}

func (h *Handler) handleDepositAsset(c echo.Context) error {
	ref, err := refParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	var in assetBody
	if err := decode(c, &in); err != nil {
		return h.fail(c, err)
	}
	if err := h.backend.DepositAsset(c.Request().Context(), ref, storefront.NewAsset(in.Type, in.ID)); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) handleResolveVault(c echo.Context) error {
	ref, err := refParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	if _, err := h.backend.PaymentSink(c.Request().Context(), ref); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) handleDepositFunds(c echo.Context) error {
	ref, err := refParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	var in fundsBody
	if err := decode(c, &in); err != nil {
		return h.fail(c, err)
	}
	payment, err := storefront.NewPayment(in.Denomination, in.Amount)
	if err != nil {
		return h.fail(c, err)
	}
	ctx := c.Request().Context()
	sink, err := h.backend.PaymentSink(ctx, ref)
	if err != nil {
		return h.fail(c, err)
	}
	if err := sink.Deposit(ctx, payment); err != nil {
		return h.fail(c, err)
	}
	if payment.Live() {
		return h.fail(c, errors.New("vault did not take the deposit"))
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) handleWithdrawFunds(c echo.Context) error {
	ref, err := refParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	var in fundsBody
	if err := decode(c, &in); err != nil {
		return h.fail(c, err)
	}
	payment, err := h.backend.WithdrawPayment(c.Request().Context(), ref, in.Denomination, in.Amount)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, fundsBody{Denomination: payment.Denomination(), Amount: payment.Balance()})
}

func (h *Handler) handleOpenCollection(c echo.Context) error {
	var in handleBody
	if err := decode(c, &in); err != nil {
		return h.fail(c, err)
	}
	if strings.TrimSpace(in.Owner) == "" || strings.TrimSpace(in.Resource) == "" {
		return h.fail(c, storefront.ErrInvalidInput)
	}
	return c.JSON(http.StatusCreated, h.admin.OpenCollection(in.Owner, in.Resource))
}

func (h *Handler) handleMint(c echo.Context) error {
	ref, err := refParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	var in assetBody
	if err := decode(c, &in); err != nil {
		return h.fail(c, err)
	}
	if err := h.admin.Mint(ref, in.Type, in.ID); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusCreated)
}

func (h *Handler) handleHolds(c echo.Context) error {
	ref, err := refParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	asset, err := assetParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, heldBody{Held: h.admin.Holds(ref, asset.Type, asset.ID)})
}

func (h *Handler) handleOpenVault(c echo.Context) error {
	var in vaultBody
	if err := decode(c, &in); err != nil {
		return h.fail(c, err)
	}
	if strings.TrimSpace(in.Owner) == "" || strings.TrimSpace(in.Resource) == "" || strings.TrimSpace(in.Denomination) == "" || in.Balance.IsNegative() {
		return h.fail(c, storefront.ErrInvalidInput)
	}
	return c.JSON(http.StatusCreated, h.admin.OpenVault(in.Owner, in.Resource, in.Denomination, in.Balance))
}

func (h *Handler) handleBalance(c echo.Context) error {
	ref, err := refParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	balance, err := h.admin.Balance(ref)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, fundsBody{Amount: balance})
}

func (h *Handler) handleRevoke(c echo.Context) error {
	var in handleBody
	if err := decode(c, &in); err != nil {
		return h.fail(c, err)
	}
	if err := h.admin.Revoke(storefront.CapabilityRef{Owner: in.Owner, Resource: in.Resource}); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) fail(c echo.Context, err error) error {
	status, code := http.StatusUnprocessableEntity, codeRefused
	switch {
	case errors.Is(err, storefront.ErrAssetUnavailable):
		status, code = http.StatusConflict, codeAssetUnavailable
	case errors.Is(err, storefront.ErrInvalidInput), errors.Is(err, storefront.ErrMoved):
		status, code = http.StatusBadRequest, codeInvalidInput
	}
	h.log.WarnContext(c.Request().Context(), "Custody request refused", "path", c.Path(), "code", code, "error", err)
	return c.JSON(status, errorBody{Code: code, Error: err.Error()})
}

func refParam(c echo.Context) (storefront.CapabilityRef, error) {
	owner, err := url.PathUnescape(c.Param("owner"))
	if err != nil {
		return storefront.CapabilityRef{}, storefront.ErrInvalidInput
	}
	resource, err := url.PathUnescape(c.Param("resource"))
	if err != nil {
		return storefront.CapabilityRef{}, storefront.ErrInvalidInput
	}
	return storefront.CapabilityRef{Owner: owner, Resource: resource}, nil
}

func assetParam(c echo.Context) (assetBody, error) {
	assetType, err := url.PathUnescape(c.Param("type"))
	if err != nil {
		return assetBody{}, storefront.ErrInvalidInput
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return assetBody{}, storefront.ErrInvalidInput
	}
	return assetBody{Type: assetType, ID: id}, nil
}

func decode(c echo.Context, out any) error {
	decoder := json.NewDecoder(io.LimitReader(c.Request().Body, maxPayloadBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return storefront.ErrInvalidInput
	}
	return nil
}
