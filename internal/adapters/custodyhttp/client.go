package custodyhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fr0stylo/storefront/internal/app/ports"
	"github.com/fr0stylo/storefront/internal/storefront"
)

// Client resolves capability handles against a remote custody service.
type Client struct {
	baseURL    string
	token      string
	secret     string
	httpClient *http.Client
}

// NewClient constructs a custody client. A nil httpClient gets a 10s timeout.
func NewClient(baseURL, token, secret string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:      strings.TrimSpace(token),
		secret:     strings.TrimSpace(secret),
		httpClient: httpClient,
	}
}

// RemoteError is a non-2xx custody response.
type RemoteError struct {
	Status  int
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("custody %d %s: %s", e.Status, e.Code, e.Message)
}

func (e *RemoteError) Unwrap() error {
	switch {
	case e.Code == codeAssetUnavailable:
		return storefront.ErrAssetUnavailable
	case e.Code == codeInvalidInput:
		return storefront.ErrInvalidInput
	case e.Status >= 500:
		return ErrUnavailable
	default:
		return ErrRefused
	}
}

func collectionPath(ref storefront.CapabilityRef) string {
	ref = ref.Normalize()
	return BasePath + "/collections/" + url.PathEscape(ref.Owner) + "/" + url.PathEscape(ref.Resource)
}

func vaultPath(ref storefront.CapabilityRef) string {
	ref = ref.Normalize()
	return BasePath + "/vaults/" + url.PathEscape(ref.Owner) + "/" + url.PathEscape(ref.Resource)
}

// AssetSource resolves a collection handle.
func (c *Client) AssetSource(ctx context.Context, ref storefront.CapabilityRef) (storefront.AssetSource, error) {
	if !ref.Valid() {
		return nil, fmt.Errorf("%w: empty collection handle", storefront.ErrAssetUnavailable)
	}
	if err := c.do(ctx, http.MethodGet, collectionPath(ref), nil, nil); err != nil {
		return nil, err
	}
	return remoteSource{c: c, ref: ref}, nil
}

// PaymentSink resolves a vault handle.
func (c *Client) PaymentSink(ctx context.Context, ref storefront.CapabilityRef) (storefront.PaymentSink, error) {
	if !ref.Valid() {
		return nil, fmt.Errorf("%w: empty vault handle", ErrRefused)
	}
	if err := c.do(ctx, http.MethodGet, vaultPath(ref), nil, nil); err != nil {
		return nil, err
	}
	return remoteSink{c: c, ref: ref}, nil
}

// WithdrawPayment debits a vault and returns the funds as a payment handle.
func (c *Client) WithdrawPayment(ctx context.Context, from storefront.CapabilityRef, denomination string, amount decimal.Decimal) (*storefront.Payment, error) {
	var out fundsBody
	in := fundsBody{Denomination: strings.TrimSpace(denomination), Amount: amount}
	if err := c.do(ctx, http.MethodPost, vaultPath(from)+"/withdrawals", in, &out); err != nil {
		return nil, err
	}
	if out.Denomination != in.Denomination || !out.Amount.Equal(amount) {
		return nil, fmt.Errorf("%w: custody returned %s %s for %s %s", ErrUnavailable, out.Amount, out.Denomination, amount, in.Denomination)
	}
	return storefront.NewPayment(out.Denomination, out.Amount)
}

// DepositAsset hands an asset to a collection. The handle is moved on success.
func (c *Client) DepositAsset(ctx context.Context, to storefront.CapabilityRef, asset *storefront.Asset) error {
	if !asset.Live() {
		return storefront.ErrMoved
	}
	if err := c.do(ctx, http.MethodPost, collectionPath(to)+"/deposits", assetBody{Type: asset.Type(), ID: asset.ID()}, nil); err != nil {
		return err
	}
	_, err := asset.Move()
	return err
}

type remoteSource struct {
	c   *Client
	ref storefront.CapabilityRef
}

func (s remoteSource) Probe(ctx context.Context, assetType string, assetID uint64) (bool, error) {
	var out probeBody
	path := collectionPath(s.ref) + "/assets/" + url.PathEscape(assetType) + "/" + strconv.FormatUint(assetID, 10)
	if err := s.c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return false, err
	}
	return out.Available, nil
}

func (s remoteSource) Withdraw(ctx context.Context, assetType string, assetID uint64) (*storefront.Asset, error) {
	var out assetBody
	if err := s.c.do(ctx, http.MethodPost, collectionPath(s.ref)+"/withdrawals", assetBody{Type: assetType, ID: assetID}, &out); err != nil {
		return nil, err
	}
	if out.Type != assetType || out.ID != assetID {
		return nil, fmt.Errorf("%w: custody returned %s#%d", ErrUnavailable, out.Type, out.ID)
	}
	return storefront.NewAsset(out.Type, out.ID), nil
}

type remoteSink struct {
	c   *Client
	ref storefront.CapabilityRef
}

// Deposit moves the payment only after the custody service acknowledged it.
func (s remoteSink) Deposit(ctx context.Context, payment *storefront.Payment) error {
	if !payment.Live() {
		return storefront.ErrMoved
	}
	in := fundsBody{Denomination: payment.Denomination(), Amount: payment.Balance()}
	if err := s.c.do(ctx, http.MethodPost, vaultPath(s.ref)+"/deposits", in, nil); err != nil {
		return err
	}
	_, err := payment.Take()
	return err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = raw
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(AuthorizationHeader, BearerPrefix+c.token)
	}
	if c.secret != "" {
		req.Header.Set(SignatureHeader, Sign(c.secret, method, req.URL.RequestURI(), body))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
		var parsed errorBody
		if json.Unmarshal(payload, &parsed) != nil || parsed.Code == "" {
			parsed = errorBody{Code: codeInternal, Error: strings.TrimSpace(string(payload))}
		}
		return &RemoteError{Status: resp.StatusCode, Code: parsed.Code, Message: parsed.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPayloadBytes)).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}

var _ ports.Custody = (*Client)(nil)
