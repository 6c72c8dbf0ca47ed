// Package custodyhttp speaks the custody wire protocol: a client implementing
// ports.Custody against a remote custody service, and a handler exposing any
// ports.Custody backend over the same protocol.
package custodyhttp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fr0stylo/storefront/internal/app/ports"
)

const (
	// SignatureHeader carries the hex HMAC-SHA256 of the canonical request.
	SignatureHeader = "X-Custody-Signature"
	// AuthorizationHeader contains the bearer token.
	AuthorizationHeader = "Authorization"
	// BearerPrefix prefixes the auth token.
	BearerPrefix = "Bearer "
	// BasePath prefixes every custody route.
	BasePath        = "/custody/v1"
	maxPayloadBytes = 1 << 20
)

const (
	codeAssetUnavailable = "asset_unavailable"
	codeInvalidInput     = "invalid_input"
	codeRefused          = "refused"
	codeUnauthorized     = "unauthorized"
	codeInternal         = "internal"
)

var (
	// ErrRefused indicates the custody service rejected the operation.
	ErrRefused = errors.New("custody: operation refused")
	// ErrUnavailable indicates the custody service could not be reached or failed.
	ErrUnavailable = ports.ErrCustodyUnavailable
)

type assetBody struct {
	Type string `json:"type"`
	ID   uint64 `json:"id"`
}

type fundsBody struct {
	Denomination string          `json:"denomination"`
	Amount       decimal.Decimal `json:"amount"`
}

type probeBody struct {
	Available bool `json:"available"`
}

type handleBody struct {
	Owner    string `json:"owner"`
	Resource string `json:"resource"`
}

type vaultBody struct {
	Owner        string          `json:"owner"`
	Resource     string          `json:"resource"`
	Denomination string          `json:"denomination"`
	Balance      decimal.Decimal `json:"balance"`
}

type heldBody struct {
	Held bool `json:"held"`
}

type errorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// Sign returns the hex HMAC-SHA256 over method, request URI and body.
func Sign(secret, method, requestURI string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.ToUpper(method)))
	mac.Write([]byte("\n"))
	mac.Write([]byte(requestURI))
	mac.Write([]byte("\n"))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func validSignature(secret, method, requestURI string, body []byte, signature string) bool {
	signature = strings.ToLower(strings.TrimSpace(signature))
	if signature == "" {
		return false
	}
	expected := Sign(secret, method, requestURI, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
