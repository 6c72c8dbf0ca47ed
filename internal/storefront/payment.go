package storefront

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Payment is a move-only quantity of funds in one denomination.
type Payment struct {
	denomination string
	balance      decimal.Decimal
	moved        bool
}

// NewPayment creates a payment. Only custody implementations should call it.
func NewPayment(denomination string, amount decimal.Decimal) (*Payment, error) {
	denomination = strings.TrimSpace(denomination)
	if denomination == "" {
		return nil, fmt.Errorf("%w: payment denomination is required", ErrInvalidInput)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: payment amount %s is negative", ErrInvalidInput, amount)
	}
	return &Payment{denomination: denomination, balance: amount}, nil
}

// Denomination returns the payment currency/token identifier.
func (p *Payment) Denomination() string { return p.denomination }

// Balance returns the funds still held by this handle.
func (p *Payment) Balance() decimal.Decimal {
	if !p.Live() {
		return decimal.Zero
	}
	return p.balance
}

// Live reports whether this handle still holds its funds.
func (p *Payment) Live() bool { return p != nil && !p.moved }

// Split carves amount out of the payment into a new handle.
func (p *Payment) Split(amount decimal.Decimal) (*Payment, error) {
	if !p.Live() {
		return nil, ErrMoved
	}
	if amount.IsNegative() || amount.GreaterThan(p.balance) {
		return nil, fmt.Errorf("%w: cannot split %s from %s", ErrInvalidInput, amount, p.balance)
	}
	p.balance = p.balance.Sub(amount)
	return &Payment{denomination: p.denomination, balance: amount}, nil
}

// Take moves the whole balance to a fresh handle and invalidates this one.
// Sinks call it to claim a deposit.
func (p *Payment) Take() (*Payment, error) {
	if !p.Live() {
		return nil, ErrMoved
	}
	p.moved = true
	return &Payment{denomination: p.denomination, balance: p.balance}, nil
}

// absorb folds part back into p and retires part.
func (p *Payment) absorb(part *Payment) {
	if !p.Live() || !part.Live() || part.denomination != p.denomination {
		return
	}
	p.balance = p.balance.Add(part.balance)
	part.moved = true
}

// close retires an emptied payment handle.
func (p *Payment) close() error {
	if !p.Live() {
		return nil
	}
	if !p.balance.IsZero() {
		return fmt.Errorf("%w: %s %s left unrouted", ErrPaymentUndeliverable, p.balance, p.denomination)
	}
	p.moved = true
	return nil
}

func (p *Payment) String() string {
	if p == nil {
		return "<nil payment>"
	}
	return p.balance.String() + " " + p.denomination
}
