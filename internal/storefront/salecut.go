package storefront

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SaleCut is one payee's share of a sale.
type SaleCut struct {
	Receiver CapabilityRef   `json:"receiver"`
	Amount   decimal.Decimal `json:"amount"`
}

// validateCuts checks a payout split and returns its total, which becomes the
// listing price. Zero amounts and repeated receivers are rejected.
func validateCuts(cuts []SaleCut) (decimal.Decimal, error) {
	if len(cuts) == 0 {
		return decimal.Zero, fmt.Errorf("%w: at least one sale cut is required", ErrInvalidInput)
	}
	seen := make(map[CapabilityRef]int, len(cuts))
	total := decimal.Zero
	for i, cut := range cuts {
		receiver := cut.Receiver.Normalize()
		if !receiver.Valid() {
			return decimal.Zero, fmt.Errorf("%w: sale cut %d has no receiver", ErrInvalidInput, i)
		}
		if cut.Amount.Sign() <= 0 {
			return decimal.Zero, fmt.Errorf("%w: sale cut %d amount must be positive, got %s", ErrInvalidInput, i, cut.Amount)
		}
		if prev, dup := seen[receiver]; dup {
			return decimal.Zero, fmt.Errorf("%w: sale cuts %d and %d share receiver %s", ErrInvalidInput, prev, i, receiver)
		}
		seen[receiver] = i
		total = total.Add(cut.Amount)
	}
	return total, nil
}

func copyCuts(cuts []SaleCut) []SaleCut {
	out := make([]SaleCut, len(cuts))
	for i, cut := range cuts {
		out[i] = SaleCut{Receiver: cut.Receiver.Normalize(), Amount: cut.Amount}
	}
	return out
}
