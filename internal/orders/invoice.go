package orders

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/joao-fontenele/fulfillment/internal/inventory"
)

// DefaultTaxBasisPoints is 5%.
const DefaultTaxBasisPoints = 500

const basisPointsPerUnit = 10000

type PriceLookup interface {
	Price(categoryID string) (int64, error)
}

type TaxPolicy interface {
	Tax(itemTotal int64) (int64, error)
}

// FlatRate taxes the item total at BasisPoints/10000, rounding half up.
type FlatRate struct {
	BasisPoints int64
}

func (f FlatRate) Tax(itemTotal int64) (int64, error) {
	if itemTotal < 0 || f.BasisPoints < 0 {
		return 0, fmt.Errorf("tax %d at %d bps: negative input", itemTotal, f.BasisPoints)
	}

	hi, lo := bits.Mul64(uint64(itemTotal), uint64(f.BasisPoints))
	lo, carry := bits.Add64(lo, basisPointsPerUnit/2, 0)
	hi += carry
	if hi >= basisPointsPerUnit {
		return 0, fmt.Errorf("tax %d at %d bps: %w", itemTotal, f.BasisPoints, ErrInvoiceOverflow)
	}

	tax, _ := bits.Div64(hi, lo, basisPointsPerUnit)
	if tax > math.MaxInt64 {
		return 0, fmt.Errorf("tax %d at %d bps: %w", itemTotal, f.BasisPoints, ErrInvoiceOverflow)
	}
	return int64(tax), nil
}

type Invoice struct {
	TotalItemPrice  int64 `json:"total_item_price"`
	TotalTax        int64 `json:"total_tax"`
	TotalFinalPrice int64 `json:"total_final_price"`
}

// Generate prices lines at the current prices. The invoice is only
// overwritten when every line could be priced and every total fits in int64.
func (inv *Invoice) Generate(lines map[string]int, prices PriceLookup, tax TaxPolicy) error {
	var itemTotal int64
	for categoryID, quantity := range lines {
		price, err := prices.Price(categoryID)
		if err != nil {
			return err
		}
		if quantity <= 0 {
			return fmt.Errorf("price %d of %s: %w", quantity, categoryID, inventory.ErrInvalidQuantity)
		}
		if price < 0 {
			return fmt.Errorf("price %s at %d: %w", categoryID, price, inventory.ErrInvalidPrice)
		}

		lineTotal, ok := mulNonNegative(price, int64(quantity))
		if !ok {
			return fmt.Errorf("%d of %s at %d: %w", quantity, categoryID, price, ErrInvoiceOverflow)
		}
		if itemTotal, ok = addNonNegative(itemTotal, lineTotal); !ok {
			return fmt.Errorf("item total: %w", ErrInvoiceOverflow)
		}
	}

	taxTotal, err := tax.Tax(itemTotal)
	if err != nil {
		return err
	}
	finalTotal, ok := addNonNegative(itemTotal, taxTotal)
	if !ok {
		return fmt.Errorf("final total: %w", ErrInvoiceOverflow)
	}

	*inv = Invoice{
		TotalItemPrice:  itemTotal,
		TotalTax:        taxTotal,
		TotalFinalPrice: finalTotal,
	}
	return nil
}

func mulNonNegative(a, b int64) (int64, bool) {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi != 0 || lo > math.MaxInt64 {
		return 0, false
	}
	return int64(lo), true
}

func addNonNegative(a, b int64) (int64, bool) {
	if b > math.MaxInt64-a {
		return 0, false
	}
	return a + b, true
}
