package purchase

import (
	"github.com/shopspring/decimal"

	"github.com/nmarques/backend-compras/internal/money"
)

// Totals carries the derived fields of a purchase snapshot.
type Totals struct {
	ItemsCount  int
	TotalAmount decimal.Decimal
}

// Aggregate computes the item count and the total over normalized items.
// Each line total is quantized before it enters the running sum, and the
// sum re-quantizes after every addition, so the result is deterministic
// for a given item order.
func Aggregate(items []NormalizedItem) Totals {
	lineTotals := make([]decimal.Decimal, 0, len(items))
	for _, it := range items {
		lineTotals = append(lineTotals, money.LineTotal(it.UnitPrice, it.Quantity))
	}
	return Totals{
		ItemsCount:  len(items),
		TotalAmount: money.Sum(lineTotals),
	}
}
