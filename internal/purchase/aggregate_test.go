package purchase_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nmarques/backend-compras/internal/purchase"
)

func item(price string, qty int) purchase.NormalizedItem {
	return purchase.NormalizedItem{Name: "x", UnitPrice: decimal.RequireFromString(price), Quantity: qty}
}

func TestAggregateEmpty(t *testing.T) {
	totals := purchase.Aggregate(nil)
	require.Equal(t, 0, totals.ItemsCount)
	require.True(t, totals.TotalAmount.IsZero())
}

func TestAggregateLineTotalsQuantizedBeforeSumming(t *testing.T) {
	// 1.995 * 3 quantizes to 5.99 half up before entering the sum.
	totals := purchase.Aggregate([]purchase.NormalizedItem{item("1.995", 3)})
	require.Equal(t, 1, totals.ItemsCount)
	require.Equal(t, "5.99", totals.TotalAmount.StringFixed(2))
}

func TestAggregateAccumulationOrder(t *testing.T) {
	// Each line total is already 0.01 after quantization, so the order of
	// summation is observable only through the re-quantizing accumulation.
	totals := purchase.Aggregate([]purchase.NormalizedItem{
		item("0.005", 1),
		item("0.005", 1),
	})
	require.Equal(t, 2, totals.ItemsCount)
	require.Equal(t, "0.02", totals.TotalAmount.StringFixed(2))
}

func TestAggregateMixedCart(t *testing.T) {
	totals := purchase.Aggregate([]purchase.NormalizedItem{
		item("1.995", 3),
		item("0.90", 2),
		item("12.00", 1),
	})
	require.Equal(t, 3, totals.ItemsCount)
	require.Equal(t, "19.79", totals.TotalAmount.StringFixed(2))
}
