package billing

import "ruralbites/m/domain"

// taxRatePercent is the flat service-and-tax rate applied to every bill.
const taxRatePercent = 5

// PriceLookup resolves menu item prices. Ids the catalog does not know
// contribute nothing to a bill, so a stale id in an old draft degrades the
// total instead of corrupting it.
type PriceLookup interface {
	Item(id string) (domain.MenuItem, bool)
}

// ComputeTotals derives bill totals from an items mapping and catalog prices.
// Amounts are whole rupees; the tax is rounded half up and the requested
// discount is clamped to [0, subtotal]. The function is pure, so identical
// inputs always produce identical totals.
func ComputeTotals(items map[string]int64, prices PriceLookup, discount int64) domain.Totals {
	var subtotal int64
	for id, qty := range items {
		item, ok := prices.Item(id)
		if !ok {
			continue
		}
		subtotal += item.Price * qty
	}

	tax := (subtotal*taxRatePercent + 50) / 100

	applied := discount
	if applied < 0 {
		applied = 0
	}
	if applied > subtotal {
		applied = subtotal
	}

	return domain.Totals{
		Subtotal:        subtotal,
		Tax:             tax,
		DiscountApplied: applied,
		GrandTotal:      subtotal + tax - applied,
	}
}
