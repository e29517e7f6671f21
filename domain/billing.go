package domain

type Totals struct {
	Subtotal        int64 `json:"subtotal"`
	Tax             int64 `json:"tax"`
	DiscountApplied int64 `json:"discountApplied"`
	GrandTotal      int64 `json:"grandTotal"`
}

// BillEntry is one finalized checkout. Entries are immutable once written;
// the history record keeps them newest first.
type BillEntry struct {
	TableID       int64            `json:"tableId"`
	Items         map[string]int64 `json:"items"`
	Totals        Totals           `json:"totals"`
	Discount      int64            `json:"discount"`
	Timestamp     int64            `json:"timestamp"`
	CustomerName  string           `json:"customerName,omitempty"`
	CustomerPhone string           `json:"customerPhone,omitempty"`
}
