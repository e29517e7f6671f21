package domain

// OrderDraft is the live, editable selection for a table. Items maps a menu
// item id to a positive quantity; Order lists the same ids most recently
// touched first. The two always describe the same id set.
type OrderDraft struct {
	TableID int64            `json:"-"`
	Items   map[string]int64 `json:"items"`
	Order   []string         `json:"order"`
}

// Empty reports whether the draft has no billable items.
func (d OrderDraft) Empty() bool {
	return len(d.Items) == 0
}
