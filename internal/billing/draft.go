package billing

import (
	"encoding/json"
	"sort"

	"ruralbites/m/domain"
)

// decodeDraft parses a persisted draft payload. The current shape wraps the
// quantity mapping together with its recency order; payloads written before
// the order sequence existed stored the bare mapping, so a value without an
// "items" key is treated as the mapping itself and the order is synthesized.
// The next write persists the wrapped shape either way.
func decodeDraft(tableID int64, raw []byte) (domain.OrderDraft, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return domain.OrderDraft{}, err
	}

	draft := domain.OrderDraft{TableID: tableID, Items: map[string]int64{}}
	if _, wrapped := probe["items"]; wrapped {
		var payload struct {
			Items map[string]int64 `json:"items"`
			Order []string         `json:"order"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return domain.OrderDraft{}, err
		}
		if payload.Items != nil {
			draft.Items = payload.Items
		}
		draft.Order = payload.Order
	} else {
		var items map[string]int64
		if err := json.Unmarshal(raw, &items); err != nil {
			return domain.OrderDraft{}, err
		}
		draft.Items = items
	}

	normalizeDraft(&draft)
	return draft, nil
}

func encodeDraft(draft domain.OrderDraft) ([]byte, error) {
	return json.Marshal(draft)
}

// normalizeDraft restores the invariant that Order holds exactly the key set
// of Items: non-positive quantities are dropped, stale and duplicate order
// entries removed, and ids missing from the order appended in sorted position
// so the result is deterministic.
func normalizeDraft(draft *domain.OrderDraft) {
	for id, qty := range draft.Items {
		if qty <= 0 {
			delete(draft.Items, id)
		}
	}

	seen := make(map[string]bool, len(draft.Items))
	order := make([]string, 0, len(draft.Items))
	for _, id := range draft.Order {
		if _, ok := draft.Items[id]; !ok || seen[id] {
			continue
		}
		seen[id] = true
		order = append(order, id)
	}

	var missing []string
	for id := range draft.Items {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	draft.Order = append(order, missing...)
}

// sortedItemKeys is the synthesized display order for snapshots that never
// carried one (history entries, legacy drafts).
func sortedItemKeys(items map[string]int64) []string {
	keys := make([]string, 0, len(items))
	for id := range items {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	return keys
}

func copyItems(items map[string]int64) map[string]int64 {
	copied := make(map[string]int64, len(items))
	for id, qty := range items {
		copied[id] = qty
	}
	return copied
}
