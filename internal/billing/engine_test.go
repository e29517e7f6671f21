package billing

import (
	"encoding/json"
	"errors"
	"reflect"
	"sort"
	"testing"

	"ruralbites/m/domain"
	"ruralbites/m/internal/storage"
)

func testCatalog() fakeCatalog {
	return fakeCatalog{
		prices: map[string]int64{
			"butter-chicken": 360,
			"makki-roti":     90,
			"buttermilk":     120,
		},
		tables: map[int64]string{3: "Table 3", 5: "Table 5", 7: "Table 7"},
	}
}

func newTestEngine(t *testing.T) (*Engine, *storage.Memory) {
	t.Helper()
	store := storage.NewMemory()
	return NewEngine(store, testCatalog()), store
}

func seedHistory(t *testing.T, store *storage.Memory, entries []domain.BillEntry) {
	t.Helper()
	payload, err := json.Marshal(entries)
	if err != nil {
		t.Fatalf("unable to seed history: %v", err)
	}
	if err := store.Set(historyKey, payload); err != nil {
		t.Fatalf("unable to seed history: %v", err)
	}
}

func assertOrderMatchesItems(t *testing.T, items map[string]int64, order []string) {
	t.Helper()
	if len(order) != len(items) {
		t.Fatalf("order %v does not cover item set %v", order, items)
	}
	seen := map[string]bool{}
	for _, id := range order {
		if seen[id] {
			t.Fatalf("duplicate id %q in order %v", id, order)
		}
		seen[id] = true
		if _, ok := items[id]; !ok {
			t.Fatalf("order holds %q which is not in items %v", id, items)
		}
	}
}

func TestHydrateUnknownTable(t *testing.T) {
	engine, _ := newTestEngine(t)

	if _, err := engine.Hydrate(99); !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}
}

func TestHydrateEmptyTable(t *testing.T) {
	engine, _ := newTestEngine(t)

	session, err := engine.Hydrate(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Mode != ModeEmpty {
		t.Fatalf("expected empty mode, got %q", session.Mode)
	}
	if len(session.Items) != 0 || len(session.Order) != 0 {
		t.Fatalf("empty session carries state: %+v", session)
	}
}

func TestIncrementMovesItemToFront(t *testing.T) {
	engine, _ := newTestEngine(t)

	for _, id := range []string{"makki-roti", "buttermilk", "butter-chicken"} {
		if err := engine.AddItem(5, id); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}
	// Touch the oldest item again; it must surface first.
	if err := engine.AdjustQuantity(5, "makki-roti", 1); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	session, err := engine.Hydrate(5)
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	want := []string{"makki-roti", "butter-chicken", "buttermilk"}
	if !reflect.DeepEqual(session.Order, want) {
		t.Fatalf("expected order %v, got %v", want, session.Order)
	}
	assertOrderMatchesItems(t, session.Items, session.Order)
}

func TestDecrementPreservesPosition(t *testing.T) {
	engine, _ := newTestEngine(t)

	if err := engine.AdjustQuantity(5, "makki-roti", 2); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if err := engine.AddItem(5, "buttermilk"); err != nil {
		t.Fatalf("add: %v", err)
	}
	// order is now [buttermilk, makki-roti]; a correction must not resurface
	// makki-roti.
	if err := engine.AdjustQuantity(5, "makki-roti", -1); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	session, err := engine.Hydrate(5)
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	want := []string{"buttermilk", "makki-roti"}
	if !reflect.DeepEqual(session.Order, want) {
		t.Fatalf("expected order %v, got %v", want, session.Order)
	}
	if session.Items["makki-roti"] != 1 {
		t.Fatalf("expected quantity 1 after correction, got %d", session.Items["makki-roti"])
	}
}

func TestZeroQuantityRemovesItem(t *testing.T) {
	engine, _ := newTestEngine(t)

	if err := engine.AddItem(5, "buttermilk"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := engine.AdjustQuantity(5, "buttermilk", -1); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	session, err := engine.Hydrate(5)
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if _, ok := session.Items["buttermilk"]; ok {
		t.Fatalf("item survived reaching zero: %v", session.Items)
	}
	for _, id := range session.Order {
		if id == "buttermilk" {
			t.Fatalf("removed item still in order %v", session.Order)
		}
	}
}

func TestQuantityFloorsAtZero(t *testing.T) {
	engine, _ := newTestEngine(t)

	if err := engine.AddItem(5, "buttermilk"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := engine.AdjustQuantity(5, "buttermilk", -5); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	session, err := engine.Hydrate(5)
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if len(session.Items) != 0 {
		t.Fatalf("expected empty draft, got %v", session.Items)
	}
}

func TestRecencyInvariantUnderMixedAdjustments(t *testing.T) {
	engine, _ := newTestEngine(t)

	steps := []struct {
		item  string
		delta int64
	}{
		{"makki-roti", 2},
		{"buttermilk", 1},
		{"makki-roti", -1},
		{"butter-chicken", 3},
		{"buttermilk", -1},
		{"butter-chicken", 1},
		{"makki-roti", -1},
	}
	for _, step := range steps {
		if err := engine.AdjustQuantity(5, step.item, step.delta); err != nil {
			t.Fatalf("adjust %s %+d: %v", step.item, step.delta, err)
		}
		session, err := engine.Hydrate(5)
		if err != nil {
			t.Fatalf("hydrate: %v", err)
		}
		assertOrderMatchesItems(t, session.Items, session.Order)
		for id, qty := range session.Items {
			if qty <= 0 {
				t.Fatalf("non-positive quantity persisted for %q: %d", id, qty)
			}
		}
	}
}

func TestHistoryFallbackPrecedence(t *testing.T) {
	engine, store := newTestEngine(t)
	seedHistory(t, store, []domain.BillEntry{
		{TableID: 3, Items: map[string]int64{"butter-chicken": 1}, Timestamp: 200, Discount: 40, CustomerName: "Asha"},
		{TableID: 3, Items: map[string]int64{"makki-roti": 4}, Timestamp: 100},
	})

	session, err := engine.Hydrate(3)
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if session.Mode != ModeReadOnly {
		t.Fatalf("expected read-only mode, got %q", session.Mode)
	}
	if session.Items["butter-chicken"] != 1 {
		t.Fatalf("expected the most recent entry's items, got %v", session.Items)
	}
	if session.Discount != 40 || session.CustomerName != "Asha" {
		t.Fatalf("guest details not pre-filled: %+v", session)
	}
}

func TestDraftWinsOverHistory(t *testing.T) {
	engine, store := newTestEngine(t)
	seedHistory(t, store, []domain.BillEntry{
		{TableID: 5, Items: map[string]int64{"butter-chicken": 9}, Timestamp: 100},
	})
	// With a history entry and no draft, the session is read-only; the add
	// must be a silent no-op rather than a new draft.
	if err := engine.AddItem(5, "buttermilk"); err != nil {
		t.Fatalf("read-only adjustment errored: %v", err)
	}
	if _, ok, _ := engine.Draft(5); ok {
		t.Fatalf("read-only adjustment created a draft")
	}

	// A draft written directly (carried over from another device) takes
	// precedence over history.
	if err := store.Set(draftKey(5), []byte(`{"items":{"makki-roti":2},"order":["makki-roti"]}`)); err != nil {
		t.Fatalf("seed draft: %v", err)
	}
	session, err := engine.Hydrate(5)
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if session.Mode != ModeEditable {
		t.Fatalf("expected editable mode with a live draft, got %q", session.Mode)
	}
	if session.Items["makki-roti"] != 2 {
		t.Fatalf("expected draft items, got %v", session.Items)
	}
}

func TestCheckoutDurability(t *testing.T) {
	engine, store := newTestEngine(t)
	if err := engine.AdjustQuantity(5, "butter-chicken", 2); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	entry, err := engine.Finalize(5, 0, "", "")
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if entry.Totals.Subtotal != 720 || entry.Totals.Tax != 36 || entry.Totals.GrandTotal != 756 {
		t.Fatalf("unexpected totals: %+v", entry.Totals)
	}
	if entry.Timestamp == 0 {
		t.Fatalf("entry is missing a timestamp")
	}

	if _, ok, _ := store.Get(draftKey(5)); ok {
		t.Fatalf("draft survived checkout")
	}
	history, err := engine.History()
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].TableID != 5 {
		t.Fatalf("expected one history entry for table 5, got %+v", history)
	}
	if history[0].Totals.GrandTotal != 756 {
		t.Fatalf("persisted totals mismatch: %+v", history[0].Totals)
	}
}

func TestCheckoutPrependsNewestFirst(t *testing.T) {
	engine, _ := newTestEngine(t)

	if err := engine.AddItem(5, "makki-roti"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := engine.Finalize(5, 0, "", ""); err != nil {
		t.Fatalf("first finalize: %v", err)
	}
	if err := engine.AddItem(3, "buttermilk"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := engine.Finalize(3, 0, "", ""); err != nil {
		t.Fatalf("second finalize: %v", err)
	}

	history, err := engine.History()
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].TableID != 3 || history[1].TableID != 5 {
		t.Fatalf("history is not newest first: %+v", history)
	}
}

func TestEmptyCheckoutRejected(t *testing.T) {
	engine, _ := newTestEngine(t)

	if _, err := engine.Finalize(7, 0, "", ""); !errors.Is(err, ErrEmptyCheckout) {
		t.Fatalf("expected ErrEmptyCheckout, got %v", err)
	}
	history, err := engine.History()
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("rejected checkout mutated history: %+v", history)
	}
}

func TestFailedHistoryWriteKeepsDraft(t *testing.T) {
	engine, store := newTestEngine(t)
	if err := engine.AddItem(5, "butter-chicken"); err != nil {
		t.Fatalf("add: %v", err)
	}

	store.FailSet = errors.New("disk full")
	if _, err := engine.Finalize(5, 0, "", ""); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	store.FailSet = nil

	draft, ok, err := engine.Draft(5)
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	if !ok || draft.Items["butter-chicken"] != 1 {
		t.Fatalf("draft lost after failed history write: %+v ok=%v", draft, ok)
	}
	if history, _ := engine.History(); len(history) != 0 {
		t.Fatalf("failed write left partial history: %+v", history)
	}
}

func TestFinalizeRecomputesDiscountedTotals(t *testing.T) {
	engine, _ := newTestEngine(t)
	if err := engine.AdjustQuantity(5, "butter-chicken", 2); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	entry, err := engine.Finalize(5, 1000, "Ravi", "9812345678")
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if entry.Totals.DiscountApplied != 720 {
		t.Fatalf("discount not clamped to subtotal: %+v", entry.Totals)
	}
	if entry.Discount != 720 {
		t.Fatalf("entry discount should store the applied amount, got %d", entry.Discount)
	}
	if entry.CustomerName != "Ravi" || entry.CustomerPhone != "9812345678" {
		t.Fatalf("guest details dropped: %+v", entry)
	}
}

func TestLegacyDraftShapeMigration(t *testing.T) {
	engine, store := newTestEngine(t)
	if err := store.Set(draftKey(5), []byte(`{"butter-chicken":2}`)); err != nil {
		t.Fatalf("seed legacy draft: %v", err)
	}

	session, err := engine.Hydrate(5)
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if session.Mode != ModeEditable {
		t.Fatalf("legacy draft should stay editable, got %q", session.Mode)
	}
	if session.Items["butter-chicken"] != 2 {
		t.Fatalf("legacy items lost: %v", session.Items)
	}
	if !reflect.DeepEqual(session.Order, []string{"butter-chicken"}) {
		t.Fatalf("expected synthesized order, got %v", session.Order)
	}

	// The next write must persist the wrapped shape.
	if err := engine.AdjustQuantity(5, "butter-chicken", 1); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	raw, ok, err := store.Get(draftKey(5))
	if err != nil || !ok {
		t.Fatalf("draft missing after write: ok=%v err=%v", ok, err)
	}
	var wrapped struct {
		Items map[string]int64 `json:"items"`
		Order []string         `json:"order"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		t.Fatalf("unable to parse persisted draft: %v", err)
	}
	if wrapped.Items == nil || wrapped.Order == nil {
		t.Fatalf("draft not upgraded to wrapped shape: %s", raw)
	}
	if wrapped.Items["butter-chicken"] != 3 {
		t.Fatalf("expected quantity 3 after increment, got %v", wrapped.Items)
	}
}

func TestLegacyMultiItemDraftOrderIsDeterministic(t *testing.T) {
	engine, store := newTestEngine(t)
	if err := store.Set(draftKey(5), []byte(`{"makki-roti":1,"butter-chicken":2,"buttermilk":3}`)); err != nil {
		t.Fatalf("seed legacy draft: %v", err)
	}

	session, err := engine.Hydrate(5)
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if !sort.StringsAreSorted(session.Order) {
		t.Fatalf("synthesized order should be sorted, got %v", session.Order)
	}
	assertOrderMatchesItems(t, session.Items, session.Order)
}
