package billing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"ruralbites/m/domain"
	"ruralbites/m/internal/storage"
)

// Storage keys mirror the browser storage layout the floor devices used, so
// payloads carried over from it hydrate unchanged.
const (
	draftKeyPrefix = "rural-bites-table-"
	historyKey     = "rural-bites-history"
)

// Mode tags a hydrated session. Only editable sessions accept quantity
// mutations; read-only sessions replay the latest finalized bill for the
// table.
type Mode string

const (
	ModeEditable Mode = "editable"
	ModeReadOnly Mode = "read-only"
	ModeEmpty    Mode = "empty"
)

// Session is the result of hydrating a table: the items to display, their
// recency order, and for history replays the frozen discount and guest
// details.
type Session struct {
	Mode          Mode
	Items         map[string]int64
	Order         []string
	Discount      int64
	CustomerName  string
	CustomerPhone string
}

// Catalog is the read-only collaborator the engine resolves items and tables
// against.
type Catalog interface {
	Item(id string) (domain.MenuItem, bool)
	Table(id int64) (domain.Table, bool)
}

// Engine owns every mutation of the draft and history records. Nothing else
// writes to the store.
type Engine struct {
	store   storage.Store
	catalog Catalog
	now     func() time.Time
}

// NewEngine constructs an Engine over the given store and catalog.
func NewEngine(store storage.Store, catalog Catalog) *Engine {
	return &Engine{store: store, catalog: catalog, now: time.Now}
}

func draftKey(tableID int64) string {
	return draftKeyPrefix + strconv.FormatInt(tableID, 10)
}

// Hydrate resolves what a freshly opened table should display. A live draft
// wins and stays editable; with no draft, the latest finalized bill for the
// table is replayed read-only so the table does not come up blank; with
// neither, the session is empty and editable.
func (e *Engine) Hydrate(tableID int64) (Session, error) {
	if _, ok := e.catalog.Table(tableID); !ok {
		return Session{}, ErrTableNotFound
	}

	draft, ok, err := e.Draft(tableID)
	if err != nil {
		return Session{}, err
	}
	if ok {
		return Session{Mode: ModeEditable, Items: draft.Items, Order: draft.Order}, nil
	}

	entry, ok, err := e.LatestForTable(tableID)
	if err != nil {
		return Session{}, err
	}
	if ok {
		items := copyItems(entry.Items)
		return Session{
			Mode:          ModeReadOnly,
			Items:         items,
			Order:         sortedItemKeys(items),
			Discount:      entry.Discount,
			CustomerName:  entry.CustomerName,
			CustomerPhone: entry.CustomerPhone,
		}, nil
	}

	return Session{Mode: ModeEmpty, Items: map[string]int64{}, Order: []string{}}, nil
}

// AdjustQuantity applies a quantity delta to an item on a table's draft. The
// new quantity floors at zero; reaching zero removes the item from the draft
// and its recency order. Increments and first appearances move the item to
// the front of the order, everything else keeps its relative position. The
// whole draft is written back as one value. Read-only sessions are left
// untouched without an error, matching the disabled steppers on a replayed
// bill.
func (e *Engine) AdjustQuantity(tableID int64, itemID string, delta int64) error {
	if _, ok := e.catalog.Table(tableID); !ok {
		return ErrTableNotFound
	}

	draft, ok, err := e.Draft(tableID)
	if err != nil {
		return err
	}
	if !ok {
		if _, replay, err := e.LatestForTable(tableID); err != nil {
			return err
		} else if replay {
			return nil
		}
		draft = domain.OrderDraft{TableID: tableID, Items: map[string]int64{}, Order: []string{}}
	}

	next := draft.Items[itemID] + delta
	if next < 0 {
		next = 0
	}

	if next == 0 {
		delete(draft.Items, itemID)
		draft.Order = removeID(draft.Order, itemID)
	} else {
		draft.Items[itemID] = next
		inOrder := containsID(draft.Order, itemID)
		if delta > 0 {
			draft.Order = append([]string{itemID}, removeID(draft.Order, itemID)...)
		} else if !inOrder {
			draft.Order = append([]string{itemID}, draft.Order...)
		}
	}

	return e.saveDraft(draft)
}

// AddItem is the quick-add surface: a single increment without a stepper.
func (e *Engine) AddItem(tableID int64, itemID string) error {
	return e.AdjustQuantity(tableID, itemID, 1)
}

// Finalize converts the table's live draft into a permanent history entry and
// clears the draft. The history write happens first: if it fails the draft is
// left intact so the order survives, and if only the clear step fails the
// bill is already durable.
func (e *Engine) Finalize(tableID int64, discount int64, customerName, customerPhone string) (domain.BillEntry, error) {
	if _, ok := e.catalog.Table(tableID); !ok {
		return domain.BillEntry{}, ErrTableNotFound
	}

	draft, ok, err := e.Draft(tableID)
	if err != nil {
		return domain.BillEntry{}, err
	}
	if !ok || draft.Empty() {
		return domain.BillEntry{}, ErrEmptyCheckout
	}

	totals := ComputeTotals(draft.Items, e.catalog, discount)
	entry := domain.BillEntry{
		TableID:       tableID,
		Items:         copyItems(draft.Items),
		Totals:        totals,
		Discount:      totals.DiscountApplied,
		Timestamp:     e.now().UnixMilli(),
		CustomerName:  customerName,
		CustomerPhone: customerPhone,
	}

	history, err := e.History()
	if err != nil {
		return domain.BillEntry{}, err
	}
	history = append([]domain.BillEntry{entry}, history...)
	payload, err := json.Marshal(history)
	if err != nil {
		return domain.BillEntry{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := e.store.Set(historyKey, payload); err != nil {
		return domain.BillEntry{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if err := e.store.Delete(draftKey(tableID)); err != nil {
		// The bill is durable; only the stale draft lingers.
		return entry, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return entry, nil
}

// Draft reads and normalizes the live draft for a table, reporting whether
// one exists.
func (e *Engine) Draft(tableID int64) (domain.OrderDraft, bool, error) {
	raw, ok, err := e.store.Get(draftKey(tableID))
	if err != nil {
		return domain.OrderDraft{}, false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !ok {
		return domain.OrderDraft{}, false, nil
	}
	draft, err := decodeDraft(tableID, raw)
	if err != nil {
		return domain.OrderDraft{}, false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return draft, true, nil
}

// History returns every finalized bill, newest first.
func (e *Engine) History() ([]domain.BillEntry, error) {
	raw, ok, err := e.store.Get(historyKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !ok {
		return nil, nil
	}
	var history []domain.BillEntry
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return history, nil
}

// LatestForTable scans history front to back for the most recent bill of the
// given table.
func (e *Engine) LatestForTable(tableID int64) (domain.BillEntry, bool, error) {
	history, err := e.History()
	if err != nil {
		return domain.BillEntry{}, false, err
	}
	for _, entry := range history {
		if entry.TableID == tableID {
			return entry, true, nil
		}
	}
	return domain.BillEntry{}, false, nil
}

func (e *Engine) saveDraft(draft domain.OrderDraft) error {
	payload, err := encodeDraft(draft)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := e.store.Set(draftKey(draft.TableID), payload); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

func removeID(order []string, itemID string) []string {
	filtered := make([]string, 0, len(order))
	for _, id := range order {
		if id != itemID {
			filtered = append(filtered, id)
		}
	}
	return filtered
}

func containsID(order []string, itemID string) bool {
	for _, id := range order {
		if id == itemID {
			return true
		}
	}
	return false
}
