// Package shop implements the shopping-list state manager: it owns the
// category list, the in-progress cart and the trip history, validates
// mutations, computes totals through the pricing package, and persists
// every change through an injected key/value adapter.
package shop

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyho/tally/internal/model"
	"github.com/tallyho/tally/internal/pricing"
	"github.com/tallyho/tally/internal/storage"
)

// State is the snapshot published to subscribers after each change. The
// slices are copies; observers can hold them without racing the store.
type State struct {
	Categories []model.Category
	Cart       []model.LineItem
	History    []model.CompletedList
}

// Store is the shopping-list engine. Operations are serialized by an
// internal mutex so a concurrent presentation layer always observes a
// consistent snapshot.
//
// Persistence failures do not roll back in-memory state: memory stays the
// authoritative value, the error is surfaced to the caller, and every
// later mutation rewrites all collections so a transient failure heals on
// the next successful save.
type Store struct {
	kv          storage.KV
	subscribers map[int]func(State)
	now         func() time.Time
	newID       func() string
	categories  []model.Category
	cart        []model.LineItem
	history     []model.CompletedList
	nextSub     int
	mu          sync.Mutex
}

// New loads all collections from kv. When no categories have ever been
// persisted the defaults are seeded and written back immediately.
func New(ctx context.Context, kv storage.KV) (*Store, error) {
	s := &Store{
		kv:          kv,
		subscribers: make(map[int]func(State)),
		now:         time.Now,
		newID:       uuid.NewString,
	}

	if _, err := kv.Load(ctx, storage.KeyCategories, &s.categories); err != nil {
		return nil, err
	}
	if _, err := kv.Load(ctx, storage.KeyCurrentItems, &s.cart); err != nil {
		return nil, err
	}
	if _, err := kv.Load(ctx, storage.KeyHistory, &s.history); err != nil {
		return nil, err
	}

	if len(s.categories) == 0 {
		s.categories = DefaultCategories()
		if err := kv.Save(ctx, storage.KeyCategories, s.categories); err != nil {
			return nil, err
		}
		slog.Info("seeded default categories", "count", len(s.categories))
	}

	return s, nil
}

// Subscribe registers fn to be called with the new state after every
// change. The returned function cancels the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// AddItem validates the input, appends a new uncompleted line item to the
// cart and persists. The created item is returned even when the save
// fails, since memory remains authoritative.
func (s *Store) AddItem(ctx context.Context, name string, unitPrice decimal.Decimal, quantity int, categoryID string) (model.LineItem, error) {
	if strings.TrimSpace(name) == "" {
		return model.LineItem{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if unitPrice.IsNegative() {
		return model.LineItem{}, &ValidationError{Field: "unitPrice", Reason: "must not be negative"}
	}
	if quantity < 1 {
		return model.LineItem{}, &ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}

	s.mu.Lock()
	item := model.LineItem{
		ID:         s.newID(),
		Name:       name,
		CategoryID: categoryID,
		UnitPrice:  unitPrice,
		Quantity:   quantity,
		Completed:  false,
	}
	s.cart = append(s.cart, item)
	err := s.persistLocked(ctx)
	notify := s.publishLocked()
	s.mu.Unlock()

	notify()
	slog.Debug("added item", "id", item.ID, "name", item.Name, "quantity", item.Quantity)
	return item, err
}

// ToggleItem flips the completed flag on the matching cart entry. An
// unknown id is a no-op, not an error: nothing changes and nothing is
// persisted.
func (s *Store) ToggleItem(ctx context.Context, itemID string) error {
	s.mu.Lock()
	idx := -1
	for i := range s.cart {
		if s.cart[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}

	s.cart[idx].Completed = !s.cart[idx].Completed
	err := s.persistLocked(ctx)
	notify := s.publishLocked()
	s.mu.Unlock()

	notify()
	return err
}

// DeleteItems removes cart entries whose id is in ids and whose category
// matches categoryID. Scoping the deletion to one category mirrors the
// grouped cart view: an id listed under a different category is untouched.
func (s *Store) DeleteItems(ctx context.Context, ids []string, categoryID string) error {
	idSet := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}

	s.mu.Lock()
	kept := s.cart[:0]
	removed := 0
	for _, item := range s.cart {
		_, listed := idSet[item.ID]
		if listed && item.CategoryID == categoryID {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	if removed == 0 {
		s.cart = kept
		s.mu.Unlock()
		return nil
	}
	s.cart = kept

	err := s.persistLocked(ctx)
	notify := s.publishLocked()
	s.mu.Unlock()

	notify()
	slog.Debug("deleted items", "count", removed, "category", categoryID)
	return err
}

// AddCategory appends a new category with a fresh id and persists.
func (s *Store) AddCategory(ctx context.Context, name string, taxRatePercent decimal.Decimal, colorTag string) (model.Category, error) {
	if strings.TrimSpace(name) == "" {
		return model.Category{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if taxRatePercent.IsNegative() {
		return model.Category{}, &ValidationError{Field: "taxRatePercent", Reason: "must not be negative"}
	}

	s.mu.Lock()
	cat := model.Category{
		ID:             s.newID(),
		Name:           name,
		ColorTag:       colorTag,
		TaxRatePercent: taxRatePercent,
		CreatedAt:      s.now(),
	}
	s.categories = append(s.categories, cat)
	err := s.persistLocked(ctx)
	notify := s.publishLocked()
	s.mu.Unlock()

	notify()
	slog.Info("added category", "name", cat.Name, "taxRate", cat.TaxRatePercent.String())
	return cat, err
}

// FinishList checks out the cart: it computes totals over the current
// items and full category set, snapshots the items into a new history
// entry at position zero, empties the cart and persists. The whole move
// happens under the store lock, so no intermediate state is observable.
func (s *Store) FinishList(ctx context.Context) (model.CompletedList, error) {
	s.mu.Lock()
	if len(s.cart) == 0 {
		s.mu.Unlock()
		return model.CompletedList{}, ErrEmptyCart
	}

	items := make([]model.LineItem, len(s.cart))
	copy(items, s.cart)

	completed := model.CompletedList{
		ID:          s.newID(),
		CompletedAt: s.now(),
		Items:       items,
		Subtotal:    pricing.Subtotal(items),
		TaxTotal:    pricing.TotalTax(items, s.categories),
		GrandTotal:  pricing.GrandTotal(items, s.categories),
	}

	s.history = append([]model.CompletedList{completed}, s.history...)
	s.cart = nil
	err := s.persistLocked(ctx)
	notify := s.publishLocked()
	s.mu.Unlock()

	notify()
	slog.Info("finished list",
		"id", completed.ID,
		"items", completed.ItemCount(),
		"grandTotal", completed.GrandTotal.String())
	return completed, err
}

// ClearHistory removes every history entry and persists.
func (s *Store) ClearHistory(ctx context.Context) error {
	s.mu.Lock()
	if len(s.history) == 0 {
		s.mu.Unlock()
		return nil
	}
	s.history = nil
	err := s.persistLocked(ctx)
	notify := s.publishLocked()
	s.mu.Unlock()

	notify()
	return err
}

// DeleteHistoryEntries removes the history entries whose id is in ids.
func (s *Store) DeleteHistoryEntries(ctx context.Context, ids []string) error {
	idSet := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}

	s.mu.Lock()
	kept := s.history[:0]
	removed := 0
	for _, entry := range s.history {
		if _, listed := idSet[entry.ID]; listed {
			removed++
			continue
		}
		kept = append(kept, entry)
	}
	s.history = kept
	if removed == 0 {
		s.mu.Unlock()
		return nil
	}

	err := s.persistLocked(ctx)
	notify := s.publishLocked()
	s.mu.Unlock()

	notify()
	return err
}

// State returns a copy of the full published state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Categories returns a copy of the category list in presentation order.
func (s *Store) Categories() []model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCategories(s.categories)
}

// Cart returns a copy of the current cart.
func (s *Store) Cart() []model.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyItems(s.cart)
}

// History returns a copy of the completed lists, most recent first.
func (s *Store) History() []model.CompletedList {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyHistory(s.history)
}

// CategoryByID looks up a category by id.
func (s *Store) CategoryByID(id string) (model.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cat := range s.categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return model.Category{}, false
}

// CartSubtotal returns the full-precision subtotal of the current cart.
func (s *Store) CartSubtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.Subtotal(s.cart)
}

// CartTotals returns the subtotal, tax breakdown and grand total for the
// current cart against the full category set.
func (s *Store) CartTotals() (decimal.Decimal, []pricing.TaxLine, decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.Subtotal(s.cart),
		pricing.TaxBreakdown(s.cart, s.categories),
		pricing.GrandTotal(s.cart, s.categories)
}

// persistLocked writes all three collections. Writing everything on every
// mutation keeps the heal-on-next-save policy simple: once a save
// succeeds, disk matches memory in full. Callers must hold s.mu.
func (s *Store) persistLocked(ctx context.Context) error {
	var errs []error
	if err := s.kv.Save(ctx, storage.KeyCategories, s.categoriesDoc()); err != nil {
		errs = append(errs, err)
	}
	if err := s.kv.Save(ctx, storage.KeyCurrentItems, s.cartDoc()); err != nil {
		errs = append(errs, err)
	}
	if err := s.kv.Save(ctx, storage.KeyHistory, s.historyDoc()); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		slog.Warn("failed to persist state; memory remains authoritative", "error", err)
		return err
	}
	return nil
}

// The *Doc helpers keep nil slices out of the persisted documents so an
// emptied collection round-trips as [] rather than null.
func (s *Store) categoriesDoc() []model.Category {
	if s.categories == nil {
		return []model.Category{}
	}
	return s.categories
}

func (s *Store) cartDoc() []model.LineItem {
	if s.cart == nil {
		return []model.LineItem{}
	}
	return s.cart
}

func (s *Store) historyDoc() []model.CompletedList {
	if s.history == nil {
		return []model.CompletedList{}
	}
	return s.history
}

// publishLocked captures the current state and subscriber set and returns
// a function that delivers the notifications. Callers invoke it after
// releasing s.mu so a subscriber may call back into the store.
func (s *Store) publishLocked() func() {
	if len(s.subscribers) == 0 {
		return func() {}
	}
	state := s.snapshotLocked()
	fns := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	return func() {
		for _, fn := range fns {
			fn(state)
		}
	}
}

func (s *Store) snapshotLocked() State {
	return State{
		Categories: copyCategories(s.categories),
		Cart:       copyItems(s.cart),
		History:    copyHistory(s.history),
	}
}

func copyCategories(src []model.Category) []model.Category {
	out := make([]model.Category, len(src))
	copy(out, src)
	return out
}

func copyItems(src []model.LineItem) []model.LineItem {
	out := make([]model.LineItem, len(src))
	copy(out, src)
	return out
}

func copyHistory(src []model.CompletedList) []model.CompletedList {
	out := make([]model.CompletedList, len(src))
	copy(out, src)
	return out
}
