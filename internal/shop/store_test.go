package shop

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyho/tally/internal/storage"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestStore(t *testing.T) (*Store, *storage.MemoryStore) {
	t.Helper()
	kv := storage.NewMemoryStore()
	s, err := New(context.Background(), kv)
	require.NoError(t, err)
	return s, kv
}

// flakyKV wraps a MemoryStore and fails saves while failing is set.
type flakyKV struct {
	inner   *storage.MemoryStore
	failing bool
}

func (f *flakyKV) Save(ctx context.Context, key string, value any) error {
	if f.failing {
		return &storage.PersistenceError{Op: "save", Key: key, Err: errors.New("disk full")}
	}
	return f.inner.Save(ctx, key, value)
}

func (f *flakyKV) Load(ctx context.Context, key string, dest any) (bool, error) {
	return f.inner.Load(ctx, key, dest)
}

func TestNew_SeedsDefaultCategories(t *testing.T) {
	s, kv := newTestStore(t)

	cats := s.Categories()
	require.Len(t, cats, 4)

	wantNames := []string{"Food", "Medication", "Cleaning", "Other"}
	wantRates := []string{"0", "0", "8.875", "8.875"}
	for i, cat := range cats {
		assert.Equal(t, wantNames[i], cat.Name)
		assert.True(t, cat.TaxRatePercent.Equal(dec(wantRates[i])),
			"category %s rate %s, want %s", cat.Name, cat.TaxRatePercent, wantRates[i])
		assert.NotEmpty(t, cat.ID)
	}

	// The seed is persisted immediately: a second store over the same
	// backend sees the same ids rather than reseeding.
	s2, err := New(context.Background(), kv)
	require.NoError(t, err)
	cats2 := s2.Categories()
	require.Len(t, cats2, 4)
	for i := range cats {
		assert.Equal(t, cats[i].ID, cats2[i].ID)
	}
}

func TestNew_DoesNotReseedExistingCategories(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddCategory(ctx, "Liquor", dec("8.875"), "red")
	require.NoError(t, err)

	s2, err := New(ctx, kv)
	require.NoError(t, err)
	assert.Len(t, s2.Categories(), 5)
}

func TestAddItem_Validation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	catID := s.Categories()[0].ID

	tests := []struct {
		name      string
		itemName  string
		price     decimal.Decimal
		quantity  int
		wantField string
	}{
		{name: "empty name", itemName: "", price: dec("1"), quantity: 1, wantField: "name"},
		{name: "blank name", itemName: "   ", price: dec("1"), quantity: 1, wantField: "name"},
		{name: "negative price", itemName: "Milk", price: dec("-0.01"), quantity: 1, wantField: "unitPrice"},
		{name: "zero quantity", itemName: "Milk", price: dec("1"), quantity: 0, wantField: "quantity"},
		{name: "negative quantity", itemName: "Milk", price: dec("1"), quantity: -3, wantField: "quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.AddItem(ctx, tt.itemName, tt.price, tt.quantity, catID)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
			assert.Empty(t, s.Cart(), "invalid input must not mutate the cart")
		})
	}
}

func TestAddItem_AppendsAndPersists(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()
	catID := s.Categories()[0].ID

	item, err := s.AddItem(ctx, "Milk", dec("3.49"), 2, catID)
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.False(t, item.Completed)

	s2, err := New(ctx, kv)
	require.NoError(t, err)
	cart := s2.Cart()
	require.Len(t, cart, 1)
	assert.Equal(t, item.ID, cart[0].ID)
	assert.True(t, cart[0].UnitPrice.Equal(dec("3.49")))
}

func TestToggleItem(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	catID := s.Categories()[0].ID

	item, err := s.AddItem(ctx, "Milk", dec("3.49"), 1, catID)
	require.NoError(t, err)

	require.NoError(t, s.ToggleItem(ctx, item.ID))
	assert.True(t, s.Cart()[0].Completed)

	require.NoError(t, s.ToggleItem(ctx, item.ID))
	assert.False(t, s.Cart()[0].Completed)
}

func TestToggleItem_UnknownIDIsNoOp(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddItem(ctx, "Milk", dec("3.49"), 1, s.Categories()[0].ID)
	require.NoError(t, err)

	notified := 0
	cancel := s.Subscribe(func(State) { notified++ })
	defer cancel()

	require.NoError(t, s.ToggleItem(ctx, "no-such-id"))
	assert.False(t, s.Cart()[0].Completed)
	assert.Zero(t, notified, "a no-op must not publish a state change")
}

func TestDeleteItems_ScopedByCategory(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	cats := s.Categories()
	food, cleaning := cats[0], cats[2]

	milk, err := s.AddItem(ctx, "Milk", dec("3.49"), 1, food.ID)
	require.NoError(t, err)
	soap, err := s.AddItem(ctx, "Soap", dec("1.99"), 1, cleaning.ID)
	require.NoError(t, err)

	// Both ids are listed, but the scope is the food category: the soap
	// entry must survive.
	require.NoError(t, s.DeleteItems(ctx, []string{milk.ID, soap.ID}, food.ID))

	cart := s.Cart()
	require.Len(t, cart, 1)
	assert.Equal(t, soap.ID, cart[0].ID)
}

func TestDeleteItems_UnknownIDsAreNoOp(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	catID := s.Categories()[0].ID

	_, err := s.AddItem(ctx, "Milk", dec("3.49"), 1, catID)
	require.NoError(t, err)

	require.NoError(t, s.DeleteItems(ctx, []string{"ghost"}, catID))
	assert.Len(t, s.Cart(), 1)
}

func TestAddCategory_Validation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddCategory(ctx, "", dec("5"), "red")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	_, err = s.AddCategory(ctx, "Liquor", dec("-1"), "red")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "taxRatePercent", verr.Field)

	assert.Len(t, s.Categories(), 4)
}

func TestFinishList(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	cats := s.Categories()
	cleaning, food := cats[2], cats[0]

	_, err := s.AddItem(ctx, "Detergent", dec("10"), 2, cleaning.ID)
	require.NoError(t, err)
	_, err = s.AddItem(ctx, "Bread", dec("5"), 1, food.ID)
	require.NoError(t, err)

	completed, err := s.FinishList(ctx)
	require.NoError(t, err)

	assert.True(t, completed.Subtotal.Equal(dec("25")), "subtotal %s", completed.Subtotal)
	assert.True(t, completed.TaxTotal.Equal(dec("1.775")), "tax %s", completed.TaxTotal)
	assert.True(t, completed.GrandTotal.Equal(dec("26.775")), "grand %s", completed.GrandTotal)
	assert.Equal(t, 2, completed.ItemCount())
	assert.False(t, completed.CompletedAt.IsZero())

	assert.Empty(t, s.Cart(), "finishing must empty the cart")
	history := s.History()
	require.Len(t, history, 1)
	assert.Equal(t, completed.ID, history[0].ID)
}

func TestFinishList_PrependsToHistory(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	catID := s.Categories()[0].ID

	_, err := s.AddItem(ctx, "First trip", dec("1"), 1, catID)
	require.NoError(t, err)
	first, err := s.FinishList(ctx)
	require.NoError(t, err)

	_, err = s.AddItem(ctx, "Second trip", dec("2"), 1, catID)
	require.NoError(t, err)
	second, err := s.FinishList(ctx)
	require.NoError(t, err)

	history := s.History()
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID, "newest entry first")
	assert.Equal(t, first.ID, history[1].ID)
}

func TestFinishList_EmptyCart(t *testing.T) {
	s, _ := newTestStore(t)

	notified := 0
	cancel := s.Subscribe(func(State) { notified++ })
	defer cancel()

	_, err := s.FinishList(context.Background())
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, s.History())
	assert.Zero(t, notified)
}

func TestFinishList_SnapshotIsImmutable(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	catID := s.Categories()[0].ID

	_, err := s.AddItem(ctx, "Milk", dec("3.49"), 1, catID)
	require.NoError(t, err)
	completed, err := s.FinishList(ctx)
	require.NoError(t, err)

	// Later cart activity must not touch the snapshot.
	item, err := s.AddItem(ctx, "Eggs", dec("4.25"), 1, catID)
	require.NoError(t, err)
	require.NoError(t, s.ToggleItem(ctx, item.ID))

	history := s.History()
	require.Len(t, history, 1)
	require.Len(t, history[0].Items, 1)
	assert.Equal(t, "Milk", history[0].Items[0].Name)
	assert.Equal(t, completed.ID, history[0].ID)
}

func TestClearHistory(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()
	catID := s.Categories()[0].ID

	_, err := s.AddItem(ctx, "Milk", dec("3.49"), 1, catID)
	require.NoError(t, err)
	_, err = s.FinishList(ctx)
	require.NoError(t, err)

	require.NoError(t, s.ClearHistory(ctx))
	assert.Empty(t, s.History())

	s2, err := New(ctx, kv)
	require.NoError(t, err)
	assert.Empty(t, s2.History())
}

func TestDeleteHistoryEntries(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	catID := s.Categories()[0].ID

	var ids []string
	for _, name := range []string{"A", "B", "C"} {
		_, err := s.AddItem(ctx, name, dec("1"), 1, catID)
		require.NoError(t, err)
		completed, err := s.FinishList(ctx)
		require.NoError(t, err)
		ids = append(ids, completed.ID)
	}

	require.NoError(t, s.DeleteHistoryEntries(ctx, []string{ids[0], ids[2]}))

	history := s.History()
	require.Len(t, history, 1)
	assert.Equal(t, ids[1], history[0].ID)
}

func TestSubscribe_NotifiesOnEveryMutation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	catID := s.Categories()[0].ID

	var states []State
	cancel := s.Subscribe(func(st State) { states = append(states, st) })

	item, err := s.AddItem(ctx, "Milk", dec("3.49"), 1, catID)
	require.NoError(t, err)
	require.NoError(t, s.ToggleItem(ctx, item.ID))
	_, err = s.FinishList(ctx)
	require.NoError(t, err)

	require.Len(t, states, 3)
	assert.Len(t, states[0].Cart, 1)
	assert.True(t, states[1].Cart[0].Completed)
	assert.Empty(t, states[2].Cart)
	assert.Len(t, states[2].History, 1)

	cancel()
	_, err = s.AddItem(ctx, "Eggs", dec("4.25"), 1, catID)
	require.NoError(t, err)
	assert.Len(t, states, 3, "cancelled subscriber must not be notified")
}

func TestPersistenceFailure_MemoryStaysAuthoritative(t *testing.T) {
	ctx := context.Background()
	kv := &flakyKV{inner: storage.NewMemoryStore()}
	s, err := New(ctx, kv)
	require.NoError(t, err)
	catID := s.Categories()[0].ID

	kv.failing = true
	item, err := s.AddItem(ctx, "Milk", dec("3.49"), 1, catID)

	var perr *storage.PersistenceError
	require.ErrorAs(t, err, &perr)
	require.Len(t, s.Cart(), 1, "the mutation applies in memory despite the failed save")
	assert.Equal(t, item.ID, s.Cart()[0].ID)

	// The next successful mutation rewrites everything, healing the gap.
	kv.failing = false
	_, err = s.AddItem(ctx, "Eggs", dec("4.25"), 1, catID)
	require.NoError(t, err)

	s2, err := New(ctx, kv)
	require.NoError(t, err)
	assert.Len(t, s2.Cart(), 2)
}

func TestRoundTrip_FullFidelity(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()
	cats := s.Categories()

	_, err := s.AddItem(ctx, "Detergent", dec("10.50"), 2, cats[2].ID)
	require.NoError(t, err)
	item, err := s.AddItem(ctx, "Milk", dec("3.49"), 1, cats[0].ID)
	require.NoError(t, err)
	require.NoError(t, s.ToggleItem(ctx, item.ID))
	_, err = s.FinishList(ctx)
	require.NoError(t, err)
	_, err = s.AddItem(ctx, "Eggs", dec("4.25"), 3, cats[0].ID)
	require.NoError(t, err)

	s2, err := New(ctx, kv)
	require.NoError(t, err)

	// Compare the marshaled form: that is exactly what round-trip
	// fidelity means for the persisted representation.
	before, err := json.Marshal(s.State())
	require.NoError(t, err)
	after, err := json.Marshal(s2.State())
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestDanglingCategoryReference(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	// An item pointing at a category nobody knows stays in the cart and
	// checks out with zero tax attributed to it.
	_, err := s.AddItem(ctx, "Mystery", dec("100"), 1, "gone-category")
	require.NoError(t, err)

	subtotal, lines, grand := s.CartTotals()
	assert.True(t, subtotal.Equal(dec("100")))
	assert.Empty(t, lines)
	assert.True(t, grand.Equal(dec("100")))

	completed, err := s.FinishList(ctx)
	require.NoError(t, err)
	assert.True(t, completed.TaxTotal.IsZero())
	assert.True(t, completed.GrandTotal.Equal(dec("100")))
}

func TestCartTotals(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	cats := s.Categories()

	_, err := s.AddItem(ctx, "Soap", dec("10"), 1, cats[2].ID)
	require.NoError(t, err)
	_, err = s.AddItem(ctx, "Bread", dec("5"), 2, cats[0].ID)
	require.NoError(t, err)

	subtotal, lines, grand := s.CartTotals()
	assert.True(t, subtotal.Equal(dec("20")))
	require.Len(t, lines, 2)
	assert.Equal(t, "Food", lines[0].CategoryName)
	assert.Equal(t, "Cleaning", lines[1].CategoryName)
	assert.True(t, grand.Equal(subtotal.Add(lines[0].Amount).Add(lines[1].Amount)))
}

func TestStateSnapshotIsACopy(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	catID := s.Categories()[0].ID

	_, err := s.AddItem(ctx, "Milk", dec("3.49"), 1, catID)
	require.NoError(t, err)

	snapshot := s.Cart()
	snapshot[0].Name = "Tampered"
	assert.Equal(t, "Milk", s.Cart()[0].Name)
}

func TestStoreClock(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	catID := s.Categories()[0].ID

	fixed := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	_, err := s.AddItem(ctx, "Milk", dec("3.49"), 1, catID)
	require.NoError(t, err)
	completed, err := s.FinishList(ctx)
	require.NoError(t, err)
	assert.Equal(t, fixed, completed.CompletedAt)
}
