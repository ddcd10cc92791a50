package inventory

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fridgetrack/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAddOrMergeMergesByName(t *testing.T) {
	store := newTestStore(t)

	first, err := store.AddOrMerge(models.InventoryItem{Name: "Egg", Quantity: 12})
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.NotEmpty(t, first[0].ID)
	assert.Equal(t, "pcs", first[0].Unit)
	assert.Equal(t, models.CategoryOther, first[0].Category)
	assert.NotNil(t, first[0].Expiry)

	second, err := store.AddOrMerge(models.InventoryItem{Name: "egg", Quantity: 3})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, float64(15), second[0].Quantity)

	items, err := store.Items()
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestAddOrMergeShelfLifeDefault(t *testing.T) {
	store := newTestStore(t)
	start := time.Now()

	added, err := store.AddOrMerge(models.InventoryItem{Name: "Milk", Quantity: 1, Unit: "L"})
	require.NoError(t, err)
	require.NotNil(t, added[0].Expiry)

	// Milk defaults to a 7 day shelf life.
	days := added[0].Expiry.Sub(start).Hours() / 24
	assert.InDelta(t, 7, days, 0.1)
}

func TestUpdateQuantityDeletesAtZero(t *testing.T) {
	store := newTestStore(t)

	added, err := store.AddOrMerge(models.InventoryItem{Name: "Bread", Quantity: 2})
	require.NoError(t, err)
	id := added[0].ID

	require.NoError(t, store.UpdateQuantity(id, 1))
	items, err := store.Items()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, float64(1), items[0].Quantity)

	require.NoError(t, store.UpdateQuantity(id, 1))
	items, err = store.Items()
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.ErrorIs(t, store.UpdateQuantity(id, 1), ErrItemNotFound)
}

func TestSetClaimed(t *testing.T) {
	store := newTestStore(t)

	_, err := store.AddOrMerge(models.InventoryItem{Name: "Cheese", Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, store.SetClaimed("cheese", "Alice", true))
	items, err := store.Items()
	require.NoError(t, err)
	assert.Equal(t, models.StringList{"Alice"}, items[0].ClaimedBy)

	require.NoError(t, store.SetClaimed("cheese", "Alice", false))
	items, err = store.Items()
	require.NoError(t, err)
	assert.Empty(t, items[0].ClaimedBy)

	assert.ErrorIs(t, store.SetClaimed("nothing", "Alice", true), ErrItemNotFound)
}

func TestMemberLifecycle(t *testing.T) {
	store := newTestStore(t)

	alice, err := store.AddMember("Alice")
	require.NoError(t, err)
	assert.Equal(t, models.FlexID("1"), alice.MemberID)

	bob, err := store.AddMember("Bob")
	require.NoError(t, err)
	assert.Equal(t, models.FlexID("2"), bob.MemberID)

	require.NoError(t, store.RemoveMember(alice.MemberID))
	members, err := store.Members()
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "Bob", members[0].MemberName)

	assert.ErrorIs(t, store.RemoveMember(alice.MemberID), ErrMemberNotFound)
}

func TestDedupeValidatedLastWins(t *testing.T) {
	items := []models.ValidatedItem{
		{Action: models.ActionAdd, ItemName: "Milk", Quantity: 1},
		{Action: models.ActionRemove, ItemName: "Milk", Quantity: 2},
		{Action: models.ActionAdd, ItemName: "milk", Quantity: 3},
	}

	out := DedupeValidated(items)
	require.Len(t, out, 2)
	// The duplicate add keeps the first slot but the last payload.
	assert.Equal(t, models.ActionAdd, out[0].Action)
	assert.Equal(t, float64(3), out[0].Quantity)
	assert.Equal(t, models.ActionRemove, out[1].Action)
}

func TestApplyValidated(t *testing.T) {
	store := newTestStore(t)

	seeded, err := store.AddOrMerge(models.InventoryItem{Name: "Milk", Quantity: 1, Unit: "L"})
	require.NoError(t, err)
	milkID := models.FlexID(seeded[0].ID)

	err = store.ApplyValidated([]models.ValidatedItem{
		{Member: "1", Action: models.ActionAdd, ItemName: "Quinoa", Quantity: 2, Unit: "pcs", Category: models.CategoryOther},
		{Member: "1", Action: models.ActionRemove, Item: &milkID, ItemName: "Milk", Quantity: 1, Unit: "L"},
	})
	require.NoError(t, err)

	items, err := store.Items()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Quinoa", items[0].Name)
	assert.Equal(t, float64(2), items[0].Quantity)
	assert.NotNil(t, items[0].Expiry)

	logs, err := store.Logs()
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.ActionAdd, logs[0].Action)
	assert.Equal(t, "Quinoa", logs[0].ItemName)
	assert.Equal(t, models.ActionRemove, logs[1].Action)

	ownership, err := store.MemberItems()
	require.NoError(t, err)
	require.Len(t, ownership, 1)
	assert.Equal(t, models.FlexID("1"), ownership[0].MemberID)
	assert.Equal(t, float64(2), ownership[0].Quantity)
}

func TestApplyValidatedRollsBackOnFailure(t *testing.T) {
	store := newTestStore(t)

	_, err := store.AddOrMerge(models.InventoryItem{Name: "Milk", Quantity: 5})
	require.NoError(t, err)

	err = store.ApplyValidated([]models.ValidatedItem{
		{Member: "1", Action: models.ActionRemove, ItemName: "Milk", Quantity: 1},
		{Member: "1", Action: models.ActionRemove, ItemName: "Ghost", Quantity: 1},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrItemNotFound)

	items, err := store.Items()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, float64(5), items[0].Quantity)

	logs, err := store.Logs()
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestSubscribeReceivesEvents(t *testing.T) {
	store := newTestStore(t)

	events, cancel := store.Subscribe()
	defer cancel()

	_, err := store.AddOrMerge(models.InventoryItem{Name: "Apple", Quantity: 4})
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, EventItemAdded, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("expected an item_added event")
	}

	cancel()
	_, ok := <-events
	assert.False(t, ok)
}
