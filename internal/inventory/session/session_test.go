package session

import (
	"context"
	"errors"
	"testing"

	"github.com/fekuna/repairshop-service/internal/inventory/dto"
	"github.com/fekuna/repairshop-service/internal/logger"
	"github.com/fekuna/repairshop-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInventory struct {
	items    map[string]int64
	fetchErr error
	applyErr error
	applied  []*dto.AdjustStockInput
	// fetchErrAfterApply becomes fetchErr once an adjustment is committed.
	fetchErrAfterApply error
}

func newFake() *fakeInventory {
	return &fakeInventory{items: map[string]int64{"A": 1, "B": 2, "C": 0}}
}

func (f *fakeInventory) Seed(context.Context, []dto.SeedItem) (int, error) { return 0, nil }

func (f *fakeInventory) FetchAll(context.Context) ([]model.InventoryItem, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	var out []model.InventoryItem
	for id, stock := range f.items {
		out = append(out, model.InventoryItem{ID: id, Name: "Item " + id, Category: "Battery", Stock: stock})
	}
	return out, nil
}

func (f *fakeInventory) Search(ctx context.Context, _ string) ([]model.InventoryItem, error) {
	return f.FetchAll(ctx)
}

func (f *fakeInventory) ApplyDelta(_ context.Context, in *dto.AdjustStockInput) error {
	f.applied = append(f.applied, in)
	if f.applyErr != nil {
		return f.applyErr
	}
	for _, id := range in.ItemIDs {
		f.items[id] += in.Delta
	}
	if f.fetchErrAfterApply != nil {
		f.fetchErr = f.fetchErrAfterApply
	}
	return nil
}

func (f *fakeInventory) ListMovements(context.Context, int) ([]model.StockMovement, error) {
	return nil, nil
}

func (f *fakeInventory) Watch(context.Context, func([]model.InventoryItem, error)) (func(), error) {
	return func() {}, nil
}

func (f *fakeInventory) Close(context.Context) error { return nil }

func stocks(v View) map[string]int64 {
	out := map[string]int64{}
	for _, item := range v.Items {
		out[item.ID] = item.Stock
	}
	return out
}

func TestSessionHappyPath(t *testing.T) {
	inv := newFake()
	s := New(inv, "u1", logger.NewNop())
	ctx := context.Background()

	assert.Equal(t, Idle, s.View().State)
	assert.ErrorIs(t, s.Select("A"), ErrNotLoaded)

	require.NoError(t, s.Refresh(ctx))
	v := s.View()
	assert.Equal(t, Viewing, v.State)
	require.Len(t, v.Items, 3)
	assert.Equal(t, "Item A", v.Items[0].Name)

	require.NoError(t, s.Select("A", "B"))
	assert.Equal(t, Selecting, s.View().State)
	assert.Equal(t, []string{"A", "B"}, s.View().Selected)

	require.NoError(t, s.Apply(ctx, 10, "restock"))
	v = s.View()
	assert.Equal(t, Viewing, v.State)
	assert.Empty(t, v.Selected)
	assert.Equal(t, map[string]int64{"A": 11, "B": 12, "C": 0}, stocks(v))

	require.Len(t, inv.applied, 1)
	assert.Equal(t, "u1", inv.applied[0].UserID)
	assert.Equal(t, "restock", inv.applied[0].Reason)
}

func TestSessionApplyFailureKeepsSelection(t *testing.T) {
	inv := newFake()
	s := New(inv, "u1", logger.NewNop())
	ctx := context.Background()

	require.NoError(t, s.Refresh(ctx))
	require.NoError(t, s.Select("A"))

	boom := errors.New("unavailable")
	inv.applyErr = boom
	require.ErrorIs(t, s.Apply(ctx, 5, ""), boom)

	v := s.View()
	assert.Equal(t, Idle, v.State)
	assert.ErrorIs(t, v.Err, boom)
	assert.Equal(t, []string{"A"}, v.Selected)

	inv.applyErr = nil
	require.NoError(t, s.Apply(ctx, 5, ""))
	v = s.View()
	assert.Equal(t, Viewing, v.State)
	assert.NoError(t, v.Err)
	assert.Equal(t, int64(6), stocks(v)["A"])
}

func TestSessionApplyCommittedButRefetchFailed(t *testing.T) {
	inv := newFake()
	s := New(inv, "u1", logger.NewNop())
	ctx := context.Background()

	require.NoError(t, s.Refresh(ctx))
	require.NoError(t, s.Select("A"))

	blip := errors.New("network blip")
	inv.fetchErrAfterApply = blip
	err := s.Apply(ctx, 10, "")
	require.ErrorIs(t, err, ErrStaleView)
	require.ErrorIs(t, err, blip)
	assert.Equal(t, int64(11), inv.items["A"])

	v := s.View()
	assert.Equal(t, Viewing, v.State)
	assert.Empty(t, v.Selected)
	assert.ErrorIs(t, v.Err, blip)
	// The old view stays until the next successful refresh.
	assert.Equal(t, int64(1), stocks(v)["A"])

	// Nothing left selected, so a retry cannot apply the delta twice.
	assert.ErrorIs(t, s.Apply(ctx, 10, ""), ErrNothingSelected)
	assert.Equal(t, int64(11), inv.items["A"])
	assert.Len(t, inv.applied, 1)
}

func TestSessionRefreshClearsSelection(t *testing.T) {
	s := New(newFake(), "u1", logger.NewNop())
	ctx := context.Background()

	require.NoError(t, s.Refresh(ctx))
	require.NoError(t, s.Select("C"))
	require.NoError(t, s.Refresh(ctx))

	v := s.View()
	assert.Equal(t, Viewing, v.State)
	assert.Empty(t, v.Selected)
}

func TestSessionFetchFailure(t *testing.T) {
	inv := newFake()
	inv.fetchErr = errors.New("offline")
	s := New(inv, "u1", logger.NewNop())

	require.Error(t, s.Refresh(context.Background()))
	v := s.View()
	assert.Equal(t, Idle, v.State)
	assert.Error(t, v.Err)
}

func TestSessionSelection(t *testing.T) {
	s := New(newFake(), "u1", logger.NewNop())
	require.NoError(t, s.Refresh(context.Background()))

	assert.ErrorIs(t, s.Select("A", "nope"), ErrUnknownItem)
	assert.Empty(t, s.View().Selected)

	n, err := s.SelectMatching("item b")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.SelectMatching("battery")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"A", "B", "C"}, s.View().Selected)

	require.NoError(t, s.Deselect("A", "B", "C"))
	assert.Equal(t, Viewing, s.View().State)
	assert.ErrorIs(t, s.Apply(context.Background(), 1, ""), ErrNothingSelected)
}
