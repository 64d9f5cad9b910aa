package service

import (
	"context"
	"testing"

	"bloxstake-trading-api/internal/model"
	"bloxstake-trading-api/pkg/apierror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockInventoryRepo struct{ mock.Mock }

func (m *mockInventoryRepo) AddItem(ctx context.Context, item model.InventoryItem) error {
	return m.Called(ctx, item).Error(0)
}
func (m *mockInventoryRepo) List(ctx context.Context, robloxUserID int64) ([]model.InventoryItem, error) {
	args := m.Called(ctx, robloxUserID)
	if items, _ := args.Get(0).([]model.InventoryItem); items != nil {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockInventoryRepo) Remove(ctx context.Context, robloxUserID int64, itemName string, quantity int) (int, error) {
	args := m.Called(ctx, robloxUserID, itemName, quantity)
	return args.Int(0), args.Error(1)
}
func (m *mockInventoryRepo) CountItems(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockTradeRepo struct{ mock.Mock }

func (m *mockTradeRepo) Record(ctx context.Context, robloxUserID int64, tradeType string, items []model.TradeItem) (int64, error) {
	args := m.Called(ctx, robloxUserID, tradeType, items)
	return args.Get(0).(int64), args.Error(1)
}
func (m *mockTradeRepo) Complete(ctx context.Context, tradeID int64) error {
	return m.Called(ctx, tradeID).Error(0)
}
func (m *mockTradeRepo) CountByType(ctx context.Context, tradeType string) (int64, error) {
	args := m.Called(ctx, tradeType)
	return args.Get(0).(int64), args.Error(1)
}

func stock(names ...string) []model.InventoryItem {
	items := make([]model.InventoryItem, 0, len(names))
	for _, n := range names {
		items = append(items, model.InventoryItem{RobloxUserID: 156, ItemName: n, Quantity: 1})
	}
	return items
}

func TestDepositStoresItemsAndRecordsTrade(t *testing.T) {
	inventory := new(mockInventoryRepo)
	trades := new(mockTradeRepo)
	svc := NewInventoryService(inventory, trades)

	items := []model.TradeItem{
		{Name: "Chroma Luger", GameName: "MM2", Quantity: 1},
		{Name: "Batwing", GameName: "MM2", Quantity: 2},
	}

	inventory.On("AddItem", mock.Anything, mock.Anything).Return(nil).Times(2)
	trades.On("Record", mock.Anything, int64(156), model.TradeDeposit, items).Return(int64(7), nil)
	trades.On("Complete", mock.Anything, int64(7)).Return(nil)

	require.NoError(t, svc.Deposit(context.Background(), 156, items))
	inventory.AssertExpectations(t)
	trades.AssertExpectations(t)
}

func TestDepositRejectsEmptyAndUnnamedItems(t *testing.T) {
	svc := NewInventoryService(new(mockInventoryRepo), new(mockTradeRepo))

	err := svc.Deposit(context.Background(), 156, nil)
	assert.Equal(t, "BAD_REQUEST", apierror.CodeOf(err))

	err = svc.Deposit(context.Background(), 156, []model.TradeItem{{Name: ""}})
	assert.Equal(t, "BAD_REQUEST", apierror.CodeOf(err))
}

func TestCheckStock(t *testing.T) {
	inventory := new(mockInventoryRepo)
	svc := NewInventoryService(inventory, new(mockTradeRepo))

	inventory.On("List", mock.Anything, int64(156)).
		Return(stock("Chroma Luger", "Chroma Luger", "Batwing"), nil)

	ctx := context.Background()

	assert.NoError(t, svc.CheckStock(ctx, 156, "Chroma Luger", 2))
	assert.NoError(t, svc.CheckStock(ctx, 156, "Batwing", 1))

	err := svc.CheckStock(ctx, 156, "Chroma Luger", 3)
	assert.Equal(t, "CONFLICT", apierror.CodeOf(err))

	err = svc.CheckStock(ctx, 156, "Harvester", 1)
	assert.Equal(t, "NOT_FOUND", apierror.CodeOf(err))
}

func TestCompleteWithdrawalRemovesAndRecords(t *testing.T) {
	inventory := new(mockInventoryRepo)
	trades := new(mockTradeRepo)
	svc := NewInventoryService(inventory, trades)

	items := []model.TradeItem{{Name: "Chroma Luger", Quantity: 2}}

	inventory.On("Remove", mock.Anything, int64(156), "Chroma Luger", 2).Return(2, nil)
	trades.On("Record", mock.Anything, int64(156), model.TradeWithdraw, items).Return(int64(9), nil)
	trades.On("Complete", mock.Anything, int64(9)).Return(nil)

	require.NoError(t, svc.CompleteWithdrawal(context.Background(), 156, items))
	inventory.AssertExpectations(t)
	trades.AssertExpectations(t)
}

func TestStatsSnapshot(t *testing.T) {
	bindings := new(mockBindingRepo)
	inventory := new(mockInventoryRepo)
	trades := new(mockTradeRepo)
	svc := NewStatsService(bindings, inventory, trades)

	bindings.On("CountVerified", mock.Anything).Return(int64(12), nil)
	inventory.On("CountItems", mock.Anything).Return(int64(340), nil)
	trades.On("CountByType", mock.Anything, model.TradeDeposit).Return(int64(80), nil)
	trades.On("CountByType", mock.Anything, model.TradeWithdraw).Return(int64(75), nil)

	snapshot, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), snapshot.VerifiedUsers)
	assert.Equal(t, int64(340), snapshot.ItemsHeld)
	assert.Equal(t, int64(80), snapshot.Deposits)
	assert.Equal(t, int64(75), snapshot.Withdrawals)
	assert.NotEmpty(t, snapshot.Uptime)
}
