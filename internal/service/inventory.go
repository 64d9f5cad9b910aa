package service

import (
	"context"
	"fmt"
	"log"

	"bloxstake-trading-api/internal/model"
	"bloxstake-trading-api/internal/repository"
	"bloxstake-trading-api/pkg/apierror"
)

// InventoryService handles item storage, deposits and withdrawal stock
// checks, and records trade history alongside.
type InventoryService struct {
	inventory repository.InventoryRepository
	trades    repository.TradeRepository
}

// NewInventoryService creates a new inventory service.
func NewInventoryService(inventory repository.InventoryRepository, trades repository.TradeRepository) *InventoryService {
	return &InventoryService{inventory: inventory, trades: trades}
}

// List returns a user's stored items.
func (s *InventoryService) List(ctx context.Context, robloxUserID int64) ([]model.InventoryItem, error) {
	items, err := s.inventory.List(ctx, robloxUserID)
	if err != nil {
		return nil, apierror.InternalError("")
	}
	return items, nil
}

// Deposit stores items handed to the in-game agent and records the trade.
// Deposits complete immediately; the items are already in the bot's hands.
func (s *InventoryService) Deposit(ctx context.Context, robloxUserID int64, items []model.TradeItem) error {
	if len(items) == 0 {
		return apierror.BadRequest("items are required")
	}

	for _, item := range items {
		if item.Name == "" {
			return apierror.BadRequest("item name is required")
		}
		err := s.inventory.AddItem(ctx, model.InventoryItem{
			RobloxUserID: robloxUserID,
			ItemName:     item.Name,
			GameName:     item.GameName,
			Quantity:     item.Quantity,
			AssetID:      item.AssetID,
			Holder:       item.Holder,
		})
		if err != nil {
			return apierror.InternalError("")
		}
	}

	tradeID, err := s.trades.Record(ctx, robloxUserID, model.TradeDeposit, items)
	if err != nil {
		log.Printf("[Inventory] Failed to record deposit for %d: %v", robloxUserID, err)
		return nil
	}
	if err := s.trades.Complete(ctx, tradeID); err != nil {
		log.Printf("[Inventory] Failed to complete deposit record %d: %v", tradeID, err)
	}
	return nil
}

// CheckStock verifies the user holds the requested quantity of an item.
// Returns the taxonomy's business errors so they reach the user verbatim.
func (s *InventoryService) CheckStock(ctx context.Context, robloxUserID int64, itemName string, quantity int) error {
	if itemName == "" {
		return apierror.BadRequest("item name is required")
	}
	if quantity <= 0 {
		return apierror.BadRequest("quantity must be positive")
	}

	items, err := s.inventory.List(ctx, robloxUserID)
	if err != nil {
		return apierror.InternalError("")
	}

	held := 0
	for _, it := range items {
		if it.ItemName == itemName {
			held += it.Quantity
		}
	}

	if held == 0 {
		return apierror.NotFound(fmt.Sprintf("You don't have any %q in storage", itemName))
	}
	if held < quantity {
		return apierror.Conflict(fmt.Sprintf("Insufficient stock: you have %d of %q, requested %d", held, itemName, quantity))
	}
	return nil
}

// CompleteWithdrawal removes withdrawn items from storage and records the
// trade as completed. Called once the agent confirms the in-game hand-off.
func (s *InventoryService) CompleteWithdrawal(ctx context.Context, robloxUserID int64, items []model.TradeItem) error {
	for _, item := range items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		removed, err := s.inventory.Remove(ctx, robloxUserID, item.Name, qty)
		if err != nil {
			return apierror.InternalError("")
		}
		if removed < qty {
			log.Printf("[Inventory] Withdrawal removed %d/%d of %q for %d", removed, qty, item.Name, robloxUserID)
		}
	}

	tradeID, err := s.trades.Record(ctx, robloxUserID, model.TradeWithdraw, items)
	if err != nil {
		log.Printf("[Inventory] Failed to record withdrawal for %d: %v", robloxUserID, err)
		return nil
	}
	if err := s.trades.Complete(ctx, tradeID); err != nil {
		log.Printf("[Inventory] Failed to complete withdrawal record %d: %v", tradeID, err)
	}
	return nil
}
