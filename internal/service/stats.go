package service

import (
	"context"
	"time"

	"bloxstake-trading-api/internal/model"
	"bloxstake-trading-api/internal/repository"
)

// Stats is an aggregate snapshot of the system for the public stats endpoint.
type Stats struct {
	VerifiedUsers int64  `json:"verified_users"`
	ItemsHeld     int64  `json:"items_held"`
	Deposits      int64  `json:"deposits"`
	Withdrawals   int64  `json:"withdrawals"`
	Uptime        string `json:"uptime"`
}

// StatsService aggregates counts across the repositories.
type StatsService struct {
	bindings  repository.BindingRepository
	inventory repository.InventoryRepository
	trades    repository.TradeRepository
	startedAt time.Time
}

// NewStatsService creates a new stats service.
func NewStatsService(bindings repository.BindingRepository, inventory repository.InventoryRepository, trades repository.TradeRepository) *StatsService {
	return &StatsService{
		bindings:  bindings,
		inventory: inventory,
		trades:    trades,
		startedAt: time.Now(),
	}
}

// Snapshot gathers current counts. A failing count aborts the snapshot; the
// stats endpoint has no partial-answer mode.
func (s *StatsService) Snapshot(ctx context.Context) (*Stats, error) {
	verified, err := s.bindings.CountVerified(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.inventory.CountItems(ctx)
	if err != nil {
		return nil, err
	}

	deposits, err := s.trades.CountByType(ctx, model.TradeDeposit)
	if err != nil {
		return nil, err
	}

	withdrawals, err := s.trades.CountByType(ctx, model.TradeWithdraw)
	if err != nil {
		return nil, err
	}

	return &Stats{
		VerifiedUsers: verified,
		ItemsHeld:     items,
		Deposits:      deposits,
		Withdrawals:   withdrawals,
		Uptime:        time.Since(s.startedAt).Round(time.Second).String(),
	}, nil
}
