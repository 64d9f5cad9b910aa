package model

import "time"

// Trade types recorded in history.
const (
	TradeDeposit  = "deposit"
	TradeWithdraw = "withdraw"
)

// Trade statuses.
const (
	TradePending   = "pending"
	TradeCompleted = "completed"
)

// TradeRecord is one row of trade history.
type TradeRecord struct {
	ID           int64      `json:"id"`
	RobloxUserID int64      `json:"roblox_user_id"`
	TradeType    string     `json:"trade_type"`
	Items        []TradeItem `json:"items"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}
