package model

import "time"

// WithdrawalSession is a short-lived reservation of items awaiting pickup by
// the in-game automation agent. Stored in the cache layer with a TTL, never
// in the durable store.
type WithdrawalSession struct {
	SessionID    string      `json:"session_id"`
	RobloxUserID int64       `json:"roblox_user_id"`
	Items        []TradeItem `json:"items"`
	CreatedAt    time.Time   `json:"created_at"`
	Status       string      `json:"status"`
}
