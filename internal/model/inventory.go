package model

import "time"

// InventoryItem represents one stored item row for a Roblox user.
type InventoryItem struct {
	ID           int64     `json:"id"`
	RobloxUserID int64     `json:"roblox_user_id"`
	ItemName     string    `json:"item_name"`
	GameName     string    `json:"game_name"`
	Quantity     int       `json:"quantity"`
	AssetID      string    `json:"asset_id,omitempty"`
	Holder       string    `json:"holder,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// TradeItem is the wire shape of an item inside deposit/withdraw payloads,
// as sent by the in-game automation agent.
type TradeItem struct {
	Name     string `json:"name"`
	GameName string `json:"gameName,omitempty"`
	Quantity int    `json:"quantity"`
	AssetID  string `json:"assetId,omitempty"`
	Holder   string `json:"holder,omitempty"`
}
