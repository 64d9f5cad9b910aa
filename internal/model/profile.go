package model

import "time"

// Profile is a cached snapshot of a Roblox user's public profile. Staleness is
// acceptable; verification checks always bypass the cache.
type Profile struct {
	RobloxUserID int64     `json:"roblox_user_id"`
	Username     string    `json:"username"`
	Description  string    `json:"description"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
}
