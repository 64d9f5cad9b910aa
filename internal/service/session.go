package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bloxstake-trading-api/internal/cache"
	"bloxstake-trading-api/internal/model"
	"bloxstake-trading-api/pkg/apierror"
	"bloxstake-trading-api/pkg/uid"
)

// SessionTTL is how long a withdrawal session stays claimable by the in-game
// agent before it silently expires.
const SessionTTL = 30 * time.Minute

// SessionService stores withdrawal sessions in the cache layer. Sessions are
// transient reservations, never written to the durable store; the TTL is
// enforced by the cache backend.
type SessionService struct {
	cache cache.Cache
}

// NewSessionService creates a new withdrawal session service.
func NewSessionService(c cache.Cache) *SessionService {
	return &SessionService{cache: c}
}

func sessionKey(robloxUserID int64) string {
	return fmt.Sprintf("withdraw:session:%d", robloxUserID)
}

// Get returns the active session for a user, or nil if none.
func (s *SessionService) Get(ctx context.Context, robloxUserID int64) (*model.WithdrawalSession, error) {
	raw, err := s.cache.Get(ctx, sessionKey(robloxUserID))
	if err == cache.ErrCacheMiss {
		return nil, nil
	}
	if err != nil {
		return nil, apierror.InternalError("")
	}

	var session model.WithdrawalSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, apierror.InternalError("")
	}
	return &session, nil
}

// Create reserves a withdrawal session for a user. A user can hold at most
// one active session at a time.
func (s *SessionService) Create(ctx context.Context, robloxUserID int64, items []model.TradeItem) (*model.WithdrawalSession, error) {
	if len(items) == 0 {
		return nil, apierror.BadRequest("items are required")
	}

	existing, err := s.Get(ctx, robloxUserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apierror.Conflict("You already have an active withdrawal session. Complete or cancel it first.")
	}

	session := &model.WithdrawalSession{
		SessionID:    uid.New(),
		RobloxUserID: robloxUserID,
		Items:        items,
		CreatedAt:    time.Now().UTC(),
		Status:       model.TradePending,
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return nil, apierror.InternalError("")
	}
	if err := s.cache.Set(ctx, sessionKey(robloxUserID), raw, SessionTTL); err != nil {
		return nil, apierror.InternalError("")
	}
	return session, nil
}

// Take removes and returns the active session, used when the agent confirms
// a completed withdrawal. Returns a NotFound error when no session exists.
func (s *SessionService) Take(ctx context.Context, robloxUserID int64) (*model.WithdrawalSession, error) {
	session, err := s.Get(ctx, robloxUserID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apierror.NotFound("No active withdrawal session found")
	}

	if err := s.cache.Delete(ctx, sessionKey(robloxUserID)); err != nil {
		return nil, apierror.InternalError("")
	}
	return session, nil
}

// Cancel drops the active session if any.
func (s *SessionService) Cancel(ctx context.Context, robloxUserID int64) error {
	session, err := s.Get(ctx, robloxUserID)
	if err != nil {
		return err
	}
	if session == nil {
		return apierror.NotFound("No active withdrawal session found")
	}
	if err := s.cache.Delete(ctx, sessionKey(robloxUserID)); err != nil {
		return apierror.InternalError("")
	}
	return nil
}
