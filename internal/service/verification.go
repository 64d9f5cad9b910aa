package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"bloxstake-trading-api/internal/lock"
	"bloxstake-trading-api/internal/model"
	"bloxstake-trading-api/internal/repository"
	"bloxstake-trading-api/internal/roblox"
	"bloxstake-trading-api/internal/security"
	"bloxstake-trading-api/pkg/apierror"
)

// CodeTTL is how long a pending verification code stays valid. A stale code
// must not be claimable forever, so expired codes force a fresh !verify.
const CodeTTL = 24 * time.Hour

// Resolver is the subset of the Roblox client the coordinator needs.
type Resolver interface {
	Resolve(ctx context.Context, username string) (*roblox.User, error)
	Profile(ctx context.Context, userID int64) (*roblox.Profile, error)
	AvatarThumbnail(ctx context.Context, userID int64) (string, error)
}

// VerificationService coordinates the link-and-prove flow: issue a one-time
// code, recheck the profile bio, and finalize the Discord<->Roblox binding.
// All state transitions for one Discord ID are serialized through the locker.
type VerificationService struct {
	bindings repository.BindingRepository
	profiles repository.ProfileRepository
	resolver Resolver
	locker   lock.Locker

	generateCode func() (string, error)
	now          func() time.Time
}

// NewVerificationService creates the verification coordinator.
func NewVerificationService(
	bindings repository.BindingRepository,
	profiles repository.ProfileRepository,
	resolver Resolver,
	locker lock.Locker,
) *VerificationService {
	return &VerificationService{
		bindings:     bindings,
		profiles:     profiles,
		resolver:     resolver,
		locker:       locker,
		generateCode: security.GenerateCode,
		now:          time.Now,
	}
}

// StartResult is returned when a verification is started or re-issued.
type StartResult struct {
	Code           string `json:"code"`
	RobloxUserID   int64  `json:"roblox_user_id"`
	RobloxUsername string `json:"roblox_username"`
	ThumbnailURL   string `json:"thumbnail_url,omitempty"`
}

// Start begins (or restarts) verification for a Discord identity. Re-running
// it issues a fresh code and invalidates the previous one. A Roblox account
// already verified under a different Discord identity is rejected loudly.
func (s *VerificationService) Start(ctx context.Context, discordID, username string) (*StartResult, error) {
	if discordID == "" {
		return nil, apierror.BadRequest("discord_id is required")
	}
	if username == "" {
		return nil, apierror.BadRequest("username is required")
	}

	release, err := s.locker.Acquire(ctx, discordID)
	if err != nil {
		return nil, apierror.ServiceUnavailable("verification is busy, try again")
	}
	defer release()

	existing, err := s.bindings.GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, apierror.InternalError("")
	}
	if existing != nil && existing.IsVerified() {
		return nil, apierror.Conflict(fmt.Sprintf(
			"You are already verified as %s", existing.RobloxUsername))
	}

	user, err := s.resolver.Resolve(ctx, username)
	if err != nil {
		return nil, mapRobloxError(err, username)
	}

	// Loud conflict before issuing a code: never silently reassign an
	// account verified under another Discord identity.
	holder, err := s.bindings.GetVerifiedByRobloxUser(ctx, user.UserID)
	if err != nil {
		return nil, apierror.InternalError("")
	}
	if holder != nil && holder.DiscordID != discordID {
		return nil, apierror.AlreadyLinked("")
	}

	code, err := s.generateCode()
	if err != nil {
		return nil, apierror.InternalError("")
	}

	if err := s.bindings.UpsertPending(ctx, discordID, user.UserID, user.Username, code, s.now()); err != nil {
		return nil, apierror.InternalError("")
	}

	// Thumbnail is cosmetic; failures only cost the embed its avatar.
	thumbnail, err := s.resolver.AvatarThumbnail(ctx, user.UserID)
	if err != nil {
		log.Printf("[Verification] Thumbnail fetch failed for %d: %v", user.UserID, err)
	}

	s.cacheProfile(ctx, &model.Profile{
		RobloxUserID: user.UserID,
		Username:     user.Username,
		ThumbnailURL: thumbnail,
		FetchedAt:    s.now(),
	})

	return &StartResult{
		Code:           code,
		RobloxUserID:   user.UserID,
		RobloxUsername: user.Username,
		ThumbnailURL:   thumbnail,
	}, nil
}

// Check re-fetches the user's profile (bypassing any cache) and flips the
// binding to verified when the issued code appears verbatim in the bio.
func (s *VerificationService) Check(ctx context.Context, discordID string) (*model.Binding, error) {
	if discordID == "" {
		return nil, apierror.BadRequest("discord_id is required")
	}

	release, err := s.locker.Acquire(ctx, discordID)
	if err != nil {
		return nil, apierror.ServiceUnavailable("verification is busy, try again")
	}
	defer release()

	binding, err := s.bindings.GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, apierror.InternalError("")
	}
	if binding == nil {
		return nil, apierror.NotFound("No verification in progress. Use !verify <username> first.")
	}
	if binding.IsVerified() {
		return binding, nil
	}
	if binding.CodeExpired(CodeTTL, s.now()) {
		return nil, apierror.VerificationMismatch(
			"Your verification code has expired. Run !verify again to get a fresh one.")
	}

	profile, err := s.resolver.Profile(ctx, binding.RobloxUserID)
	if err != nil {
		return nil, mapRobloxError(err, binding.RobloxUsername)
	}

	s.cacheProfile(ctx, &model.Profile{
		RobloxUserID: profile.UserID,
		Username:     profile.Username,
		Description:  profile.Description,
		FetchedAt:    s.now(),
	})

	if !strings.Contains(profile.Description, binding.Code) {
		return nil, apierror.VerificationMismatch("")
	}

	if err := s.bindings.Verify(ctx, discordID, s.now()); err != nil {
		switch {
		case errors.Is(err, repository.ErrRobloxAccountTaken):
			return nil, apierror.AlreadyLinked("")
		case errors.Is(err, repository.ErrNoBinding):
			return nil, apierror.NotFound("No verification in progress. Use !verify <username> first.")
		case errors.Is(err, repository.ErrNotPending):
			// Lost a race with another check that already verified the row.
			if b, bErr := s.bindings.GetByDiscordID(ctx, discordID); bErr == nil && b != nil && b.IsVerified() {
				return b, nil
			}
			return nil, apierror.InternalError("")
		default:
			return nil, apierror.InternalError("")
		}
	}

	verified, err := s.bindings.GetByDiscordID(ctx, discordID)
	if err != nil || verified == nil {
		return nil, apierror.InternalError("")
	}
	return verified, nil
}

// AccountInfo is the verified binding plus cached profile decoration.
type AccountInfo struct {
	Binding      *model.Binding `json:"binding"`
	ThumbnailURL string         `json:"thumbnail_url,omitempty"`
}

// Account returns the verified account for a Discord identity.
func (s *VerificationService) Account(ctx context.Context, discordID string) (*AccountInfo, error) {
	binding, err := s.bindings.GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, apierror.InternalError("")
	}
	if binding == nil || !binding.IsVerified() {
		return nil, apierror.NotVerified("")
	}

	info := &AccountInfo{Binding: binding}
	if p, err := s.profiles.Get(ctx, binding.RobloxUserID); err == nil && p != nil {
		info.ThumbnailURL = p.ThumbnailURL
	}
	return info, nil
}

// VerifiedBinding returns the verified binding for a Discord identity, or a
// NotVerified error. Used as the local precondition check before trade
// operations.
func (s *VerificationService) VerifiedBinding(ctx context.Context, discordID string) (*model.Binding, error) {
	binding, err := s.bindings.GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, apierror.InternalError("")
	}
	if binding == nil || !binding.IsVerified() {
		return nil, apierror.NotVerified("")
	}
	return binding, nil
}

// IsRobloxUserVerified reports whether any Discord identity has verified the
// given Roblox account. Consumed by the automation agent.
func (s *VerificationService) IsRobloxUserVerified(ctx context.Context, robloxUserID int64) (bool, error) {
	holder, err := s.bindings.GetVerifiedByRobloxUser(ctx, robloxUserID)
	if err != nil {
		return false, apierror.InternalError("")
	}
	return holder != nil, nil
}

func (s *VerificationService) cacheProfile(ctx context.Context, p *model.Profile) {
	if err := s.profiles.Upsert(ctx, p); err != nil {
		log.Printf("[Verification] Failed to cache profile %d: %v", p.RobloxUserID, err)
	}
}

// mapRobloxError translates resolver failures into the user-facing taxonomy.
// Raw transport errors never surface to users.
func mapRobloxError(err error, username string) error {
	switch {
	case errors.Is(err, roblox.ErrNotFound):
		return apierror.NotFound(fmt.Sprintf("Roblox user %q not found", username))
	case roblox.IsTransient(err):
		return apierror.ServiceUnavailable("Roblox is not responding right now, try again later")
	default:
		return apierror.InternalError("")
	}
}
