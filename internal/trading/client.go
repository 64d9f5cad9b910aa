package trading

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bloxstake-trading-api/internal/model"
	"bloxstake-trading-api/internal/security"
	"bloxstake-trading-api/pkg/apierror"
)

// Trading API route contract shared with the automation agent. These paths
// are fixed; both sides break if they drift.
const (
	PathWithdrawGetSession    = "/api/mm2/MurderMystery2/Trading/Withdraw/GetSession"
	PathWithdrawCreateSession = "/api/mm2/MurderMystery2/Trading/Withdraw/CreateSession"
	PathWithdrawCancel        = "/api/mm2/MurderMystery2/Trading/Withdraw/CancelSession"
	PathWithdrawConfirm       = "/api/mm2/MurderMystery2/Trading/Withdraw/ConfirmSession"
	PathDeposit               = "/api/mm2/MurderMystery2/Trading/Deposit"
	PathInventoryGet          = "/api/mm2/MurderMystery2/Inventory/Get"
)

// BindingSource provides the verified-binding precondition. Trade calls for
// an unverified requester fail locally before any network traffic; the real
// enforcement lives on the agent side, this is fast user feedback.
type BindingSource interface {
	VerifiedBinding(ctx context.Context, discordID string) (*model.Binding, error)
}

// Config holds trading API client settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is the façade that builds signed requests to the trading API for
// deposit, withdraw and inventory operations.
type Client struct {
	http     *http.Client
	baseURL  string
	apiKey   string
	signer   *security.Signer
	bindings BindingSource
}

// NewClient creates a trading API client.
func NewClient(cfg Config, signer *security.Signer, bindings BindingSource) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		http:     &http.Client{Timeout: cfg.Timeout},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		signer:   signer,
		bindings: bindings,
	}
}

// GetWithdrawSession checks whether the requester has an active withdrawal
// session.
func (c *Client) GetWithdrawSession(ctx context.Context, discordID string) (map[string]interface{}, error) {
	return c.request(ctx, discordID, PathWithdrawGetSession, nil)
}

// CreateWithdrawSession reserves items for in-game pickup.
func (c *Client) CreateWithdrawSession(ctx context.Context, discordID, itemName string, quantity int) (map[string]interface{}, error) {
	if quantity <= 0 {
		quantity = 1
	}
	return c.request(ctx, discordID, PathWithdrawCreateSession, map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"name": itemName, "quantity": quantity},
		},
	})
}

// CancelWithdraw drops the requester's active withdrawal session.
func (c *Client) CancelWithdraw(ctx context.Context, discordID string) (map[string]interface{}, error) {
	return c.request(ctx, discordID, PathWithdrawCancel, nil)
}

// ConfirmWithdraw reports a completed in-game hand-off.
func (c *Client) ConfirmWithdraw(ctx context.Context, discordID string) (map[string]interface{}, error) {
	return c.request(ctx, discordID, PathWithdrawConfirm, nil)
}

// Deposit records items handed to the bot in game.
func (c *Client) Deposit(ctx context.Context, discordID string, items []model.TradeItem) (map[string]interface{}, error) {
	encoded := make([]interface{}, 0, len(items))
	for _, it := range items {
		encoded = append(encoded, map[string]interface{}{
			"name":     it.Name,
			"gameName": it.GameName,
			"quantity": it.Quantity,
			"assetId":  it.AssetID,
			"holder":   it.Holder,
		})
	}
	return c.request(ctx, discordID, PathDeposit, map[string]interface{}{"items": encoded})
}

// Inventory fetches the requester's stored items.
func (c *Client) Inventory(ctx context.Context, discordID string) (map[string]interface{}, error) {
	return c.request(ctx, discordID, PathInventoryGet, nil)
}

// request enforces the verification precondition, seals the payload with the
// bound identity, and POSTs it. Transient failures get exactly one retry,
// then surface as service-unavailable.
func (c *Client) request(ctx context.Context, discordID, path string, data map[string]interface{}) (map[string]interface{}, error) {
	binding, err := c.bindings.VerifiedBinding(ctx, discordID)
	if err != nil {
		return nil, err
	}

	if data == nil {
		data = map[string]interface{}{}
	}
	data["userId"] = binding.RobloxUserID
	data["username"] = binding.RobloxUsername

	env, err := c.signer.Seal(data)
	if err != nil {
		return nil, apierror.InternalError("")
	}

	body, err := json.Marshal(env)
	if err != nil {
		return nil, apierror.InternalError("")
	}

	for attempt := 0; attempt < 2; attempt++ {
		result, err := c.post(ctx, path, body)
		if err == nil {
			return result, nil
		}
		if !isTransient(err) {
			return nil, err
		}
	}

	return nil, apierror.ServiceUnavailable("Trading service is unavailable, try again later")
}

// transientError marks retryable transport failures internally.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }

func isTransient(err error) bool {
	_, ok := err.(*transientError)
	return ok
}

func (c *Client) post(ctx context.Context, path string, body []byte) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, apierror.InternalError("")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &transientError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, &transientError{err: fmt.Errorf("trading api responded %d", resp.StatusCode)}
	}

	var parsed struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apierror.ServiceUnavailable("Trading service returned an unreadable response")
	}

	if !parsed.Success {
		// Known business errors relay verbatim to the user.
		if parsed.Error != nil {
			return nil, &apierror.Error{
				StatusCode: resp.StatusCode,
				Code:       parsed.Error.Code,
				Message:    parsed.Error.Message,
			}
		}
		return nil, apierror.ServiceUnavailable("")
	}

	return parsed.Data, nil
}
