package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"bloxstake-trading-api/internal/middleware"
	"bloxstake-trading-api/internal/model"
	"bloxstake-trading-api/internal/security"
	"bloxstake-trading-api/internal/service"
	"bloxstake-trading-api/pkg/apierror"
	"bloxstake-trading-api/pkg/response"
)

// TradingHandler serves the trading endpoints consumed by the bot frontend
// and the in-game automation agent. All bodies are signed payload envelopes;
// whether the signature is actually enforced is decided per route.
type TradingHandler struct {
	sessions     *service.SessionService
	inventory    *service.InventoryService
	verification *service.VerificationService
}

// NewTradingHandler creates a new trading handler.
func NewTradingHandler(sessions *service.SessionService, inventory *service.InventoryService, verification *service.VerificationService) *TradingHandler {
	return &TradingHandler{
		sessions:     sessions,
		inventory:    inventory,
		verification: verification,
	}
}

// GetWithdrawSession handles POST Trading/Withdraw/GetSession
func (h *TradingHandler) GetWithdrawSession(w http.ResponseWriter, r *http.Request) {
	data, err := envelopeData(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	userID, ok := dataInt64(data, "userId")
	if !ok {
		response.Error(w, apierror.BadRequest("userId is required"))
		return
	}

	session, err := h.sessions.Get(r.Context(), userID)
	if err != nil {
		response.Error(w, err)
		return
	}

	if session == nil {
		response.OK(w, map[string]interface{}{"exists": false})
		return
	}

	response.OK(w, map[string]interface{}{
		"exists":     true,
		"session_id": session.SessionID,
		"items":      session.Items,
		"created_at": session.CreatedAt,
	})
}

// CreateWithdrawSession handles POST Trading/Withdraw/CreateSession
func (h *TradingHandler) CreateWithdrawSession(w http.ResponseWriter, r *http.Request) {
	data, err := envelopeData(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	userID, ok := dataInt64(data, "userId")
	if !ok {
		response.Error(w, apierror.BadRequest("userId is required"))
		return
	}

	items, err := dataItems(data)
	if err != nil {
		response.Error(w, err)
		return
	}

	// Stock is checked up front so the user hears "insufficient stock"
	// instead of a dangling session the agent can never fill.
	for _, item := range items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		if err := h.inventory.CheckStock(r.Context(), userID, item.Name, qty); err != nil {
			response.Error(w, err)
			return
		}
	}

	session, err := h.sessions.Create(r.Context(), userID, items)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"session_id": session.SessionID,
		"items":      session.Items,
		"created_at": session.CreatedAt,
	})
}

// CancelWithdrawSession handles POST Trading/Withdraw/CancelSession - drops
// an unclaimed reservation so the user can start over.
func (h *TradingHandler) CancelWithdrawSession(w http.ResponseWriter, r *http.Request) {
	data, err := envelopeData(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	userID, ok := dataInt64(data, "userId")
	if !ok {
		response.Error(w, apierror.BadRequest("userId is required"))
		return
	}

	if err := h.sessions.Cancel(r.Context(), userID); err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{"message": "Withdrawal session cancelled"})
}

// ConfirmWithdrawSession handles POST Trading/Withdraw/ConfirmSession.
// Routed behind signature verification: only the agent may confirm.
func (h *TradingHandler) ConfirmWithdrawSession(w http.ResponseWriter, r *http.Request) {
	data, err := envelopeData(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	userID, ok := dataInt64(data, "userId")
	if !ok {
		response.Error(w, apierror.BadRequest("userId is required"))
		return
	}

	session, err := h.sessions.Take(r.Context(), userID)
	if err != nil {
		response.Error(w, err)
		return
	}

	if err := h.inventory.CompleteWithdrawal(r.Context(), userID, session.Items); err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"message": "Withdrawal confirmed",
		"items":   session.Items,
	})
}

// Deposit handles POST Trading/Deposit. Routed behind signature
// verification: only the agent may record deposits.
func (h *TradingHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	data, err := envelopeData(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	userID, ok := dataInt64(data, "userId")
	if !ok {
		response.Error(w, apierror.BadRequest("userId is required"))
		return
	}

	items, err := dataItems(data)
	if err != nil {
		response.Error(w, err)
		return
	}

	if err := h.inventory.Deposit(r.Context(), userID, items); err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"message": "Deposited items",
		"count":   len(items),
	})
}

// GetInventory handles POST Inventory/Get
func (h *TradingHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	data, err := envelopeData(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	userID, ok := dataInt64(data, "userId")
	if !ok {
		response.Error(w, apierror.BadRequest("userId is required"))
		return
	}

	items, err := h.inventory.List(r.Context(), userID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

// CheckVerified handles POST User/CheckVerified - lets the agent ask whether
// a Roblox account has completed Discord verification.
func (h *TradingHandler) CheckVerified(w http.ResponseWriter, r *http.Request) {
	data, err := envelopeData(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	userID, ok := dataInt64(data, "robloxUserId")
	if !ok {
		response.Error(w, apierror.BadRequest("robloxUserId is required"))
		return
	}

	verified, err := h.verification.IsRobloxUserVerified(r.Context(), userID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"roblox_user_id": userID,
		"verified":       verified,
	})
}

// envelopeData returns the payload of the request's signed envelope. When the
// signature middleware already verified the body, the envelope comes from
// context; otherwise the body is decoded here (API-key routes).
func envelopeData(r *http.Request) (map[string]interface{}, error) {
	if env := middleware.GetEnvelope(r.Context()); env != nil {
		return env.Data, nil
	}

	var env security.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		return nil, apierror.BadRequest("invalid request body")
	}
	r.Body.Close()

	if env.Data == nil {
		return nil, apierror.BadRequest("data is required")
	}
	return env.Data, nil
}

// dataInt64 extracts an integer field that may arrive as a JSON number or a
// decimal string.
func dataInt64(data map[string]interface{}, key string) (int64, bool) {
	switch v := data[key].(type) {
	case float64:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}

// dataItems decodes the "items" field into typed trade items.
func dataItems(data map[string]interface{}) ([]model.TradeItem, error) {
	raw, ok := data["items"]
	if !ok {
		return nil, apierror.BadRequest("items are required")
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, apierror.BadRequest("items are malformed")
	}

	var items []model.TradeItem
	if err := json.Unmarshal(encoded, &items); err != nil {
		return nil, apierror.BadRequest("items are malformed")
	}
	if len(items) == 0 {
		return nil, apierror.BadRequest("items are required")
	}
	return items, nil
}
