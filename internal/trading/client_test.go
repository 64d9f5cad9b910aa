package trading

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"bloxstake-trading-api/internal/model"
	"bloxstake-trading-api/internal/security"
	"bloxstake-trading-api/pkg/apierror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-signing-secret"

type staticBindings struct {
	binding *model.Binding
	err     error
}

func (s *staticBindings) VerifiedBinding(ctx context.Context, discordID string) (*model.Binding, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.binding, nil
}

func verifiedSource() *staticBindings {
	return &staticBindings{binding: &model.Binding{
		DiscordID:      "111222333444555666",
		RobloxUserID:   156,
		RobloxUsername: "builderman",
		Status:         model.BindingVerified,
	}}
}

func newTestClient(url string, bindings BindingSource) *Client {
	return NewClient(Config{BaseURL: url, APIKey: "agent-key"}, security.NewSigner(testSecret), bindings)
}

func TestRequestSignsAndAuthenticates(t *testing.T) {
	verifier := security.NewSigner(testSecret)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathInventoryGet, r.URL.Path)
		assert.Equal(t, "agent-key", r.Header.Get("X-API-Key"))

		var env security.Envelope
		require.NoError(t, json.NewDecoder(r.Body).Decode(&env))
		assert.True(t, verifier.Verify(&env), "envelope must carry a valid signature")

		// Identity comes from the local binding, never from the caller.
		assert.Equal(t, float64(156), env.Data["userId"])
		assert.Equal(t, "builderman", env.Data["username"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"items": []interface{}{}, "count": 0},
		})
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL, verifiedSource()).Inventory(context.Background(), "111222333444555666")
	require.NoError(t, err)
	assert.Equal(t, float64(0), result["count"])
}

func TestRequestFailsLocallyWhenNotVerified(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	source := &staticBindings{err: apierror.NotVerified("")}
	_, err := newTestClient(srv.URL, source).Inventory(context.Background(), "111222333444555666")

	require.Error(t, err)
	assert.Equal(t, "NOT_VERIFIED", apierror.CodeOf(err))
	assert.False(t, called, "unverified requests must not reach the network")
}

func TestRequestRetriesOnceOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"exists": false},
		})
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL, verifiedSource()).GetWithdrawSession(context.Background(), "111222333444555666")
	require.NoError(t, err)
	assert.Equal(t, false, result["exists"])
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRequestGivesUpAfterOneRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, verifiedSource()).GetWithdrawSession(context.Background(), "111222333444555666")
	require.Error(t, err)
	assert.Equal(t, "SERVICE_UNAVAILABLE", apierror.CodeOf(err))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRequestRelaysBusinessErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error": map[string]interface{}{
				"code":    "CONFLICT",
				"message": "Insufficient stock",
			},
		})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, verifiedSource()).
		CreateWithdrawSession(context.Background(), "111222333444555666", "Chroma Luger", 3)

	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apierror.CodeOf(err))
	assert.Equal(t, "Insufficient stock", err.Error())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "business errors are not retried")
}

func TestDepositEncodesItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var env security.Envelope
		require.NoError(t, json.NewDecoder(r.Body).Decode(&env))

		items, ok := env.Data["items"].([]interface{})
		require.True(t, ok)
		require.Len(t, items, 1)
		item := items[0].(map[string]interface{})
		assert.Equal(t, "Chroma Luger", item["name"])
		assert.Equal(t, "MM2", item["gameName"])
		assert.Equal(t, float64(2), item["quantity"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"count": 1},
		})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, verifiedSource()).Deposit(context.Background(), "111222333444555666", []model.TradeItem{
		{Name: "Chroma Luger", GameName: "MM2", Quantity: 2},
	})
	require.NoError(t, err)
}

func TestCancelWithdrawHitsCancelRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathWithdrawCancel, r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"message": "Withdrawal session cancelled"},
		})
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL, verifiedSource()).CancelWithdraw(context.Background(), "111222333444555666")
	require.NoError(t, err)
	assert.Equal(t, "Withdrawal session cancelled", result["message"])
}
