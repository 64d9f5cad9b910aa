package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"bloxstake-trading-api/internal/cache"
	"bloxstake-trading-api/internal/handler"
	"bloxstake-trading-api/internal/lock"
	"bloxstake-trading-api/internal/middleware"
	"bloxstake-trading-api/internal/repository"
	"bloxstake-trading-api/internal/roblox"
	"bloxstake-trading-api/internal/security"
	"bloxstake-trading-api/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAPIKey = "test-api-key"
	testSecret = "test-signing-secret"
	discordID  = "111222333444555666"
	robloxID   = int64(156)
	robloxName = "builderman"
)

// fakeRoblox stands in for the Roblox platform. The bio is mutable so tests
// can simulate the user editing their profile.
type fakeRoblox struct {
	bio string
}

func (f *fakeRoblox) server() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/usernames/users", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"id": robloxID, "name": robloxName, "displayName": robloxName},
			},
		})
	})
	mux.HandleFunc(fmt.Sprintf("/v1/users/%d", robloxID), func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": robloxID, "name": robloxName, "description": f.bio,
		})
	})
	mux.HandleFunc("/v1/users/avatar-headshot", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"state": "Completed", "imageUrl": "https://tr.rbxcdn.com/headshot.png"},
			},
		})
	})
	return httptest.NewServer(mux)
}

type testStack struct {
	router http.Handler
	roblox *fakeRoblox
	signer *security.Signer
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	db, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	fake := &fakeRoblox{}
	srv := fake.server()
	t.Cleanup(srv.Close)

	robloxClient := roblox.NewClient(roblox.Config{
		UsersBaseURL:      srv.URL,
		ThumbnailsBaseURL: srv.URL,
	})

	bindingRepo := repository.NewSQLiteBindingRepository(db)
	profileRepo := repository.NewSQLiteProfileRepository(db)
	inventoryRepo := repository.NewSQLiteInventoryRepository(db)
	tradeRepo := repository.NewSQLiteTradeRepository(db)

	signer := security.NewSigner(testSecret)
	verification := service.NewVerificationService(bindingRepo, profileRepo, robloxClient, lock.NewMemoryLocker())
	sessions := service.NewSessionService(cache.NewMemoryCache())
	inventory := service.NewInventoryService(inventoryRepo, tradeRepo)
	stats := service.NewStatsService(bindingRepo, inventoryRepo, tradeRepo)

	r := New(Config{
		Handler:             handler.New(),
		VerificationHandler: handler.NewVerificationHandler(verification),
		TradingHandler:      handler.NewTradingHandler(sessions, inventory, verification),
		StatsHandler:        handler.NewStatsHandler(stats),
		AuthMiddleware:      middleware.APIKeyAuth([]string{testAPIKey}),
		SignatureMiddleware: middleware.VerifySignature(signer),
	})

	return &testStack{router: r, roblox: fake, signer: signer}
}

func (s *testStack) do(t *testing.T, method, path string, body []byte, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("X-API-Key", testAPIKey)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testStack) signedPost(t *testing.T, path string, data map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	env, err := s.signer.Seal(data)
	require.NoError(t, err)
	body, err := json.Marshal(env)
	require.NoError(t, err)
	return s.do(t, http.MethodPost, path, body, true)
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var parsed struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	require.True(t, parsed.Success, "expected success response, got %s", rec.Body.String())
	return parsed.Data
}

func TestPublicStatusNeedsNoKey(t *testing.T) {
	stack := newTestStack(t)

	rec := stack.do(t, http.MethodGet, "/api/status", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bloxstake-trading-api")
}

func TestProtectedRoutesRequireKey(t *testing.T) {
	stack := newTestStack(t)

	for _, path := range []string{
		"/api/v1/verify/start",
		"/api/mm2/MurderMystery2/Inventory/Get",
		"/api/mm2/MurderMystery2/Trading/Deposit",
	} {
		rec := stack.do(t, http.MethodPost, path, []byte(`{}`), false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestVerificationFlowEndToEnd(t *testing.T) {
	stack := newTestStack(t)

	// Start: resolves the username and issues a code.
	rec := stack.do(t, http.MethodPost, "/api/v1/verify/start",
		[]byte(fmt.Sprintf(`{"discord_id":%q,"username":%q}`, discordID, robloxName)), true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decodeData(t, rec)
	code, _ := data["code"].(string)
	require.NotEmpty(t, code)
	assert.Equal(t, float64(robloxID), data["roblox_user_id"])

	// Check before the bio is edited: mismatch.
	checkBody := []byte(fmt.Sprintf(`{"discord_id":%q}`, discordID))
	rec = stack.do(t, http.MethodPost, "/api/v1/verify/check", checkBody, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The user pastes the code into their bio.
	stack.roblox.bio = "trading here: " + code
	rec = stack.do(t, http.MethodPost, "/api/v1/verify/check", checkBody, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data = decodeData(t, rec)
	assert.Equal(t, "verified", data["status"])

	// The account summary is now available.
	rec = stack.do(t, http.MethodGet, "/api/v1/verify/"+discordID, nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	// The agent sees the Roblox account as verified.
	rec = stack.signedPost(t, "/api/mm2/MurderMystery2/User/CheckVerified",
		map[string]interface{}{"robloxUserId": robloxID})
	require.Equal(t, http.StatusOK, rec.Code)
	data = decodeData(t, rec)
	assert.Equal(t, true, data["verified"])
}

func TestSecondDiscordUserCannotClaimSameAccount(t *testing.T) {
	stack := newTestStack(t)

	start := func(id string) *httptest.ResponseRecorder {
		return stack.do(t, http.MethodPost, "/api/v1/verify/start",
			[]byte(fmt.Sprintf(`{"discord_id":%q,"username":%q}`, id, robloxName)), true)
	}

	rec := start(discordID)
	require.Equal(t, http.StatusOK, rec.Code)
	code := decodeData(t, rec)["code"].(string)

	stack.roblox.bio = code
	rec = stack.do(t, http.MethodPost, "/api/v1/verify/check",
		[]byte(fmt.Sprintf(`{"discord_id":%q}`, discordID)), true)
	require.Equal(t, http.StatusOK, rec.Code)

	// A different Discord identity targeting the same Roblox account is
	// rejected before a code is even issued.
	rec = start("999888777666555444")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "ALREADY_LINKED")
}

func TestTradingFlowEndToEnd(t *testing.T) {
	stack := newTestStack(t)

	// Deposits need a valid signature; an API key alone is rejected.
	rec := stack.do(t, http.MethodPost, "/api/mm2/MurderMystery2/Trading/Deposit",
		[]byte(`{"data":{"userId":156,"items":[{"name":"Chroma Luger"}]},"timestamp":1,"signature":"00"}`), true)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Signed deposit goes through.
	rec = stack.signedPost(t, "/api/mm2/MurderMystery2/Trading/Deposit", map[string]interface{}{
		"userId": robloxID,
		"items": []interface{}{
			map[string]interface{}{"name": "Chroma Luger", "gameName": "MM2", "quantity": 1},
			map[string]interface{}{"name": "Chroma Luger", "gameName": "MM2", "quantity": 1},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Inventory reflects the deposit.
	rec = stack.signedPost(t, "/api/mm2/MurderMystery2/Inventory/Get",
		map[string]interface{}{"userId": robloxID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), decodeData(t, rec)["count"])

	// No session yet.
	rec = stack.signedPost(t, "/api/mm2/MurderMystery2/Trading/Withdraw/GetSession",
		map[string]interface{}{"userId": robloxID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeData(t, rec)["exists"])

	// Requesting more than held fails the stock check.
	rec = stack.signedPost(t, "/api/mm2/MurderMystery2/Trading/Withdraw/CreateSession",
		map[string]interface{}{
			"userId": robloxID,
			"items": []interface{}{
				map[string]interface{}{"name": "Chroma Luger", "quantity": 5},
			},
		})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Within stock: session created.
	rec = stack.signedPost(t, "/api/mm2/MurderMystery2/Trading/Withdraw/CreateSession",
		map[string]interface{}{
			"userId": robloxID,
			"items": []interface{}{
				map[string]interface{}{"name": "Chroma Luger", "quantity": 2},
			},
		})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decodeData(t, rec)["session_id"])

	// Session is visible until confirmed.
	rec = stack.signedPost(t, "/api/mm2/MurderMystery2/Trading/Withdraw/GetSession",
		map[string]interface{}{"userId": robloxID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeData(t, rec)["exists"])

	// Confirm completes the hand-off and empties storage.
	rec = stack.signedPost(t, "/api/mm2/MurderMystery2/Trading/Withdraw/ConfirmSession",
		map[string]interface{}{"userId": robloxID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = stack.signedPost(t, "/api/mm2/MurderMystery2/Inventory/Get",
		map[string]interface{}{"userId": robloxID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decodeData(t, rec)["count"])

	// Stats reflect the round trip.
	rec = stack.do(t, http.MethodGet, "/api/mm2/MurderMystery2/Stats", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, float64(1), data["deposits"])
	assert.Equal(t, float64(1), data["withdrawals"])

	if !strings.Contains(rec.Body.String(), "uptime") {
		t.Errorf("stats body missing uptime: %s", rec.Body.String())
	}
}

func TestBatchedDepositSurvivesPartialWithdrawal(t *testing.T) {
	stack := newTestStack(t)

	// A deposit can arrive as one batched row carrying several units.
	rec := stack.signedPost(t, "/api/mm2/MurderMystery2/Trading/Deposit", map[string]interface{}{
		"userId": robloxID,
		"items": []interface{}{
			map[string]interface{}{"name": "Chroma Luger", "gameName": "MM2", "quantity": 3},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Withdrawing 2 of the 3 units passes the stock check ...
	rec = stack.signedPost(t, "/api/mm2/MurderMystery2/Trading/Withdraw/CreateSession",
		map[string]interface{}{
			"userId": robloxID,
			"items": []interface{}{
				map[string]interface{}{"name": "Chroma Luger", "quantity": 2},
			},
		})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = stack.signedPost(t, "/api/mm2/MurderMystery2/Trading/Withdraw/ConfirmSession",
		map[string]interface{}{"userId": robloxID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// ... and the remaining unit is still in storage afterwards.
	rec = stack.signedPost(t, "/api/mm2/MurderMystery2/Inventory/Get",
		map[string]interface{}{"userId": robloxID})
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	require.Equal(t, float64(1), data["count"])
	items := data["items"].([]interface{})
	item := items[0].(map[string]interface{})
	assert.Equal(t, "Chroma Luger", item["item_name"])
	assert.Equal(t, float64(1), item["quantity"])
}

func TestWithdrawCancelFreesSession(t *testing.T) {
	stack := newTestStack(t)

	rec := stack.signedPost(t, "/api/mm2/MurderMystery2/Trading/Deposit", map[string]interface{}{
		"userId": robloxID,
		"items": []interface{}{
			map[string]interface{}{"name": "Chroma Luger", "gameName": "MM2", "quantity": 1},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = stack.signedPost(t, "/api/mm2/MurderMystery2/Trading/Withdraw/CreateSession",
		map[string]interface{}{
			"userId": robloxID,
			"items": []interface{}{
				map[string]interface{}{"name": "Chroma Luger", "quantity": 1},
			},
		})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Cancel drops the reservation without touching storage.
	rec = stack.signedPost(t, "/api/mm2/MurderMystery2/Trading/Withdraw/CancelSession",
		map[string]interface{}{"userId": robloxID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = stack.signedPost(t, "/api/mm2/MurderMystery2/Trading/Withdraw/GetSession",
		map[string]interface{}{"userId": robloxID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeData(t, rec)["exists"])

	rec = stack.signedPost(t, "/api/mm2/MurderMystery2/Inventory/Get",
		map[string]interface{}{"userId": robloxID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decodeData(t, rec)["count"])

	// Cancelling again reports there is nothing to cancel.
	rec = stack.signedPost(t, "/api/mm2/MurderMystery2/Trading/Withdraw/CancelSession",
		map[string]interface{}{"userId": robloxID})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// A fresh session can be created after the cancel.
	rec = stack.signedPost(t, "/api/mm2/MurderMystery2/Trading/Withdraw/CreateSession",
		map[string]interface{}{
			"userId": robloxID,
			"items": []interface{}{
				map[string]interface{}{"name": "Chroma Luger", "quantity": 1},
			},
		})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
