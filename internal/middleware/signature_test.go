package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bloxstake-trading-api/internal/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedBody(t *testing.T, signer *security.Signer, data map[string]interface{}) []byte {
	t.Helper()
	env, err := signer.Seal(data)
	require.NoError(t, err)
	body, err := json.Marshal(env)
	require.NoError(t, err)
	return body
}

func TestVerifySignatureAcceptsValidEnvelope(t *testing.T) {
	signer := security.NewSigner("secret")

	var captured *security.Envelope
	handler := VerifySignature(signer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetEnvelope(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	body := signedBody(t, signer, map[string]interface{}{"userId": float64(156)})
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, float64(156), captured.Data["userId"])
}

func TestVerifySignatureRejections(t *testing.T) {
	signer := security.NewSigner("secret")
	handler := VerifySignature(signer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run on rejected requests")
	}))

	forged := signedBody(t, security.NewSigner("wrong-secret"), map[string]interface{}{"userId": float64(156)})

	tampered := signedBody(t, signer, map[string]interface{}{"userId": float64(156)})
	tampered = bytes.Replace(tampered, []byte(`156`), []byte(`157`), 1)

	tests := []struct {
		name string
		body string
	}{
		{"not json", "not-json"},
		{"missing signature", `{"data":{"userId":156},"timestamp":1700000000}`},
		{"wrong secret", string(forged)},
		{"tampered payload", string(tampered)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			// The client never learns the specific reason.
			assert.Contains(t, rec.Body.String(), "Request could not be authenticated")
			assert.NotContains(t, rec.Body.String(), "signature mismatch")
		})
	}
}
