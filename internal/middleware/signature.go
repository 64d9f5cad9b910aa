package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"bloxstake-trading-api/internal/security"
	"bloxstake-trading-api/pkg/apierror"
)

// EnvelopeKey is the context key holding the verified signed envelope.
const EnvelopeKey contextKey = "signed_envelope"

// VerifySignature authenticates agent-originated requests carrying a signed
// payload envelope. The rejection reason is logged but never sent to the
// client, so a probing caller learns nothing about why a forgery failed.
func VerifySignature(signer *security.Signer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var env security.Envelope
			if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
				log.Printf("[Signature] %s: undecodable envelope: %v", r.URL.Path, err)
				writeError(w, apierror.SignatureInvalid())
				return
			}
			r.Body.Close()

			if ok, reason := signer.VerifyReason(&env); !ok {
				log.Printf("[Signature] %s: rejected: %s", r.URL.Path, reason)
				writeError(w, apierror.SignatureInvalid())
				return
			}

			ctx := context.WithValue(r.Context(), EnvelopeKey, &env)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetEnvelope retrieves the verified envelope from request context.
func GetEnvelope(ctx context.Context) *security.Envelope {
	if env, ok := ctx.Value(EnvelopeKey).(*security.Envelope); ok {
		return env
	}
	return nil
}
