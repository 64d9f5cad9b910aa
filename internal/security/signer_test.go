package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSigner(secret string, now time.Time) *Signer {
	s := NewSigner(secret)
	s.now = func() time.Time { return now }
	return s
}

func samplePayload() map[string]interface{} {
	return map[string]interface{}{
		"op":       "withdraw",
		"userId":   float64(42),
		"items":    []interface{}{map[string]interface{}{"name": "Chroma Lightbringer", "quantity": float64(1)}},
		"username": "Bob123",
	}
}

func TestSignerRoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := fixedSigner("test-secret", now)

	env, err := s.Seal(samplePayload())
	require.NoError(t, err)
	require.NotEmpty(t, env.Signature)
	assert.Equal(t, now.Unix(), env.Timestamp)

	assert.True(t, s.Verify(env))
}

func TestSignerRejectsTampering(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := fixedSigner("test-secret", now)

	t.Run("flipped signature byte", func(t *testing.T) {
		env, err := s.Seal(samplePayload())
		require.NoError(t, err)

		sig := []byte(env.Signature)
		if sig[0] == 'a' {
			sig[0] = 'b'
		} else {
			sig[0] = 'a'
		}
		env.Signature = string(sig)

		assert.False(t, s.Verify(env))
	})

	t.Run("mutated payload", func(t *testing.T) {
		env, err := s.Seal(samplePayload())
		require.NoError(t, err)

		env.Data["userId"] = float64(43)
		assert.False(t, s.Verify(env))
	})

	t.Run("altered timestamp", func(t *testing.T) {
		env, err := s.Seal(samplePayload())
		require.NoError(t, err)

		env.Timestamp++
		assert.False(t, s.Verify(env))
	})

	t.Run("wrong secret", func(t *testing.T) {
		env, err := s.Seal(samplePayload())
		require.NoError(t, err)

		other := fixedSigner("other-secret", now)
		assert.False(t, other.Verify(env))
	})
}

func TestSignerReplayWindow(t *testing.T) {
	signedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := fixedSigner("test-secret", signedAt)

	env, err := s.Seal(samplePayload())
	require.NoError(t, err)

	cases := []struct {
		name  string
		now   time.Time
		valid bool
	}{
		{"fresh", signedAt.Add(1 * time.Second), true},
		{"just inside window", signedAt.Add(4*time.Minute + 59*time.Second), true},
		{"past window", signedAt.Add(5*time.Minute + 1*time.Second), false},
		{"future within skew", signedAt.Add(-20 * time.Second), true},
		{"future beyond skew", signedAt.Add(-1 * time.Minute), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verifier := fixedSigner("test-secret", tc.now)
			assert.Equal(t, tc.valid, verifier.Verify(env))
		})
	}
}

func TestSignerRejectsMalformedEnvelopes(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := fixedSigner("test-secret", now)

	cases := []struct {
		name string
		env  *Envelope
	}{
		{"nil envelope", nil},
		{"missing signature", &Envelope{Data: samplePayload(), Timestamp: now.Unix()}},
		{"missing timestamp", &Envelope{Data: samplePayload(), Signature: "abcd"}},
		{"non-hex signature", &Envelope{Data: samplePayload(), Timestamp: now.Unix(), Signature: "not-hex!"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, reason := s.VerifyReason(tc.env)
			assert.False(t, ok)
			assert.NotEmpty(t, reason)
		})
	}
}

func TestCanonicalizeIsDeterministic(t *testing.T) {
	// Same content, different construction order.
	a := map[string]interface{}{"b": float64(2), "a": "x", "nested": map[string]interface{}{"z": true, "y": "w"}}
	b := map[string]interface{}{"nested": map[string]interface{}{"y": "w", "z": true}, "a": "x", "b": float64(2)}

	ca, err := Canonicalize(a, 1700000000)
	require.NoError(t, err)
	cb, err := Canonicalize(b, 1700000000)
	require.NoError(t, err)

	assert.Equal(t, ca, cb)

	// Pin the exact wire layout. Changing this breaks deployed signers.
	want := `{"data":{"a":"x","b":2,"nested":{"y":"w","z":true}},"timestamp":1700000000}`
	assert.Equal(t, want, string(ca))
}
