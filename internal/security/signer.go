package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

const (
	// MaxPayloadAge is the replay window: signatures older than this are
	// rejected even when otherwise valid.
	MaxPayloadAge = 5 * time.Minute

	// ClockSkewTolerance is how far in the future a timestamp may be before
	// it is rejected.
	ClockSkewTolerance = 30 * time.Second
)

// Envelope is the signed request body exchanged with the trading API and the
// in-game automation agent. The signature covers Data and Timestamp.
type Envelope struct {
	Data      map[string]interface{} `json:"data"`
	Timestamp int64                  `json:"timestamp"`
	Signature string                 `json:"signature"`
}

// signedContent is the canonical byte layout the HMAC is computed over.
// encoding/json writes map keys in sorted order and structs in declaration
// order, which makes the encoding deterministic across processes as long as
// Data holds only maps, slices, strings, numbers and bools. This layout is a
// fixed wire contract shared with the automation agent; changing it breaks
// every deployed signer.
type signedContent struct {
	Data      map[string]interface{} `json:"data"`
	Timestamp int64                  `json:"timestamp"`
}

// Signer computes and validates HMAC-SHA256 signatures over canonicalized
// payloads. The secret is shared out-of-band and injected so it can be
// rotated and multiple signers can coexist in tests.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner creates a signer with the given shared secret.
func NewSigner(secret string) *Signer {
	return &Signer{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Canonicalize returns the canonical byte representation of a payload and
// timestamp, exported so tests can pin the exact wire contract.
func Canonicalize(data map[string]interface{}, timestamp int64) ([]byte, error) {
	b, err := json.Marshal(signedContent{Data: data, Timestamp: timestamp})
	if err != nil {
		return nil, fmt.Errorf("canonicalize payload: %w", err)
	}
	return b, nil
}

// Sign computes the hex HMAC-SHA256 signature for a payload at the given
// unix-seconds timestamp.
func (s *Signer) Sign(data map[string]interface{}, timestamp int64) (string, error) {
	canon, err := Canonicalize(data, timestamp)
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(canon)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Seal signs a payload with the current time and returns the complete
// envelope ready to send.
func (s *Signer) Seal(data map[string]interface{}) (*Envelope, error) {
	ts := s.now().Unix()
	sig, err := s.Sign(data, ts)
	if err != nil {
		return nil, err
	}
	return &Envelope{Data: data, Timestamp: ts, Signature: sig}, nil
}

// Verify reports whether an envelope carries a valid, fresh signature.
// It returns false for any mismatch, expiry or malformed input; callers treat
// false as "reject request", never as a fatal error.
func (s *Signer) Verify(env *Envelope) bool {
	ok, _ := s.VerifyReason(env)
	return ok
}

// VerifyReason is Verify plus a human-readable rejection reason intended for
// logs only. Handlers must not echo the reason to clients.
func (s *Signer) VerifyReason(env *Envelope) (bool, string) {
	if env == nil {
		return false, "missing envelope"
	}
	if env.Signature == "" {
		return false, "missing signature"
	}
	if env.Timestamp == 0 {
		return false, "missing timestamp"
	}

	expected, err := s.Sign(env.Data, env.Timestamp)
	if err != nil {
		return false, "payload not canonicalizable"
	}

	provided, err := hex.DecodeString(env.Signature)
	if err != nil {
		return false, "signature not hex"
	}

	expectedRaw, _ := hex.DecodeString(expected)
	if !hmac.Equal(provided, expectedRaw) {
		return false, "signature mismatch"
	}

	age := s.now().Sub(time.Unix(env.Timestamp, 0))
	if age > MaxPayloadAge {
		return false, fmt.Sprintf("payload too old (%s > %s)", age, MaxPayloadAge)
	}
	if age < -ClockSkewTolerance {
		return false, "timestamp in the future"
	}

	return true, ""
}
