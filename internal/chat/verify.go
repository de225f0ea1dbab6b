// Package chat is the client for the chat platform: inbound request
// signature verification and outbound thread replies and direct messages.
package chat

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"log"
	"strconv"
	"time"
)

// replayWindow bounds how stale a signed request may be.
const replayWindow = 5 * time.Minute

// Verifier validates that an inbound event genuinely originated from the
// chat platform and is fresh.
type Verifier struct {
	signingSecret string
	now           func() time.Time
}

// NewVerifier creates a Verifier for the given signing secret.
func NewVerifier(signingSecret string) *Verifier {
	return &Verifier{signingSecret: signingSecret, now: time.Now}
}

// NewVerifierWithClock creates a Verifier with an injectable clock for tests.
func NewVerifierWithClock(signingSecret string, now func() time.Time) *Verifier {
	return &Verifier{signingSecret: signingSecret, now: now}
}

// Verify checks the request signature: reject anything outside the
// 5-minute replay window, then compare the supplied signature against
// HMAC-SHA256 over "v0:{timestamp}:{body}" in constant time. Never
// returns an error; any failure is false.
func (v *Verifier) Verify(signature, timestamp, body string) bool {
	if v.signingSecret == "" {
		log.Print("chat: signing secret not configured")
		return false
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		log.Printf("chat: malformed request timestamp %q", timestamp)
		return false
	}

	age := v.now().Unix() - ts
	if age < 0 {
		age = -age
	}
	if age > int64(replayWindow/time.Second) {
		log.Print("chat: request timestamp outside replay window")
		return false
	}

	mac := hmac.New(sha256.New, []byte(v.signingSecret))
	mac.Write([]byte("v0:" + timestamp + ":" + body))
	expected := "v0=" + hex.EncodeToString(mac.Sum(nil))

	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
