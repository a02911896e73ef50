package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns hex(HMAC-SHA256(secret, timestamp+webhookID)).
func Sign(secret, timestamp, webhookID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(timestamp + webhookID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify accepts only the exact lowercase hex digest Sign produces.
func Verify(secret, timestamp, webhookID, signature string) bool {
	return hmac.Equal([]byte(Sign(secret, timestamp, webhookID)), []byte(signature))
}
