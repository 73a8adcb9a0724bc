// Package webhook implements the Stripe v1 webhook signature scheme:
//
//	Stripe-Signature: t={timestamp},v1={hex(HMAC-SHA256(secret, "{timestamp}.{payload}"))}
//
// Verification must run over the raw request bytes exactly as received;
// re-serializing the body produces a different digest.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidSignature is deliberately the only failure detail exposed.
var ErrInvalidSignature = errors.New("invalid signature")

// ParseSignatureHeader extracts the t and v1 values from the signature
// header. Other elements (older scheme versions such as v0) are ignored.
func ParseSignatureHeader(header string) (timestamp, signature string, err error) {
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "t="):
			timestamp = strings.TrimPrefix(part, "t=")
		case strings.HasPrefix(part, "v1="):
			signature = strings.TrimPrefix(part, "v1=")
		}
	}
	if timestamp == "" || signature == "" {
		return "", "", ErrInvalidSignature
	}
	return timestamp, signature, nil
}

// ComputeSignature returns hex(HMAC-SHA256(secret, timestamp + "." + payload)).
func ComputeSignature(timestamp string, payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify authenticates payload against the signature header. The digest
// comparison is constant time (length check then byte-wise compare), so
// a forged signature learns nothing from response timing.
func Verify(payload []byte, header, secret string) error {
	timestamp, signature, err := ParseSignatureHeader(header)
	if err != nil {
		return err
	}
	expected := ComputeSignature(timestamp, payload, secret)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign produces a complete Stripe-Signature header value. Used to forge
// valid deliveries in tests and local tooling.
func Sign(payload []byte, secret string, timestamp int64) string {
	ts := strconv.FormatInt(timestamp, 10)
	return fmt.Sprintf("t=%s,v1=%s", ts, ComputeSignature(ts, payload, secret))
}
