package webhook_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlane/voxlane-backend/pkg/webhook"
)

const testSecret = "whsec_test_secret"

func TestVerifyRoundTrip(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	header := webhook.Sign(payload, testSecret, 1700000000)

	require.NoError(t, webhook.Verify(payload, header, testSecret))
}

func TestVerifyIgnoresOtherSchemeVersions(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	sig := webhook.ComputeSignature("1700000000", payload, testSecret)
	header := fmt.Sprintf("t=1700000000, v0=deadbeef, v1=%s", sig)

	require.NoError(t, webhook.Verify(payload, header, testSecret))
}

func TestVerifyTamperedPayload(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	header := webhook.Sign(payload, testSecret, 1700000000)

	tampered := append([]byte(nil), payload...)
	tampered[0] ^= 0x01

	assert.ErrorIs(t, webhook.Verify(tampered, header, testSecret), webhook.ErrInvalidSignature)
}

func TestVerifyTamperedTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	sig := webhook.ComputeSignature("1700000000", payload, testSecret)
	header := fmt.Sprintf("t=1700000001,v1=%s", sig)

	assert.ErrorIs(t, webhook.Verify(payload, header, testSecret), webhook.ErrInvalidSignature)
}

func TestVerifyTamperedSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	sig := webhook.ComputeSignature("1700000000", payload, testSecret)

	// Flip one hex character.
	flipped := []byte(sig)
	if flipped[0] == 'a' {
		flipped[0] = 'b'
	} else {
		flipped[0] = 'a'
	}
	header := fmt.Sprintf("t=1700000000,v1=%s", string(flipped))

	assert.ErrorIs(t, webhook.Verify(payload, header, testSecret), webhook.ErrInvalidSignature)
}

func TestVerifyWrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	header := webhook.Sign(payload, testSecret, 1700000000)

	assert.ErrorIs(t, webhook.Verify(payload, header, "whsec_other"), webhook.ErrInvalidSignature)
}

func TestParseSignatureHeaderMissingParts(t *testing.T) {
	cases := map[string]string{
		"empty":       "",
		"missing t":   "v1=abc",
		"missing v1":  "t=1700000000",
		"only v0":     "t=1700000000,v0=abc",
		"no keys":     "1700000000,abc",
		"empty value": "t=,v1=abc",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := webhook.ParseSignatureHeader(header)
			assert.ErrorIs(t, err, webhook.ErrInvalidSignature)
		})
	}
}

func TestParseSignatureHeaderTrimsWhitespace(t *testing.T) {
	timestamp, sig, err := webhook.ParseSignatureHeader(" t=1700000000 , v1=abc123 ")
	require.NoError(t, err)
	assert.Equal(t, "1700000000", timestamp)
	assert.Equal(t, "abc123", sig)
}
