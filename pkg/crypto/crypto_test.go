package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeHMAC256(t *testing.T) {
	payload := []byte(`{"event":"delivered"}`)

	sig1 := ComputeHMAC256(payload, "secret")
	sig2 := ComputeHMAC256(payload, "secret")
	assert.Equal(t, sig1, sig2, "same payload and key must produce the same signature")

	sigOther := ComputeHMAC256(payload, "other-secret")
	assert.NotEqual(t, sig1, sigOther)

	// hex encoded sha256 output
	assert.Len(t, sig1, 64)
}

func TestVerifyHMAC256(t *testing.T) {
	payload := []byte(`[{"sg_event_id":"abc","event":"open"}]`)
	sig := ComputeHMAC256(payload, "secret")

	t.Run("valid signature", func(t *testing.T) {
		assert.True(t, VerifyHMAC256(payload, sig, "secret"))
	})

	t.Run("tampered payload", func(t *testing.T) {
		tampered := append([]byte{}, payload...)
		tampered[0] = '{'
		assert.False(t, VerifyHMAC256(tampered, sig, "secret"))
	})

	t.Run("wrong key", func(t *testing.T) {
		assert.False(t, VerifyHMAC256(payload, sig, "not-the-secret"))
	})

	t.Run("empty signature", func(t *testing.T) {
		assert.False(t, VerifyHMAC256(payload, "", "secret"))
	})

	t.Run("non hex signature", func(t *testing.T) {
		assert.False(t, VerifyHMAC256(payload, "zzzz", "secret"))
	})
}
