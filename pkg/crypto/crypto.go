package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// ComputeHMAC256 signs the payload with HMAC-SHA256 and returns the hex
// encoded signature.
func ComputeHMAC256(payload []byte, secretKey string) string {
	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyHMAC256 checks the provided hex signature against the payload in
// constant time. An empty signature never validates.
func VerifyHMAC256(payload []byte, providedSignature, secretKey string) bool {
	if providedSignature == "" {
		return false
	}

	provided, err := hex.DecodeString(providedSignature)
	if err != nil {
		return false
	}

	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write(payload)
	return hmac.Equal(h.Sum(nil), provided)
}
