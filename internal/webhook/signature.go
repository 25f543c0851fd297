package webhook

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	apperrors "github.com/tdcjreform/community/internal/errors"
)

const (
	SignatureHeader = "X-Hub-Signature"
	signaturePrefix = "sha1="
)

// ValidateSignature verifies the HMAC-SHA1 signature of a GitHub webhook payload.
// Any failure is returned as an authentication error (HTTP 403).
func ValidateSignature(payload []byte, signature string, secret string) error {
	if secret == "" {
		return apperrors.NewAuthenticationError(apperrors.ErrSecretRequired)
	}

	if !strings.HasPrefix(signature, signaturePrefix) {
		return apperrors.NewAuthenticationError(fmt.Errorf("%w: missing %q prefix", apperrors.ErrInvalidSignature, signaturePrefix))
	}

	expected, err := hex.DecodeString(strings.TrimPrefix(signature, signaturePrefix))
	if err != nil {
		return apperrors.NewAuthenticationError(fmt.Errorf("%w: malformed hex digest", apperrors.ErrInvalidSignature))
	}

	if !hmac.Equal(expected, Sign(payload, secret)) {
		return apperrors.NewAuthenticationError(apperrors.ErrInvalidSignature)
	}

	return nil
}

// Sign returns the raw HMAC-SHA1 digest of payload keyed with secret
func Sign(payload []byte, secret string) []byte {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(payload)
	return mac.Sum(nil)
}

// FormatSignature renders a digest the way GitHub sends it in X-Hub-Signature
func FormatSignature(payload []byte, secret string) string {
	return signaturePrefix + hex.EncodeToString(Sign(payload, secret))
}
