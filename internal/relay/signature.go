package relay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

const (
	// SignatureHeader is the primary Zendesk webhook signature header.
	SignatureHeader = "X-Zendesk-Webhook-Signature"
	// LegacySignatureHeader is consulted when SignatureHeader is absent.
	LegacySignatureHeader = "X-Zendesk-Signature"
	signaturePrefix       = "sha256="
)

// SignatureFromHeaders returns the first non-empty signature header value.
func SignatureFromHeaders(header http.Header) string {
	for _, key := range []string{SignatureHeader, LegacySignatureHeader} {
		if value := strings.TrimSpace(header.Get(key)); value != "" {
			return value
		}
	}
	return ""
}

// VerifySignature reports whether header carries the HMAC-SHA256 of body keyed by secret.
// It fails closed: an empty secret, an empty header or a malformed digest all yield false.
func VerifySignature(body []byte, header, secret string) bool {
	if secret == "" {
		return false
	}
	signature := strings.TrimSpace(header)
	if len(signature) >= len(signaturePrefix) && strings.EqualFold(signature[:len(signaturePrefix)], signaturePrefix) {
		signature = signature[len(signaturePrefix):]
	}
	supplied, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(supplied) != sha256.Size {
		return false
	}
	return hmac.Equal(computeMAC(body, secret), supplied)
}

// Sign returns the signature header value for body keyed by secret.
func Sign(body []byte, secret string) string {
	return signaturePrefix + hex.EncodeToString(computeMAC(body, secret))
}

func computeMAC(body []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}
