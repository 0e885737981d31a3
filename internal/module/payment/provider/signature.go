package provider

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"strings"

	apperrors "github.com/vestire/server/internal/shared/errors"
)

// IPNSignatureHeader carries the HMAC of a crypto provider callback.
const IPNSignatureHeader = "x-nowpayments-sig"

// SignIPN returns the hex HMAC-SHA512 of body with its object keys sorted.
func SignIPN(body []byte, secret string) (string, error) {
	canonical, err := canonicalJSON(body)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(canonical)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// VerifyIPNSignature checks signature against the sorted-key HMAC of body.
func VerifyIPNSignature(body []byte, signature, secret string) error {
	if strings.TrimSpace(signature) == "" {
		return apperrors.Authentication("missing callback signature")
	}
	expected, err := SignIPN(body, secret)
	if err != nil {
		return apperrors.Validation("callback body is not valid JSON")
	}
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature)))) {
		return apperrors.Authentication("invalid callback signature")
	}
	return nil
}

// canonicalJSON re-encodes body with sorted object keys, unescaped HTML
// characters and numbers kept as sent.
func canonicalJSON(body []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
