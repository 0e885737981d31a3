package provider

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/vestire/server/internal/shared/errors"
)

func TestSignIPN_SortsKeys(t *testing.T) {
	body := []byte(`{"payment_status":"finished","order_id":"abc123","price_amount":100.50,"invoice_id":4522625843,"meta":{"z":1,"a":"<b>"}}`)
	sorted := `{"invoice_id":4522625843,"meta":{"a":"<b>","z":1},"order_id":"abc123","payment_status":"finished","price_amount":100.50}`

	mac := hmac.New(sha512.New, []byte("ipn-secret"))
	mac.Write([]byte(sorted))
	want := hex.EncodeToString(mac.Sum(nil))

	got, err := SignIPN(body, "ipn-secret")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestVerifyIPNSignature(t *testing.T) {
	body := []byte(`{"order_id":"abc123","invoice_id":1}`)
	sig, err := SignIPN(body, "ipn-secret")
	require.NoError(t, err)

	assert.NoError(t, VerifyIPNSignature(body, sig, "ipn-secret"))

	err = VerifyIPNSignature(body, sig, "other-secret")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAuthentication))

	err = VerifyIPNSignature(body, "", "ipn-secret")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAuthentication))

	err = VerifyIPNSignature([]byte(`not json`), sig, "ipn-secret")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}
