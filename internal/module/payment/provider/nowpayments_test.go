package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/vestire/server/internal/shared/errors"
)

func newNOWPaymentsTest(t *testing.T, apiKey string, handler http.HandlerFunc) (*NOWPaymentsClient, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if apiKey != "" {
			assert.Equal(t, apiKey, r.Header.Get("x-api-key"))
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client := NewNOWPaymentsClient(NOWPaymentsConfig{
		BaseURL:   srv.URL,
		APIKey:    apiKey,
		PublicURL: "https://shop.example",
	}, testConfig(nil))
	return client, &hits
}

func TestNOWPayments_CreateInvoice(t *testing.T) {
	var got map[string]any
	client, _ := newNOWPaymentsTest(t, "np_key", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/invoice", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"4522625843","order_id":"abc123","order_description":"Order ORD-1","price_amount":"100","price_currency":"usd","pay_currency":null,"invoice_url":"https://nowpayments.io/payment/?iid=4522625843"}`))
	})

	inv, err := client.CreateInvoice(context.Background(), &CreateCryptoInvoiceInput{
		OrderID:     "abc123",
		OrderNumber: "ORD-1",
		Amount:      decimal.NewFromInt(100),
		Email:       "a@b.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "4522625843", inv.ID)
	assert.Equal(t, inv.InvoiceURL, inv.PaymentURL)
	assert.Equal(t, "pending", inv.Status)
	assert.True(t, inv.PayAmount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "usdttrc20", inv.PayCurrency)
	assert.Equal(t, "abc123", inv.OrderID)

	assert.Equal(t, float64(100), got["price_amount"])
	assert.Equal(t, "usd", got["price_currency"])
	assert.Equal(t, "usdttrc20", got["pay_currency"])
	assert.Equal(t, "https://shop.example/api/payments/nowpayments/webhook", got["ipn_callback_url"])
	assert.Equal(t, "https://shop.example/checkout/success?orderId=abc123", got["success_url"])
	assert.Equal(t, "https://shop.example/checkout/failed?orderId=abc123", got["cancel_url"])
}

func TestNOWPayments_CreateInvoice_NumericID(t *testing.T) {
	client, _ := newNOWPaymentsTest(t, "np_key", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":5521,"status":"waiting","price_amount":42.5,"pay_amount":42.61,"pay_currency":"usdttrc20","invoice_url":"u"}`))
	})

	inv, err := client.CreateInvoice(context.Background(), &CreateCryptoInvoiceInput{
		OrderID: "o", OrderNumber: "n", Amount: decimal.RequireFromString("42.5"), Email: "e@x.io", Currency: "EUR",
	})
	require.NoError(t, err)
	assert.Equal(t, "5521", inv.ID)
	assert.Equal(t, "waiting", inv.Status)
	assert.Equal(t, "42.61", inv.PayAmount.String())
	assert.Equal(t, "eur", inv.PriceCurrency)
}

func TestNOWPayments_MissingAPIKey(t *testing.T) {
	client, hits := newNOWPaymentsTest(t, "", func(w http.ResponseWriter, r *http.Request) {})
	ctx := context.Background()

	_, err := client.CreateInvoice(ctx, &CreateCryptoInvoiceInput{
		OrderID: "abc123", OrderNumber: "ORD-1", Amount: decimal.NewFromInt(100), Email: "a@b.com",
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConfiguration))
	assert.Equal(t, http.StatusInternalServerError, apperrors.GetStatusCode(err))
	assert.Contains(t, err.Error(), "API key")

	_, err = client.GetCurrencies(ctx)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConfiguration))
	_, err = client.GetMinAmount(ctx, "usd", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConfiguration))
	_, err = client.GetPayment(ctx, "5521")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConfiguration))

	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}

func TestNOWPayments_Reads(t *testing.T) {
	client, _ := newNOWPaymentsTest(t, "np_key", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/currencies":
			_, _ = w.Write([]byte(`{"currencies":["btc","eth","usdttrc20"]}`))
		case "/min-amount":
			assert.Equal(t, "usd", r.URL.Query().Get("currency_from"))
			assert.Equal(t, "usdttrc20", r.URL.Query().Get("currency_to"))
			_, _ = w.Write([]byte(`{"currency_from":"usd","currency_to":"usdttrc20","min_amount":1.25}`))
		case "/payment/5521":
			_, _ = w.Write([]byte(`{"payment_id":5521,"invoice_id":4522625843,"payment_status":"waiting","price_amount":100,"price_currency":"usd","pay_amount":100.4,"actually_paid":0,"pay_currency":"usdttrc20","order_id":"abc123"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	currencies, err := client.GetCurrencies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"btc", "eth", "usdttrc20"}, currencies)

	min, err := client.GetMinAmount(ctx, "usd", "")
	require.NoError(t, err)
	assert.Equal(t, "1.25", min.MinAmount.String())

	p, err := client.GetPayment(ctx, "5521")
	require.NoError(t, err)
	assert.Equal(t, "5521", p.PaymentID.String())
	assert.Equal(t, "4522625843", p.InvoiceID.String())
	assert.Equal(t, "waiting", p.PaymentStatus)
	assert.True(t, p.PriceAmount.Equal(decimal.NewFromInt(100)))

	_, err = client.GetPayment(ctx, "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeProvider))

	_, err = client.GetMinAmount(ctx, "", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}
