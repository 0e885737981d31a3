package order

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("vestire"),
		tcpostgres.WithUsername("vestire"),
		tcpostgres.WithPassword("vestire"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Order{}))
	return db
}

func TestPostgresRepository_ConcurrentWebhooks(t *testing.T) {
	repo := NewRepository(newPostgresDB(t))
	ctx := context.Background()

	seedOrder(t, repo, "race", func(o *Order) { o.ProviderInvoiceID = "inv-1" })

	statuses := []PaymentStatus{PaymentStatusPaid, PaymentStatusExpired}
	var wg sync.WaitGroup
	results := make([]error, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			next := statuses[i%2]
			status := OrderStatusProcessing
			if next == PaymentStatusExpired {
				status = OrderStatusCancelled
			}
			_, results[i] = repo.ApplyPaymentUpdate(ctx, "race", &PaymentUpdate{
				InvoiceID:     "inv-1",
				PaymentStatus: next,
				Status:        status,
				UpdatedAt:     time.Now().UTC(),
			})
		}(i)
	}
	wg.Wait()

	got, err := repo.FindByID(ctx, "race")
	require.NoError(t, err)
	require.True(t, got.PaymentStatus.IsTerminal())

	// Every delivery carrying the winning status succeeded, every other one
	// was rejected by the terminal guard.
	for i, err := range results {
		if statuses[i%2] == got.PaymentStatus {
			assert.NoError(t, err, fmt.Sprintf("delivery %d", i))
		} else {
			assert.ErrorIs(t, err, ErrTerminalState, fmt.Sprintf("delivery %d", i))
		}
	}
}

func TestPostgresRepository_StaleReference(t *testing.T) {
	repo := NewRepository(newPostgresDB(t))
	ctx := context.Background()

	seedOrder(t, repo, "stale", nil)
	_, err := repo.AttachInvoice(ctx, "stale", InvoiceRef{Provider: "nowpayments", InvoiceID: "first", Method: PaymentMethodCrypto}, PaymentDetails{})
	require.NoError(t, err)
	_, err = repo.AttachInvoice(ctx, "stale", InvoiceRef{Provider: "nowpayments", InvoiceID: "second", Method: PaymentMethodCrypto}, PaymentDetails{})
	require.NoError(t, err)

	_, err = repo.ApplyPaymentUpdate(ctx, "stale", &PaymentUpdate{InvoiceID: "first", PaymentStatus: PaymentStatusPaid})
	assert.ErrorIs(t, err, ErrStaleReference)

	res, err := repo.ApplyPaymentUpdate(ctx, "stale", &PaymentUpdate{InvoiceID: "second", PaymentStatus: PaymentStatusPaid, Status: OrderStatusProcessing})
	require.NoError(t, err)
	assert.True(t, res.Applied)
}

func TestPostgresRepository_PaidAmountKeepsCryptoPrecision(t *testing.T) {
	repo := NewRepository(newPostgresDB(t))
	ctx := context.Background()

	seedOrder(t, repo, "btc", func(o *Order) { o.ProviderInvoiceID = "inv-btc" })
	seedOrder(t, repo, "usdt", func(o *Order) { o.ProviderInvoiceID = "inv-usdt" })

	cases := map[string]struct {
		invoiceID string
		paid      string
		currency  string
	}{
		"btc":  {invoiceID: "inv-btc", paid: "0.00123456", currency: "btc"},
		"usdt": {invoiceID: "inv-usdt", paid: "49.999999", currency: "usdttrc20"},
	}
	for id, tc := range cases {
		_, err := repo.ApplyPaymentUpdate(ctx, id, &PaymentUpdate{
			InvoiceID:     tc.invoiceID,
			PaymentStatus: PaymentStatusPaid,
			Status:        OrderStatusProcessing,
			PaidAmount:    decimal.NewNullDecimal(decimal.RequireFromString(tc.paid)),
			PaidCurrency:  tc.currency,
			UpdatedAt:     time.Now().UTC(),
		})
		require.NoError(t, err)

		got, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		require.True(t, got.PaidAmount.Valid)
		assert.True(t, decimal.RequireFromString(tc.paid).Equal(got.PaidAmount.Decimal), "stored %s", got.PaidAmount.Decimal)
		assert.Equal(t, tc.currency, got.PaidCurrency)
	}
}
