package payment

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vestire/server/internal/module/payment/provider"
)

// --- Mock Implementations ---

type MockCardProvider struct {
	mock.Mock
}

func (m *MockCardProvider) Configured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockCardProvider) CreateInvoice(ctx context.Context, in *provider.CreateInvoiceInput) (*provider.XenditInvoiceResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.XenditInvoiceResult), args.Error(1)
}

func (m *MockCardProvider) GetInvoice(ctx context.Context, id string) (*provider.XenditInvoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.XenditInvoice), args.Error(1)
}

type MockCryptoProvider struct {
	mock.Mock
}

func (m *MockCryptoProvider) Configured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockCryptoProvider) CreateInvoice(ctx context.Context, in *provider.CreateCryptoInvoiceInput) (*provider.NOWPaymentsInvoice, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.NOWPaymentsInvoice), args.Error(1)
}

func (m *MockCryptoProvider) GetCurrencies(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCryptoProvider) GetMinAmount(ctx context.Context, currencyFrom, currencyTo string) (*provider.MinAmount, error) {
	args := m.Called(ctx, currencyFrom, currencyTo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.MinAmount), args.Error(1)
}

func (m *MockCryptoProvider) GetPayment(ctx context.Context, id string) (*provider.NOWPaymentsPayment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.NOWPaymentsPayment), args.Error(1)
}
