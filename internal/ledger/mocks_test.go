package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/corventa/finance-ledger/internal/domain/account"
	"github.com/corventa/finance-ledger/internal/domain/audit"
	"github.com/corventa/finance-ledger/internal/domain/transaction"
)

// fakeTxRunner runs the callback without a real database transaction. The
// repositories under it are mocks, so the nil tx is never dereferenced.
type fakeTxRunner struct {
	beginErr error
}

func (f fakeTxRunner) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	if f.beginErr != nil {
		return f.beginErr
	}
	return fn(nil)
}

// decEq matches a decimal argument by numeric value.
func decEq(expected string) interface{} {
	want := decimal.RequireFromString(expected)
	return mock.MatchedBy(func(d decimal.Decimal) bool {
		return want.Equal(d)
	})
}

type MockAccountRepo struct {
	mock.Mock
}

func (m *MockAccountRepo) Create(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if acc, ok := args.Get(0).(*account.Account); ok {
		return acc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepo) ListByCurrency(ctx context.Context, currency string) ([]*account.Account, error) {
	args := m.Called(ctx, currency)
	if accs, ok := args.Get(0).([]*account.Account); ok {
		return accs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepo) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if acc, ok := args.Get(0).(*account.Account); ok {
		return acc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepo) AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, id, delta)
	if bal, ok := args.Get(0).(decimal.Decimal); ok {
		return bal, args.Error(1)
	}
	return decimal.Zero, args.Error(1)
}

func (m *MockAccountRepo) SetDefault(ctx context.Context, id uuid.UUID, currency string) error {
	args := m.Called(ctx, id, currency)
	return args.Error(0)
}

func (m *MockAccountRepo) WithTx(tx pgx.Tx) account.Repository {
	return m
}

type MockTransactionRepo struct {
	mock.Mock
}

func (m *MockTransactionRepo) Create(ctx context.Context, txn *transaction.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, id)
	if txn, ok := args.Get(0).(*transaction.Transaction); ok {
		return txn, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransactionRepo) LockForUpdate(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, id)
	if txn, ok := args.Get(0).(*transaction.Transaction); ok {
		return txn, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransactionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to transaction.Status) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *MockTransactionRepo) MarkReconciled(ctx context.Context, id uuid.UUID, actor string, at time.Time, from transaction.Status) error {
	args := m.Called(ctx, id, actor, at, from)
	return args.Error(0)
}

func (m *MockTransactionRepo) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transaction.Transaction, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if txns, ok := args.Get(0).([]*transaction.Transaction); ok {
		return txns, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransactionRepo) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepo) WithTx(tx pgx.Tx) transaction.Repository {
	return m
}

type MockAuditRepo struct {
	mock.Mock
}

func (m *MockAuditRepo) Create(ctx context.Context, event *audit.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockAuditRepo) GetPending(ctx context.Context, limit int) ([]*audit.Event, error) {
	args := m.Called(ctx, limit)
	if events, ok := args.Get(0).([]*audit.Event); ok {
		return events, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuditRepo) UpdateStatus(ctx context.Context, id int64, status audit.PublishStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockAuditRepo) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAuditRepo) WithTx(tx pgx.Tx) audit.Repository {
	return m
}

type MockCodeGenerator struct {
	mock.Mock
}

func (m *MockCodeGenerator) Next(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockCodeGenerator) WithTx(tx pgx.Tx) transaction.CodeGenerator {
	return m
}

var (
	_ account.Repository        = (*MockAccountRepo)(nil)
	_ transaction.Repository    = (*MockTransactionRepo)(nil)
	_ audit.Repository          = (*MockAuditRepo)(nil)
	_ transaction.CodeGenerator = (*MockCodeGenerator)(nil)
)
