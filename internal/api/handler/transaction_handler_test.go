package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/corventa/finance-ledger/internal/api/middleware"
	"github.com/corventa/finance-ledger/internal/domain/account"
	"github.com/corventa/finance-ledger/internal/domain/transaction"
	"github.com/corventa/finance-ledger/internal/ledger"
	"github.com/corventa/finance-ledger/internal/money"
)

type MockPoster struct {
	mock.Mock
}

func (m *MockPoster) PostSimple(ctx context.Context, req ledger.PostRequest) (*transaction.Transaction, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockPoster) PostTransfer(ctx context.Context, req ledger.TransferRequest) (*transaction.Transaction, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

type MockLifecycle struct {
	mock.Mock
}

func (m *MockLifecycle) Cancel(ctx context.Context, id uuid.UUID, actor string) (*transaction.Transaction, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockLifecycle) Reconcile(ctx context.Context, id uuid.UUID, actor string) (*transaction.Transaction, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockLifecycle) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

var (
	_ ledger.Poster           = (*MockPoster)(nil)
	_ ledger.LifecycleManager = (*MockLifecycle)(nil)
)

type transactionHandlerFixture struct {
	handler   *TransactionHandler
	poster    *MockPoster
	lifecycle *MockLifecycle
	router    *gin.Engine
}

func newTransactionHandlerFixture() *transactionHandlerFixture {
	f := &transactionHandlerFixture{
		poster:    new(MockPoster),
		lifecycle: new(MockLifecycle),
	}
	f.handler = NewTransactionHandler(testLogger(), f.poster, f.lifecycle)
	f.router = setupTestRouter()
	f.router.Use(middleware.Actor())
	f.router.POST("/transactions", f.handler.Create)
	f.router.POST("/transfers", f.handler.CreateTransfer)
	f.router.POST("/transactions/:id/cancel", f.handler.Cancel)
	f.router.POST("/transactions/:id/reconcile", f.handler.Reconcile)
	f.router.GET("/transactions/:id", f.handler.GetByID)
	return f
}

func postJSON(router *gin.Engine, path, body, actor string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set(middleware.ActorHeader, actor)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func confirmedIncome(t *testing.T, accountID uuid.UUID) *transaction.Transaction {
	t.Helper()
	txn, err := transaction.NewSimple(
		"TRX-00000005",
		transaction.TypeIncome,
		accountID,
		decimal.RequireFromString("50.00"),
		decimal.NewFromInt(1),
		decimal.RequireFromString("50.00"),
		"USD",
		"",
		time.Now(),
		transaction.Metadata{Category: "salary"},
		"alice",
	)
	require.NoError(t, err)
	return txn
}

func TestTransactionHandler_Create(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newTransactionHandlerFixture()
		accountID := uuid.New()
		txn := confirmedIncome(t, accountID)

		f.poster.On("PostSimple", mock.Anything, mock.MatchedBy(func(req ledger.PostRequest) bool {
			return req.Type == transaction.TypeIncome &&
				req.AccountID == accountID &&
				req.Amount.Equal(decimal.RequireFromString("50.00")) &&
				req.Meta.Category == "salary" &&
				req.Actor == "alice"
		})).Return(txn, nil)

		body := `{"account_id":"` + accountID.String() + `","type":"INCOME","amount":"50.00","metadata":{"category":"salary"}}`
		rr := postJSON(f.router, "/transactions", body, "alice")

		assert.Equal(t, http.StatusCreated, rr.Code)

		var responseBody TransactionResponse
		decodeData(t, rr.Body.Bytes(), &responseBody)
		assert.Equal(t, "TRX-00000005", responseBody.Code)
		assert.Equal(t, "CONFIRMED", responseBody.Status)
		assert.Equal(t, "CREDIT", responseBody.Direction)

		f.poster.AssertExpectations(t)
	})

	t.Run("ActorDefaultsToSystem", func(t *testing.T) {
		f := newTransactionHandlerFixture()
		accountID := uuid.New()
		txn := confirmedIncome(t, accountID)

		f.poster.On("PostSimple", mock.Anything, mock.MatchedBy(func(req ledger.PostRequest) bool {
			return req.Actor == "system"
		})).Return(txn, nil)

		body := `{"account_id":"` + accountID.String() + `","type":"INCOME","amount":"50.00"}`
		rr := postJSON(f.router, "/transactions", body, "")

		assert.Equal(t, http.StatusCreated, rr.Code)
		f.poster.AssertExpectations(t)
	})

	t.Run("InvalidType", func(t *testing.T) {
		f := newTransactionHandlerFixture()

		body := `{"account_id":"` + uuid.NewString() + `","type":"DEPOSIT","amount":"50.00"}`
		rr := postJSON(f.router, "/transactions", body, "")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		f.poster.AssertNotCalled(t, "PostSimple", mock.Anything, mock.Anything)
	})

	t.Run("InvalidAmount", func(t *testing.T) {
		f := newTransactionHandlerFixture()
		accountID := uuid.New()

		f.poster.On("PostSimple", mock.Anything, mock.Anything).Return(nil, money.ErrInvalidAmount)

		body := `{"account_id":"` + accountID.String() + `","type":"EXPENSE","amount":"0"}`
		rr := postJSON(f.router, "/transactions", body, "")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("MissingAdjustmentDirection", func(t *testing.T) {
		f := newTransactionHandlerFixture()
		accountID := uuid.New()

		f.poster.On("PostSimple", mock.Anything, mock.Anything).Return(nil, transaction.ErrMissingDirection)

		body := `{"account_id":"` + accountID.String() + `","type":"ADJUSTMENT","amount":"5.00"}`
		rr := postJSON(f.router, "/transactions", body, "")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("CurrencyMismatch", func(t *testing.T) {
		f := newTransactionHandlerFixture()
		accountID := uuid.New()

		f.poster.On("PostSimple", mock.Anything, mock.MatchedBy(func(req ledger.PostRequest) bool {
			return req.Currency == "EUR"
		})).Return(nil, account.ErrCurrencyMismatch{AccountID: accountID, Requested: "EUR", Actual: "USD"})

		body := `{"account_id":"` + accountID.String() + `","type":"INCOME","amount":"5.00","currency":"EUR"}`
		rr := postJSON(f.router, "/transactions", body, "")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		f.poster.AssertExpectations(t)
	})

	t.Run("InactiveAccount", func(t *testing.T) {
		f := newTransactionHandlerFixture()
		accountID := uuid.New()

		f.poster.On("PostSimple", mock.Anything, mock.Anything).
			Return(nil, account.ErrAccountInactive{AccountID: accountID})

		body := `{"account_id":"` + accountID.String() + `","type":"INCOME","amount":"5.00"}`
		rr := postJSON(f.router, "/transactions", body, "")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("AccountNotFound", func(t *testing.T) {
		f := newTransactionHandlerFixture()
		accountID := uuid.New()

		f.poster.On("PostSimple", mock.Anything, mock.Anything).
			Return(nil, account.ErrAccountNotFound{AccountID: accountID})

		body := `{"account_id":"` + accountID.String() + `","type":"INCOME","amount":"5.00"}`
		rr := postJSON(f.router, "/transactions", body, "")

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestTransactionHandler_CreateTransfer(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newTransactionHandlerFixture()
		fromID := uuid.New()
		toID := uuid.New()

		txn, err := transaction.NewTransfer(
			"TRX-00000006",
			fromID, toID,
			decimal.RequireFromString("100.00"),
			decimal.RequireFromString("36.5"),
			decimal.RequireFromString("100.00"),
			decimal.RequireFromString("3650.00"),
			"USD",
			time.Now(),
			transaction.Metadata{},
			"alice",
		)
		require.NoError(t, err)

		f.poster.On("PostTransfer", mock.Anything, mock.MatchedBy(func(req ledger.TransferRequest) bool {
			return req.FromAccountID == fromID &&
				req.ToAccountID == toID &&
				req.Amount.Equal(decimal.RequireFromString("100.00")) &&
				req.ExchangeRate.Equal(decimal.RequireFromString("36.5"))
		})).Return(txn, nil)

		body := `{"from_account_id":"` + fromID.String() + `","to_account_id":"` + toID.String() + `","amount":"100.00","exchange_rate":"36.5"}`
		rr := postJSON(f.router, "/transfers", body, "alice")

		assert.Equal(t, http.StatusCreated, rr.Code)

		var responseBody TransactionResponse
		decodeData(t, rr.Body.Bytes(), &responseBody)
		assert.Equal(t, "TRANSFER", responseBody.Type)
		assert.Equal(t, toID.String(), responseBody.DestinationAccountID)
		assert.Equal(t, "3650", responseBody.DestinationAmount)

		f.poster.AssertExpectations(t)
	})

	t.Run("MissingRate", func(t *testing.T) {
		f := newTransactionHandlerFixture()

		f.poster.On("PostTransfer", mock.Anything, mock.Anything).Return(nil, money.ErrInvalidRate)

		body := `{"from_account_id":"` + uuid.NewString() + `","to_account_id":"` + uuid.NewString() + `","amount":"100.00"}`
		rr := postJSON(f.router, "/transfers", body, "")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("SameAccount", func(t *testing.T) {
		f := newTransactionHandlerFixture()

		f.poster.On("PostTransfer", mock.Anything, mock.Anything).Return(nil, transaction.ErrSameAccount)

		id := uuid.NewString()
		body := `{"from_account_id":"` + id + `","to_account_id":"` + id + `","amount":"100.00","exchange_rate":"1"}`
		rr := postJSON(f.router, "/transfers", body, "")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("InvalidDestinationUUID", func(t *testing.T) {
		f := newTransactionHandlerFixture()

		body := `{"from_account_id":"` + uuid.NewString() + `","to_account_id":"nope","amount":"100.00","exchange_rate":"1"}`
		rr := postJSON(f.router, "/transfers", body, "")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		f.poster.AssertNotCalled(t, "PostTransfer", mock.Anything, mock.Anything)
	})
}

func TestTransactionHandler_Cancel(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newTransactionHandlerFixture()
		txn := confirmedIncome(t, uuid.New())
		txn.Status = transaction.StatusCancelled

		f.lifecycle.On("Cancel", mock.Anything, txn.ID, "bob").Return(txn, nil)

		rr := postJSON(f.router, "/transactions/"+txn.ID.String()+"/cancel", "", "bob")

		assert.Equal(t, http.StatusOK, rr.Code)

		var responseBody TransactionResponse
		decodeData(t, rr.Body.Bytes(), &responseBody)
		assert.Equal(t, "CANCELLED", responseBody.Status)

		f.lifecycle.AssertExpectations(t)
	})

	t.Run("AlreadyReconciled", func(t *testing.T) {
		f := newTransactionHandlerFixture()
		id := uuid.New()

		f.lifecycle.On("Cancel", mock.Anything, id, "system").
			Return(nil, transaction.ErrAlreadyReconciled{TransactionID: id.String()})

		rr := postJSON(f.router, "/transactions/"+id.String()+"/cancel", "", "")

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("ConcurrencyConflict", func(t *testing.T) {
		f := newTransactionHandlerFixture()
		id := uuid.New()

		f.lifecycle.On("Cancel", mock.Anything, id, "system").
			Return(nil, transaction.ErrConcurrencyConflict{TransactionID: id})

		rr := postJSON(f.router, "/transactions/"+id.String()+"/cancel", "", "")

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newTransactionHandlerFixture()
		id := uuid.New()

		f.lifecycle.On("Cancel", mock.Anything, id, "system").
			Return(nil, transaction.ErrTransactionNotFound{TransactionID: id})

		rr := postJSON(f.router, "/transactions/"+id.String()+"/cancel", "", "")

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestTransactionHandler_Reconcile(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newTransactionHandlerFixture()
		txn := confirmedIncome(t, uuid.New())
		txn.Status = transaction.StatusReconciled
		txn.ReconciledBy = "auditor"
		now := time.Now()
		txn.ReconciledAt = &now

		f.lifecycle.On("Reconcile", mock.Anything, txn.ID, "auditor").Return(txn, nil)

		rr := postJSON(f.router, "/transactions/"+txn.ID.String()+"/reconcile", "", "auditor")

		assert.Equal(t, http.StatusOK, rr.Code)

		var responseBody TransactionResponse
		decodeData(t, rr.Body.Bytes(), &responseBody)
		assert.Equal(t, "RECONCILED", responseBody.Status)
		assert.Equal(t, "auditor", responseBody.ReconciledBy)
		assert.NotEmpty(t, responseBody.ReconciledAt)

		f.lifecycle.AssertExpectations(t)
	})

	t.Run("InvalidTransition", func(t *testing.T) {
		f := newTransactionHandlerFixture()
		id := uuid.New()

		f.lifecycle.On("Reconcile", mock.Anything, id, "system").
			Return(nil, transaction.ErrInvalidStateTransition{From: transaction.StatusCancelled, To: transaction.StatusReconciled})

		rr := postJSON(f.router, "/transactions/"+id.String()+"/reconcile", "", "")

		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestTransactionHandler_GetByID(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newTransactionHandlerFixture()
		txn := confirmedIncome(t, uuid.New())

		f.lifecycle.On("GetTransaction", mock.Anything, txn.ID).Return(txn, nil)

		req, _ := http.NewRequest(http.MethodGet, "/transactions/"+txn.ID.String(), nil)
		rr := httptest.NewRecorder()
		f.router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var responseBody TransactionResponse
		decodeData(t, rr.Body.Bytes(), &responseBody)
		assert.Equal(t, txn.ID.String(), responseBody.ID)
		require.NotNil(t, responseBody.Metadata)
		assert.Equal(t, "salary", responseBody.Metadata.Category)

		f.lifecycle.AssertExpectations(t)
	})

	t.Run("InvalidUUID", func(t *testing.T) {
		f := newTransactionHandlerFixture()

		req, _ := http.NewRequest(http.MethodGet, "/transactions/not-a-uuid", nil)
		rr := httptest.NewRecorder()
		f.router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		f.lifecycle.AssertNotCalled(t, "GetTransaction", mock.Anything, mock.Anything)
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newTransactionHandlerFixture()
		id := uuid.New()

		f.lifecycle.On("GetTransaction", mock.Anything, id).
			Return(nil, transaction.ErrTransactionNotFound{TransactionID: id})

		req, _ := http.NewRequest(http.MethodGet, "/transactions/"+id.String(), nil)
		rr := httptest.NewRecorder()
		f.router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
