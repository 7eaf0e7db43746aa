package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/corventa/finance-ledger/internal/api/middleware"
	"github.com/corventa/finance-ledger/internal/domain/transaction"
	"github.com/corventa/finance-ledger/internal/ledger"
)

// TransactionHandler handles HTTP requests for posting and lifecycle
// operations
type TransactionHandler struct {
	poster    ledger.Poster
	lifecycle ledger.LifecycleManager
	logger    *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, poster ledger.Poster, lifecycle ledger.LifecycleManager) *TransactionHandler {
	return &TransactionHandler{
		poster:    poster,
		lifecycle: lifecycle,
		logger:    logger,
	}
}

// Create posts a new INCOME, EXPENSE, or ADJUSTMENT transaction. The posting
// commits atomically with its balance effect and is returned in CONFIRMED
// state.
func (h *TransactionHandler) Create(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		h.logger.Error("Invalid account ID", "account_id", req.AccountID, "error", err)
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	txn, err := h.poster.PostSimple(c.Request.Context(), ledger.PostRequest{
		Type:         transaction.TxType(req.Type),
		AccountID:    accountID,
		Amount:       req.Amount,
		Currency:     req.Currency,
		ExchangeRate: req.ExchangeRate,
		Direction:    transaction.Direction(req.Direction),
		Date:         postingDate(req.Date),
		Meta:         mapMetadataPayload(req.Metadata),
		Actor:        middleware.GetActor(c),
	})
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapTransactionToResponse(txn))
}

// CreateTransfer posts a new TRANSFER between two accounts. Both balance
// effects commit in a single database transaction.
func (h *TransactionHandler) CreateTransfer(c *gin.Context) {
	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	fromID, err := uuid.Parse(req.FromAccountID)
	if err != nil {
		h.logger.Error("Invalid source account ID", "account_id", req.FromAccountID, "error", err)
		RespondBadRequest(c, "Invalid source account ID")
		return
	}
	toID, err := uuid.Parse(req.ToAccountID)
	if err != nil {
		h.logger.Error("Invalid destination account ID", "account_id", req.ToAccountID, "error", err)
		RespondBadRequest(c, "Invalid destination account ID")
		return
	}

	txn, err := h.poster.PostTransfer(c.Request.Context(), ledger.TransferRequest{
		FromAccountID: fromID,
		ToAccountID:   toID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		ExchangeRate:  req.ExchangeRate,
		Date:          postingDate(req.Date),
		Meta:          mapMetadataPayload(req.Metadata),
		Actor:         middleware.GetActor(c),
	})
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapTransactionToResponse(txn))
}

// Cancel reverses a confirmed transaction's balance effects and marks it
// CANCELLED. Reconciled transactions are refused.
func (h *TransactionHandler) Cancel(c *gin.Context) {
	id, ok := h.transactionID(c)
	if !ok {
		return
	}

	txn, err := h.lifecycle.Cancel(c.Request.Context(), id, middleware.GetActor(c))
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapTransactionToResponse(txn))
}

// Reconcile marks a confirmed transaction as verified against an external
// statement, freezing it permanently.
func (h *TransactionHandler) Reconcile(c *gin.Context) {
	id, ok := h.transactionID(c)
	if !ok {
		return
	}

	txn, err := h.lifecycle.Reconcile(c.Request.Context(), id, middleware.GetActor(c))
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapTransactionToResponse(txn))
}

// GetByID retrieves transaction details by its ID, returns 404 if not found
func (h *TransactionHandler) GetByID(c *gin.Context) {
	id, ok := h.transactionID(c)
	if !ok {
		return
	}

	txn, err := h.lifecycle.GetTransaction(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapTransactionToResponse(txn))
}

func (h *TransactionHandler) transactionID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid transaction ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid transaction ID")
		return uuid.Nil, false
	}
	return id, true
}

// postingDate defaults an omitted transaction date to now.
func postingDate(date *time.Time) time.Time {
	if date != nil {
		return *date
	}
	return time.Now()
}

func mapMetadataPayload(payload MetadataPayload) transaction.Metadata {
	return transaction.Metadata{
		Category:             payload.Category,
		Description:          payload.Description,
		Reference:            payload.Reference,
		Counterparty:         payload.Counterparty,
		CounterpartyDocument: payload.CounterpartyDocument,
		PaymentMethod:        payload.PaymentMethod,
		Notes:                payload.Notes,
	}
}

// mapTransactionToResponse maps a transaction entity to a response DTO
func mapTransactionToResponse(txn *transaction.Transaction) TransactionResponse {
	response := TransactionResponse{
		ID:              txn.ID.String(),
		Code:            txn.Code,
		Type:            string(txn.Type),
		Status:          string(txn.Status),
		AccountID:       txn.AccountID.String(),
		Amount:          txn.Amount.String(),
		Currency:        txn.Currency,
		ExchangeRate:    txn.ExchangeRate.String(),
		BaseAmount:      txn.BaseAmount.String(),
		Direction:       string(txn.Direction),
		TransactionDate: txn.TransactionDate.Format(time.RFC3339),
		ReconciledBy:    txn.ReconciledBy,
		CreatedBy:       txn.CreatedBy,
		CreatedAt:       txn.CreatedAt.Format(time.RFC3339),
	}

	if txn.DestinationAccountID != nil {
		response.DestinationAccountID = txn.DestinationAccountID.String()
	}
	if txn.DestinationAmount != nil {
		response.DestinationAmount = txn.DestinationAmount.String()
	}
	if txn.ReconciledAt != nil {
		response.ReconciledAt = txn.ReconciledAt.Format(time.RFC3339)
	}

	meta := MetadataPayload{
		Category:             txn.Category,
		Description:          txn.Description,
		Reference:            txn.Reference,
		Counterparty:         txn.Counterparty,
		CounterpartyDocument: txn.CounterpartyDocument,
		PaymentMethod:        txn.PaymentMethod,
		Notes:                txn.Notes,
	}
	if meta != (MetadataPayload{}) {
		response.Metadata = &meta
	}

	return response
}
