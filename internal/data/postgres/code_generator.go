package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/corventa/finance-ledger/internal/domain/transaction"
	"github.com/corventa/finance-ledger/internal/platform/persistence"
)

// CodeGenerator issues transaction codes from a database sequence. Codes are
// unique and monotonically increasing even across concurrent postings because
// nextval never hands out the same value twice.
type CodeGenerator struct {
	querier persistence.Querier
	logger  *slog.Logger
	prefix  string
}

// NewCodeGenerator creates a sequence-backed transaction code generator
func NewCodeGenerator(logger *slog.Logger, db *persistence.PostgresDB, prefix string) transaction.CodeGenerator {
	return &CodeGenerator{
		querier: db.Pool(),
		logger:  logger,
		prefix:  prefix,
	}
}

// WithTx wraps the generator with a transaction so the drawn sequence value
// shares the posting's connection.
func (g *CodeGenerator) WithTx(tx pgx.Tx) transaction.CodeGenerator {
	return &CodeGenerator{
		querier: tx,
		logger:  g.logger,
		prefix:  g.prefix,
	}
}

// Next draws the next sequence value and formats it as a code such as
// TRX-00000042.
func (g *CodeGenerator) Next(ctx context.Context) (string, error) {
	var n int64
	err := g.querier.QueryRow(ctx, `SELECT nextval('transaction_code_seq')`).Scan(&n)
	if err != nil {
		g.logger.Error("Failed to generate transaction code", "error", err)
		return "", fmt.Errorf("failed to generate transaction code: %w", err)
	}

	return fmt.Sprintf("%s-%08d", g.prefix, n), nil
}
