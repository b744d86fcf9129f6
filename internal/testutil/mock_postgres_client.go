package testutil

import (
	"context"

	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/postgres"
	"github.com/flexprice/invoicer/internal/types"
)

var _ postgres.IClient = (*MockPostgresClient)(nil) // Ensure MockPostgresClient implements IClient

type mockTx struct{}

// MockPostgresClient runs WithTx callbacks inline. In-memory stores do not roll back, so
// it records how transactions ended for assertions instead.
type MockPostgresClient struct {
	logger *logger.Logger

	// Commits and Rollbacks count the outermost transactions by outcome
	Commits   int
	Rollbacks int

	txEnd []func()
}

// OnTxEnd registers fn to run whenever an outermost transaction commits or rolls back,
// the point where postgres releases row locks
func (c *MockPostgresClient) OnTxEnd(fn func()) {
	c.txEnd = append(c.txEnd, fn)
}

// NewMockPostgresClient creates a new mock postgres client
func NewMockPostgresClient(logger *logger.Logger) *MockPostgresClient {
	return &MockPostgresClient{
		logger: logger,
	}
}

// WithTx executes the given function within a pretend transaction
func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	// If we're already in a transaction, reuse it
	if c.inTx(ctx) {
		return fn(ctx)
	}

	err := fn(context.WithValue(ctx, types.CtxDBTransaction, &mockTx{}))
	for _, end := range c.txEnd {
		end()
	}
	if err != nil {
		c.Rollbacks++
		return err
	}
	c.Commits++
	return nil
}

func (c *MockPostgresClient) inTx(ctx context.Context) bool {
	_, ok := ctx.Value(types.CtxDBTransaction).(*mockTx)
	return ok
}

// Querier is not backed by a database; in-memory stores never call it
func (c *MockPostgresClient) Querier(ctx context.Context) postgres.Querier {
	return nil
}
