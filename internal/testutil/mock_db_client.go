package testutil

import (
	"context"

	"github.com/wrenchworks/docdesk/internal/database"
	"github.com/wrenchworks/docdesk/internal/logger"
)

var _ database.IClient = (*MockDBClient)(nil) // Ensure MockDBClient implements IClient

// MockDBClient is a mock implementation of the database client for testing.
// It runs the function without a real transaction, so nothing is rolled back.
type MockDBClient struct {
	logger *logger.Logger
}

// NewMockDBClient creates a new mock database client
func NewMockDBClient(logger *logger.Logger) database.IClient {
	return &MockDBClient{
		logger: logger,
	}
}

// WithTx executes the given function as if it ran within a transaction
func (c *MockDBClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}
