package testutil

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/wrenchworks/docdesk/internal/cache"
	"github.com/wrenchworks/docdesk/internal/config"
	"github.com/wrenchworks/docdesk/internal/database"
	"github.com/wrenchworks/docdesk/internal/domain/workorder"
	"github.com/wrenchworks/docdesk/internal/logger"
	"github.com/wrenchworks/docdesk/internal/metrics"
	"github.com/wrenchworks/docdesk/internal/types"
	"github.com/wrenchworks/docdesk/internal/validator"
)

// Stores holds all the repository doubles for testing
type Stores struct {
	CounterStore  *InMemoryCounterStore
	DocumentRepo  *InMemoryDocumentStore
	WorkOrderRepo *InMemoryWorkOrderStore
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	stores  Stores
	db      database.IClient
	cache   *cache.InMemoryCache
	metrics *metrics.Metrics
	logger  *logger.Logger
	config  *config.Configuration
	now     time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	// Initialize validator
	validator.NewValidator()

	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = types.LogLevelInfo
	cfg.Reservation.InitialInterval = time.Millisecond
	cfg.Reservation.MaxInterval = 5 * time.Millisecond
	s.config = cfg
	s.logger = logger.NewNopLogger()
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.setupStores()
	s.now = time.Date(2024, time.July, 15, 10, 0, 0, 0, time.UTC)
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupStores() {
	n := s.config.Numbering
	s.stores = Stores{
		CounterStore:  NewInMemoryCounterStore(n.InvoicePrefix, n.InvoicePadLength, n.ProtocolPadLength),
		DocumentRepo:  NewInMemoryDocumentStore(),
		WorkOrderRepo: NewInMemoryWorkOrderStore(),
	}
	s.db = NewMockDBClient(s.logger)
	s.cache = cache.NewInMemoryCache(s.config, s.logger)
	s.metrics = metrics.NewMetrics()
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.CounterStore.Clear()
	s.stores.DocumentRepo.Clear()
	s.stores.WorkOrderRepo.Clear()
	s.cache.Flush(s.ctx)
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetDB returns the test database client
func (s *BaseServiceTestSuite) GetDB() database.IClient {
	return s.db
}

// GetCache returns the test cache
func (s *BaseServiceTestSuite) GetCache() *cache.InMemoryCache {
	return s.cache
}

// GetMetrics returns the metrics of the current test
func (s *BaseServiceTestSuite) GetMetrics() *metrics.Metrics {
	return s.metrics
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}

// CreateCompletedOrder seeds a completed order finished at completedAt
func (s *BaseServiceTestSuite) CreateCompletedOrder(id string, completedAt time.Time, total string) *workorder.WorkOrder {
	o := &workorder.WorkOrder{
		ID:          id,
		Status:      types.OrderStatusCompleted,
		Total:       decimal.RequireFromString(total),
		CreatedAt:   completedAt.Add(-48 * time.Hour),
		CompletedAt: &completedAt,
	}
	s.stores.WorkOrderRepo.Add(s.ctx, o)
	return o
}

// CreateActiveOrder seeds an order that is still being worked on
func (s *BaseServiceTestSuite) CreateActiveOrder(id string, createdAt time.Time) *workorder.WorkOrder {
	o := &workorder.WorkOrder{
		ID:        id,
		Status:    types.OrderStatusActive,
		Total:     decimal.Zero,
		CreatedAt: createdAt,
	}
	s.stores.WorkOrderRepo.Add(s.ctx, o)
	return o
}
