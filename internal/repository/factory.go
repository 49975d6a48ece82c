package repository

import (
	"github.com/wrenchworks/docdesk/internal/database"
	"github.com/wrenchworks/docdesk/internal/domain/document"
	"github.com/wrenchworks/docdesk/internal/domain/numbering"
	"github.com/wrenchworks/docdesk/internal/domain/workorder"
	"github.com/wrenchworks/docdesk/internal/logger"
	"github.com/wrenchworks/docdesk/internal/repository/store"
)

func NewCounterStore(db *database.DB, logger *logger.Logger) numbering.CounterStore {
	return store.NewCounterStore(db, logger)
}

func NewDocumentRepository(db *database.DB, logger *logger.Logger) document.Repository {
	return store.NewDocumentRepository(db, logger)
}

func NewWorkOrderRepository(db *database.DB, logger *logger.Logger) workorder.Repository {
	return store.NewWorkOrderRepository(db, logger)
}
