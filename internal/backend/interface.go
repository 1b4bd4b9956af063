package backend

import (
	"context"

	"spendwise/internal/amqp"
	"spendwise/internal/services"
	"spendwise/internal/sheets"
	"spendwise/internal/storage"
)

// CleanupFunc releases the resources opened by the factory.
type CleanupFunc func() error

// BackendResult holds everything a binary needs to build its services.
type BackendResult struct {
	Store     storage.Store
	Publisher services.Publisher
	// AMQP is nil when no broker is configured.
	AMQP         *amqp.Client
	ReportWriter sheets.ReportWriter
	Cleanup      CleanupFunc
}

// Factory opens backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string
	DatabaseURL  string

	AMQPURL      string
	AMQPExchange string

	GoogleSpreadsheetID      string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
}

// BackendType selects the relational store.
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
