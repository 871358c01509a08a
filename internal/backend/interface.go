package backend

import (
	"context"

	"casal/internal/services"
	"casal/internal/store"
)

// CleanupFunc releases what a backend opened.
type CleanupFunc func() error

// BackendResult is a ready store plus the optional change publisher that
// goes with it. Publisher is nil when AMQP is not configured.
type BackendResult struct {
	Store     store.Store
	Publisher services.ChangePublisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// DataDirectory holds seed_categories.txt for either backend.
	DataDirectory string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
