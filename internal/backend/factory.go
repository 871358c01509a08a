package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"casal/internal/amqp"
	"casal/internal/storage"
	"casal/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend opens the configured store and, when an AMQP URL is set,
// a publisher. A broker that cannot be reached is logged and skipped so
// the ledger keeps working without the sheet mirror.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case MemoryBackend:
		result = f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without sync", "error", err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			// Assigned only when non-nil so the interface stays a real nil otherwise.
			result.Publisher = client
			storeCleanup := result.Cleanup
			result.Cleanup = func() error {
				return errors.Join(client.Close(), storeCleanup())
			}
		}
	}
	return result, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, memory.SeedCategories(config.DataDirectory))
	if err != nil {
		return nil, fmt.Errorf("initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{Store: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) *BackendResult {
	st := memory.NewFromFiles(config.DataDirectory)
	f.logger.Info("Initialized memory backend", "data_directory", config.DataDirectory)
	return &BackendResult{Store: st, Cleanup: st.Close}
}
