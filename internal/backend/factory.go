package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bankdash/internal/core"
	"bankdash/internal/ledger"
	"bankdash/internal/ledger/google"
	"bankdash/internal/ledger/memory"
	"bankdash/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Now.IsZero() {
		config.Now = time.Now()
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*Backend, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	txs, err := seedTransactions(config)
	if err != nil {
		repo.Close()
		return nil, err
	}
	seeded, err := repo.SeedIfEmpty(ctx, txs)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("seed SQLite database: %w", err)
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"seeded", seeded)

	return &Backend{
		Store:   repo,
		Ready:   repo.Ping,
		Cleanup: repo.Close,
		Type:    SQLiteBackend,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*Backend, error) {
	ledgerClient, err := google.New(ctx, google.Options{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsFile: config.GoogleCredentialsFile,
		CredentialsJSON: config.GoogleCredentialsJSON,
		Location:        config.Location,
		CacheTTL:        config.CacheTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	accounts := memory.New(nil)
	f.logger.Info("Initialized Google Sheets backend",
		"spreadsheet_id", config.GoogleSpreadsheetID,
		"sheet", config.GoogleSheetName)

	return &Backend{
		Store: splitStore{
			TransactionReader: ledgerClient,
			UserStore:         accounts,
			ResetRecorder:     accounts,
		},
		Ready: func(ctx context.Context) error {
			_, err := ledgerClient.ListTransactions(ctx)
			return err
		},
		Type: SheetsBackend,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*Backend, error) {
	store, err := memory.NewFromDir(config.DataDirectory, config.SeedCount, config.Now)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
	}

	f.logger.Info("Initialized memory backend", "data_directory", config.DataDirectory)

	return &Backend{
		Store: store,
		Type:  MemoryBackend,
	}, nil
}

// seedTransactions reads DataDirectory/transactions.json when it exists and
// generates the demo dataset otherwise.
func seedTransactions(config Config) ([]core.Transaction, error) {
	if config.DataDirectory != "" {
		txs, err := ledger.LoadTransactionsFile(filepath.Join(config.DataDirectory, memory.SeedFile))
		switch {
		case err == nil:
			return txs, nil
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("load seed file: %w", err)
		}
	}
	return ledger.GenerateTransactions(config.SeedCount, config.Now, ledger.DemoSeed), nil
}
