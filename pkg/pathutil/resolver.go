// Package pathutil provides centralized path management for the bank's data
// directory, store files and exported ledgers.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store kinds understood by the resolver.
const (
	StoreSQLite = "sqlite"
	StoreBolt   = "bolt"
)

// PathResolver manages paths for the store file and the ledger exports.
type PathResolver struct {
	dataRoot     string
	databasePath string
	exportDir    string
}

// Config represents the configuration for PathResolver.
type Config struct {
	// DataRoot is the root directory for all bank data (e.g., ~/.bank)
	DataRoot string
	// DatabasePath is the path to the store file
	DatabasePath string
	// ExportDir is the directory for exported Beancount ledgers
	ExportDir string
	// Store selects the default database file name: "sqlite" or "bolt"
	Store string
}

// New creates a new PathResolver with the given configuration.
// If DatabasePath is empty, it defaults to {DataRoot}/bank.db, or
// {DataRoot}/bank.bolt for the bolt store.
// If ExportDir is empty, it defaults to {DataRoot}/ledger
func New(config Config) *PathResolver {
	dbPath := config.DatabasePath
	if dbPath == "" {
		name := "bank.db"
		if config.Store == StoreBolt {
			name = "bank.bolt"
		}
		dbPath = filepath.Join(config.DataRoot, name)
	}

	exportDir := config.ExportDir
	if exportDir == "" {
		exportDir = filepath.Join(config.DataRoot, "ledger")
	}

	return &PathResolver{
		dataRoot:     config.DataRoot,
		databasePath: dbPath,
		exportDir:    exportDir,
	}
}

// GetDataRoot returns the data root directory.
func (p *PathResolver) GetDataRoot() string {
	return p.dataRoot
}

// GetDatabasePath returns the store file path.
func (p *PathResolver) GetDatabasePath() string {
	return p.databasePath
}

// GetExportDir returns the ledger export directory.
func (p *PathResolver) GetExportDir() string {
	return p.exportDir
}

// GetYearDir returns the export directory path for a year.
// Example: ~/.bank/ledger/2024
func (p *PathResolver) GetYearDir(year string) string {
	return filepath.Join(p.exportDir, year)
}

// GetMonthFilePath returns the ledger file path for a month.
// yearMonth should be in YYYY-MM format.
// Example: ~/.bank/ledger/2024/2024-01.beancount
func (p *PathResolver) GetMonthFilePath(yearMonth string) (string, error) {
	parts := strings.Split(yearMonth, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return "", fmt.Errorf("invalid year-month format: %s. Expected YYYY-MM", yearMonth)
	}

	year := parts[0]
	filename := fmt.Sprintf("%s.beancount", yearMonth)

	return filepath.Join(p.GetYearDir(year), filename), nil
}

// EnsureDir creates a directory if it doesn't exist.
// It creates all parent directories as needed (like mkdir -p).
func (p *PathResolver) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// EnsureParentDir ensures the parent directory of a file exists.
func (p *PathResolver) EnsureParentDir(filePath string) error {
	return p.EnsureDir(filepath.Dir(filePath))
}

// FileExists checks if a file exists.
func (p *PathResolver) FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}
