package store

import (
	"context"
	"fmt"

	"github.com/cnpj-cowork/internal/address"
	"github.com/cnpj-cowork/internal/cowork"
	"github.com/cnpj-cowork/internal/ingest"
	"github.com/cnpj-cowork/internal/logger"
)

// ImportStats summarises an import run
type ImportStats struct {
	Files    int
	Imported int
}

// Importer loads registry extracts into the store, one transaction per file
type Importer struct {
	store  *Store
	parser address.Parser
}

// NewImporter creates a new importer
func NewImporter(store *Store, parser address.Parser) *Importer {
	return &Importer{store: store, parser: parser}
}

// ImportFiles parses and inserts every file. The first failing file aborts the
// run; files imported before it stay committed.
func (im *Importer) ImportFiles(ctx context.Context, files []string) (ImportStats, error) {
	var stats ImportStats
	for _, path := range files {
		records, err := ingest.ReadFile(path, im.parser)
		if err != nil {
			return stats, err
		}
		n, err := im.Insert(ctx, records)
		if err != nil {
			return stats, fmt.Errorf("%s: %w", path, err)
		}
		stats.Files++
		stats.Imported += n
		logger.L().Info("file_imported", "file", path, "records", n)
	}
	return stats, nil
}

// Insert writes records in a single transaction
func (im *Importer) Insert(ctx context.Context, records []cowork.Record) (int, error) {
	s := im.store
	tx, err := s.conn.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// only the SQL text is kept, the statement is prepared once per file
	query, _, err := s.conn.Builder().
		Insert(s.table).
		Columns(columns...).
		Values(make([]interface{}, len(columns))...).
		ToSql()
	if err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	imported := 0
	for _, rec := range records {
		_, err = stmt.ExecContext(ctx,
			rec.CNPJBase, rec.CNPJOrder, rec.CNPJCheck,
			nullIfEmpty(rec.Email), nullIfEmpty(rec.StreetType), nullIfEmpty(rec.Street),
			nullIfEmpty(rec.Neighborhood), nullIfEmpty(rec.Number), nullIfEmpty(rec.Complement),
			nullIfEmpty(rec.Source),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert record %s: %w", rec.CNPJ(), err)
		}

		imported++
		if imported%10000 == 0 {
			logger.L().Debug("import_progress", "records", imported)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return imported, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
