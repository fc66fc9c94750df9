package ingest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cnpj-cowork/internal/address"
	"github.com/cnpj-cowork/internal/cowork"
	"github.com/cnpj-cowork/internal/debug"
	"github.com/cnpj-cowork/internal/logger"
)

// Dataset is the unified, read-only record table built from every extract
type Dataset struct {
	Records  []cowork.Record
	Files    []string
	LoadedAt time.Time

	neighborhoods map[string]struct{}
}

// NewDataset wraps records, indexing their neighborhoods
func NewDataset(records []cowork.Record, files []string) *Dataset {
	ds := &Dataset{
		Records:       records,
		Files:         files,
		LoadedAt:      time.Now(),
		neighborhoods: make(map[string]struct{}),
	}
	for _, rec := range records {
		ds.neighborhoods[rec.Neighborhood] = struct{}{}
	}
	return ds
}

// HasNeighborhood reports whether any record has exactly this neighborhood
func (d *Dataset) HasNeighborhood(neighborhood string) bool {
	_, ok := d.neighborhoods[neighborhood]
	return ok
}

// Neighborhoods returns the distinct non-empty neighborhoods, sorted
func (d *Dataset) Neighborhoods() []string {
	out := make([]string, 0, len(d.neighborhoods))
	for n := range d.neighborhoods {
		if n != "" {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// Loader reads every extract under a directory tree
type Loader struct {
	Extensions []string
	Workers    int
	Parser     address.Parser
	Debug      bool
}

// Load lists matching files under dir, parses them concurrently and
// concatenates the records in file order. Any failing file fails the load.
func (l *Loader) Load(ctx context.Context, dir string) (*Dataset, error) {
	defer debug.DebugTiming(l.Debug, "load "+dir)()

	files, err := ListFiles(dir, l.Extensions, true)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files matching %v under %s", l.Extensions, dir)
	}

	workers := l.Workers
	if workers <= 0 {
		workers = 1
	}

	parts := make([][]cowork.Record, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records, err := ReadFile(path, l.Parser)
			if err != nil {
				return err
			}
			parts[i] = records
			debug.DebugOutput(l.Debug, "read %d records from %s", len(records), path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load extracts: %w", err)
	}

	total := 0
	for _, p := range parts {
		total += len(p)
	}
	records := make([]cowork.Record, 0, total)
	for _, p := range parts {
		records = append(records, p...)
	}

	logger.L().Info("extracts_loaded", "dir", dir, "files", len(files), "records", total)
	return NewDataset(records, files), nil
}
