package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cnpj-cowork/internal/cowork"
	"github.com/cnpj-cowork/internal/debug"
	"github.com/cnpj-cowork/internal/ingest"
)

var (
	// ErrEmptyQuery is returned for blank neighborhood queries
	ErrEmptyQuery = errors.New("empty neighborhood query")
	// ErrUnknownNeighborhood is returned when no record has the neighborhood
	ErrUnknownNeighborhood = errors.New("neighborhood not present in the data")
)

// Source provides records to search
type Source interface {
	Neighborhoods(ctx context.Context) ([]string, error)
	HasNeighborhood(ctx context.Context, neighborhood string) (bool, error)
	// Records returns a record set containing at least every record of the neighborhood
	Records(ctx context.Context, neighborhood string) ([]cowork.Record, error)
}

// DatasetSource serves an in-memory dataset
type DatasetSource struct {
	Dataset *ingest.Dataset
}

func (s DatasetSource) Neighborhoods(ctx context.Context) ([]string, error) {
	return s.Dataset.Neighborhoods(), nil
}

func (s DatasetSource) HasNeighborhood(ctx context.Context, neighborhood string) (bool, error) {
	return s.Dataset.HasNeighborhood(neighborhood), nil
}

func (s DatasetSource) Records(ctx context.Context, neighborhood string) ([]cowork.Record, error) {
	return s.Dataset.Records, nil
}

func (s DatasetSource) Count(ctx context.Context) (int, error) {
	return len(s.Dataset.Records), nil
}

// StreetGroup is one street of a result
type StreetGroup struct {
	Street string              `json:"street"`
	Rows   cowork.DisplayTable `json:"rows"`
}

// Result is the outcome of a neighborhood search
type Result struct {
	Neighborhood string        `json:"neighborhood"`
	Complements  int           `json:"complements"`
	Rows         int           `json:"rows"`
	Streets      []StreetGroup `json:"streets"`
	Duration     time.Duration `json:"duration_ns"`
}

// Empty reports whether no co-located establishments were found
func (r *Result) Empty() bool {
	return len(r.Streets) == 0
}

// NormalizeQuery trims and upper-cases a neighborhood query
func NormalizeQuery(query string) (string, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", ErrEmptyQuery
	}
	return strings.ToUpper(q), nil
}

// Service validates queries and runs the cluster search over a source
type Service struct {
	source Source
	debug  bool
}

// NewService creates a search service
func NewService(source Source, debugEnabled bool) *Service {
	return &Service{source: source, debug: debugEnabled}
}

// Source returns the underlying record source
func (s *Service) Source() Source {
	return s.source
}

// Search finds co-located establishments of a neighborhood
func (s *Service) Search(ctx context.Context, query string) (*Result, error) {
	neighborhood, err := NormalizeQuery(query)
	if err != nil {
		return nil, err
	}

	ok, err := s.source.HasNeighborhood(ctx, neighborhood)
	if err != nil {
		return nil, fmt.Errorf("failed to check neighborhood: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNeighborhood, neighborhood)
	}

	records, err := s.source.Records(ctx, neighborhood)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	return Run(records, neighborhood, s.debug), nil
}

// Run filters and aggregates records for an already normalized neighborhood
func Run(records []cowork.Record, neighborhood string, debugEnabled bool) *Result {
	defer debug.DebugTiming(debugEnabled, "search "+neighborhood)()
	start := time.Now()

	clusters := cowork.FindOccupancyClusters(records, neighborhood)
	debug.DebugOutput(debugEnabled, "%d complements with clusters in %s", len(clusters), neighborhood)

	byStreet := cowork.AggregateByStreet(clusters)

	result := &Result{
		Neighborhood: neighborhood,
		Complements:  len(clusters),
		Streets:      make([]StreetGroup, 0, len(byStreet)),
	}
	for _, street := range cowork.SortedStreets(byStreet) {
		rows := byStreet[street]
		result.Streets = append(result.Streets, StreetGroup{Street: street, Rows: rows})
		result.Rows += len(rows)
	}
	result.Duration = time.Since(start)
	return result
}
