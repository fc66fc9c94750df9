package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/cnpj-cowork/internal/address"
	"github.com/cnpj-cowork/internal/cowork"
)

// Delimiter of the registry extracts
const Delimiter = ';'

// ReadRecords parses a semicolon separated extract with a header row.
// Short rows are padded with missing values and extra cells ignored.
// parser is only used when the extract carries a single address column.
func ReadRecords(r io.Reader, source string, parser address.Parser) ([]cowork.Record, error) {
	reader := csv.NewReader(NewRepairReader(r))
	reader.Comma = Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols, err := mapHeader(header)
	if err != nil {
		return nil, err
	}
	if cols.splitAddress() && parser == nil {
		parser = address.New()
	}

	var records []cowork.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, fmt.Errorf("line %d: %w", perr.Line, err)
			}
			return nil, err
		}
		if isBlank(row) {
			continue
		}

		rec := cowork.Record{
			CNPJBase:     cols.value(row, FieldBase),
			CNPJOrder:    cols.value(row, FieldOrder),
			CNPJCheck:    cols.value(row, FieldCheck),
			Email:        cols.value(row, FieldEmail),
			StreetType:   cols.value(row, FieldStreetType),
			Neighborhood: cols.value(row, FieldNeighborhood),
			Source:       source,
		}
		if cols.splitAddress() {
			parts := parser.Parse(cols.value(row, FieldAddress))
			rec.Street, rec.Number, rec.Complement = parts.Street, parts.Number, parts.Complement
			if rec.Neighborhood == "" {
				rec.Neighborhood = parts.Neighborhood
			}
		} else {
			rec.Street = cols.value(row, FieldStreet)
			rec.Number = cols.value(row, FieldNumber)
			rec.Complement = cols.value(row, FieldComplement)
		}
		records = append(records, rec)
	}

	return records, nil
}

// ReadFile opens path, transparently decompressing .gz files, and parses it
func ReadFile(path string, parser address.Parser) ([]cowork.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	var r io.Reader = file
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	records, err := ReadRecords(r, path, parser)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
