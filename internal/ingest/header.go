package ingest

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrMissingColumn is returned when a required column is absent from a header
var ErrMissingColumn = errors.New("missing required column")

// Field identifies a record attribute read from an extract
type Field int

const (
	FieldBase Field = iota
	FieldOrder
	FieldCheck
	FieldEmail
	FieldStreetType
	FieldStreet
	FieldNeighborhood
	FieldNumber
	FieldComplement
	FieldAddress
	fieldCount
)

// Header names per field, compared after FoldHeader
var fieldNames = map[Field][]string{
	FieldBase:         {"CNPJ BASICO", "CNPJ_BASICO"},
	FieldOrder:        {"CNPJ ORDEM", "CNPJ_ORDEM"},
	FieldCheck:        {"CNPJ DV", "CNPJ_DV"},
	FieldEmail:        {"CORREIO ELETRONICO", "EMAIL", "E-MAIL"},
	FieldStreetType:   {"TIPO DE LOGRADOURO", "TIPO_LOGRADOURO"},
	FieldStreet:       {"LOGRADOURO"},
	FieldNeighborhood: {"BAIRRO"},
	FieldNumber:       {"NUMERO"},
	FieldComplement:   {"COMPLEMENTO"},
	FieldAddress:      {"ENDERECO"},
}

var fieldLabels = map[Field]string{
	FieldBase:         "CNPJ BÁSICO",
	FieldOrder:        "CNPJ ORDEM",
	FieldCheck:        "CNPJ DV",
	FieldStreet:       "LOGRADOURO",
	FieldNeighborhood: "BAIRRO",
	FieldNumber:       "NÚMERO",
	FieldComplement:   "COMPLEMENTO",
}

// FoldHeader upper-cases a column name, strips accents and collapses spaces
func FoldHeader(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	return strings.Join(strings.Fields(strings.ToUpper(folded)), " ")
}

// columnMap holds the index of each field in a row, -1 when absent
type columnMap [fieldCount]int

// splitAddress reports whether street, number and complement come from a
// single free-form address column
func (m columnMap) splitAddress() bool {
	return m[FieldStreet] < 0 && m[FieldAddress] >= 0
}

// mapHeader resolves field positions in header
func mapHeader(header []string) (columnMap, error) {
	var m columnMap
	for i := range m {
		m[i] = -1
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		key := FoldHeader(col)
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	for field, names := range fieldNames {
		for _, name := range names {
			if i, ok := index[name]; ok {
				m[field] = i
				break
			}
		}
	}

	required := []Field{FieldBase, FieldOrder, FieldCheck, FieldNeighborhood}
	if !m.splitAddress() {
		required = append(required, FieldStreet, FieldNumber, FieldComplement)
	}

	var missing []string
	for _, f := range required {
		if m[f] < 0 {
			missing = append(missing, fieldLabels[f])
		}
	}
	if len(missing) > 0 {
		return m, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return m, nil
}

// value returns the trimmed cell of field, empty when absent
func (m columnMap) value(row []string, f Field) string {
	i := m[f]
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
