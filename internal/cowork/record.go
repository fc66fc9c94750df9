package cowork

import (
	"github.com/cnpj-cowork/internal/cnpj"
)

// NotInformed replaces missing values in display tables
const NotInformed = "Não informado"

// Record is one establishment row of a registry extract.
// An empty field means the value was missing in the source.
type Record struct {
	CNPJBase     string `json:"cnpj_base"`
	CNPJOrder    string `json:"cnpj_order"`
	CNPJCheck    string `json:"cnpj_check"`
	Email        string `json:"email"`
	StreetType   string `json:"street_type"`
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Source       string `json:"source,omitempty"`
}

// CNPJ returns the composite identifier of the record
func (r Record) CNPJ() string {
	return cnpj.Compose(r.CNPJBase, r.CNPJOrder, r.CNPJCheck)
}

// Table is an ordered set of records
type Table []Record

// Clusters maps a complement value to the rows of every occupancy cluster found for it
type Clusters map[string]Table

// Columns lists display table headers in presentation order
var Columns = []string{
	"CNPJ",
	"CORREIO ELETRÔNICO",
	"TIPO DE LOGRADOURO",
	"LOGRADOURO",
	"BAIRRO",
	"NÚMERO",
	"COMPLEMENTO",
}

// Row is a display-ready record with its composite identifier
type Row struct {
	CNPJ         string `json:"cnpj"`
	Email        string `json:"email"`
	StreetType   string `json:"street_type"`
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
}

// Values returns the row cells in Columns order
func (r Row) Values() []string {
	return []string{r.CNPJ, r.Email, r.StreetType, r.Street, r.Neighborhood, r.Number, r.Complement}
}

// DisplayTable is the deduplicated, ordered set of rows of one street
type DisplayTable []Row

// newRow converts a record, filling missing display values
func newRow(rec Record, id string) Row {
	return Row{
		CNPJ:         fill(id),
		Email:        fill(rec.Email),
		StreetType:   fill(rec.StreetType),
		Street:       fill(rec.Street),
		Neighborhood: fill(rec.Neighborhood),
		Number:       fill(rec.Number),
		Complement:   fill(rec.Complement),
	}
}

func fill(v string) string {
	if v == "" {
		return NotInformed
	}
	return v
}
