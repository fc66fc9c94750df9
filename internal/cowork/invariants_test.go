package cowork

import (
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fakeNeighborhoods = []string{"CENTRO", "SAVASSI", "FUNCIONARIOS", "LOURDES"}
	fakeComplements   = []string{"", "SALA 1", "SALA 10", "BLOCO A", "BLOCO A SALA 2", "LOJA", "loja 3", "ANDAR 5"}
	fakeStreets       = []string{"", "AFONSO PENA", "BAHIA", "GETULIO VARGAS", "CONTORNO"}
	fakeNumbers       = []string{"", "10", "100", "2", "25A", "S/N"}
)

// fakeRecords builds a dense random extract so that clusters are frequent
func fakeRecords(n int) []Record {
	gofakeit.Seed(42)

	records := make([]Record, n)
	for i := range records {
		email := ""
		if gofakeit.Bool() {
			email = gofakeit.Email()
		}
		records[i] = Record{
			CNPJBase:     gofakeit.Numerify("########"),
			CNPJOrder:    gofakeit.Numerify("000#"),
			CNPJCheck:    gofakeit.Numerify("##"),
			Email:        email,
			StreetType:   gofakeit.RandomString([]string{"RUA", "AVENIDA", ""}),
			Street:       gofakeit.RandomString(fakeStreets),
			Neighborhood: gofakeit.RandomString(fakeNeighborhoods),
			Number:       gofakeit.RandomString(fakeNumbers),
			Complement:   gofakeit.RandomString(fakeComplements),
		}
	}

	// a few repeated establishments exercise deduplication
	for i := 0; i < n/10; i++ {
		records = append(records, records[gofakeit.Number(0, n-1)])
	}
	return records
}

func TestClusterInvariantsOnRandomData(t *testing.T) {
	records := fakeRecords(600)

	for _, neighborhood := range fakeNeighborhoods {
		clusters := FindOccupancyClusters(records, neighborhood)
		require.NotEmpty(t, clusters, neighborhood)

		for complement, table := range clusters {
			pairs := make(map[[2]string]int)
			for _, r := range table {
				assert.Equal(t, neighborhood, r.Neighborhood)
				assert.NotEmpty(t, r.Street)
				assert.NotEmpty(t, r.Number)
				if complement == "" {
					assert.Empty(t, r.Complement)
				} else {
					assert.Contains(t, strings.ToUpper(r.Complement), strings.ToUpper(complement))
				}
				pairs[[2]string{r.Street, r.Number}]++
			}
			for pair, n := range pairs {
				assert.GreaterOrEqual(t, n, 2, "%s %v", complement, pair)
			}
		}
	}
}

func TestAggregateInvariantsOnRandomData(t *testing.T) {
	records := fakeRecords(600)

	for _, neighborhood := range fakeNeighborhoods {
		clusters := FindOccupancyClusters(records, neighborhood)
		result := AggregateByStreet(clusters)
		assert.Equal(t, result, AggregateByStreet(clusters))

		for street, table := range result {
			seen := make(map[string]bool)
			for i, row := range table {
				assert.Equal(t, street, row.Street)
				assert.False(t, seen[row.CNPJ], "duplicate %s on %s", row.CNPJ, street)
				seen[row.CNPJ] = true
				assert.Len(t, row.CNPJ, 14)
				for _, v := range row.Values() {
					assert.NotEmpty(t, v)
				}
				if i > 0 {
					assert.False(t, lessNumber(row.Number, table[i-1].Number),
						"%s before %s on %s", table[i-1].Number, row.Number, street)
				}
			}
		}
	}
}
