package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnpj-cowork/internal/cowork"
	"github.com/cnpj-cowork/internal/ingest"
)

type failingSource struct{ DatasetSource }

func (failingSource) Records(ctx context.Context, neighborhood string) ([]cowork.Record, error) {
	return nil, errors.New("connection reset")
}

func testDataset() *ingest.Dataset {
	return ingest.NewDataset([]cowork.Record{
		{CNPJBase: "1", CNPJOrder: "1", CNPJCheck: "1", Neighborhood: "CENTRO", Complement: "BLOCO A", Street: "RUA X", Number: "10"},
		{CNPJBase: "2", CNPJOrder: "1", CNPJCheck: "1", Neighborhood: "CENTRO", Complement: "BLOCO A SALA 2", Street: "RUA X", Number: "10"},
		{CNPJBase: "3", CNPJOrder: "1", CNPJCheck: "1", Neighborhood: "CENTRO", Complement: "LOJA", Street: "AV Y", Number: "2"},
		{CNPJBase: "4", CNPJOrder: "1", CNPJCheck: "1", Neighborhood: "CENTRO", Complement: "LOJA", Street: "AV Y", Number: "2"},
		{CNPJBase: "5", CNPJOrder: "1", CNPJCheck: "1", Neighborhood: "SAVASSI", Complement: "", Street: "RUA Z", Number: "1"},
	}, nil)
}

func TestNormalizeQuery(t *testing.T) {
	q, err := NormalizeQuery("  centro ")
	require.NoError(t, err)
	assert.Equal(t, "CENTRO", q)

	_, err = NormalizeQuery(" \t ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestServiceSearch(t *testing.T) {
	svc := NewService(DatasetSource{Dataset: testDataset()}, false)

	result, err := svc.Search(context.Background(), "centro")
	require.NoError(t, err)

	assert.Equal(t, "CENTRO", result.Neighborhood)
	assert.Equal(t, 2, result.Complements)
	assert.Equal(t, 4, result.Rows)
	require.Len(t, result.Streets, 2)
	assert.Equal(t, "AV Y", result.Streets[0].Street)
	assert.Equal(t, "RUA X", result.Streets[1].Street)
	assert.Equal(t, "00000001000101", result.Streets[1].Rows[0].CNPJ)
	assert.False(t, result.Empty())
}

func TestServiceSearchNoClusters(t *testing.T) {
	svc := NewService(DatasetSource{Dataset: testDataset()}, true)

	result, err := svc.Search(context.Background(), "Savassi")
	require.NoError(t, err)
	assert.True(t, result.Empty())
	assert.Zero(t, result.Rows)
}

func TestServiceSearchErrors(t *testing.T) {
	ds := testDataset()
	svc := NewService(DatasetSource{Dataset: ds}, false)

	_, err := svc.Search(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = svc.Search(context.Background(), "lourdes")
	assert.ErrorIs(t, err, ErrUnknownNeighborhood)

	_, err = NewService(failingSource{DatasetSource{Dataset: ds}}, false).Search(context.Background(), "centro")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownNeighborhood)
}
