package jq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haystackfs/haystack/pkg/types"
)

func sampleRecords() []types.Record {
	created := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
	return []types.Record{
		{ID: 1, AuthorID: 42, Filename: "report.pdf", Filetype: "pdf", URL: "https://cdn.example/report.pdf", CreatedAt: created},
		{ID: 2, AuthorID: 42, Filename: "photo.png", Filetype: "png", URL: "https://cdn.example/photo.png", CreatedAt: created},
		{ID: 3, AuthorID: 7, Filename: "notes.pdf", Filetype: "pdf", URL: "https://cdn.example/notes.pdf", CreatedAt: created},
	}
}

func TestQueryRecordsExtractsField(t *testing.T) {
	e := NewEngine()
	res, err := e.QueryRecords(sampleRecords(), ".url", false, 0)
	require.NoError(t, err)
	assert.Equal(t, []any{
		"https://cdn.example/report.pdf",
		"https://cdn.example/photo.png",
		"https://cdn.example/notes.pdf",
	}, res.Values)
	assert.Empty(t, res.Errors)
}

func TestQueryRecordsDeduplicates(t *testing.T) {
	e := NewEngine()
	res, err := e.QueryRecords(sampleRecords(), ".filetype", true, 0)
	require.NoError(t, err)
	assert.Equal(t, []any{"pdf", "png"}, res.Values)
	assert.Equal(t, 3, res.RawCount)
}

func TestQueryRecordsFilters(t *testing.T) {
	e := NewEngine()
	res, err := e.QueryRecords(sampleRecords(), `select(.author_id == 7) | .filename`, false, 0)
	require.NoError(t, err)
	assert.Equal(t, []any{"notes.pdf"}, res.Values)
}

func TestQueryRecordsMaxResults(t *testing.T) {
	e := NewEngine()
	res, err := e.QueryRecords(sampleRecords(), ".id", false, 2)
	require.NoError(t, err)
	assert.Len(t, res.Values, 2)
}

func TestQueryRecordsInvalidExpression(t *testing.T) {
	e := NewEngine()
	_, err := e.QueryRecords(sampleRecords(), ".[broken", false, 0)
	assert.Error(t, err)
}

func TestQueryRecordsRuntimeErrorIsPerRecord(t *testing.T) {
	e := NewEngine()
	res, err := e.QueryRecords(sampleRecords(), ".filename | .[]", false, 0)
	require.NoError(t, err)
	assert.Empty(t, res.Values)
	assert.NotEmpty(t, res.Errors)
}

func TestValidateExpression(t *testing.T) {
	e := NewEngine()
	assert.NoError(t, e.ValidateExpression(".filename"))
	assert.Error(t, e.ValidateExpression(".[broken"))
}
