package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tap-postmark/pkg/errors"
)

func testSchema() *StreamSchema {
	return &StreamSchema{
		Name: "test_stream",
		Fields: []FieldRule{
			{Source: "id", Kind: KindInteger},
			{Source: "Sent", Target: "sent", Kind: KindInteger, Nullable: true},
			{Source: "Tag", Nullable: true},
			{Source: "Note", Kind: KindString, Nullable: false},
		},
	}
}

func TestCleanRow(t *testing.T) {
	row := RawRecord{
		"id":    float64(20210101),
		"Sent":  float64(12),
		"Tag":   "",
		"Note":  "",
		"Extra": "ignored",
	}

	got, err := CleanRow(row, testSchema())
	require.NoError(t, err)

	assert.Equal(t, CleanedRecord{
		"id":   int64(20210101),
		"sent": int64(12),
		"Tag":  nil,
		"Note": "",
	}, got)
}

func TestCleanRow_KeySetMatchesTargets(t *testing.T) {
	s := testSchema()
	row := RawRecord{"id": float64(1), "Sent": nil, "Tag": "a", "Note": "b"}

	got, err := CleanRow(row, s)
	require.NoError(t, err)

	keys := make([]string, 0, len(got))
	for k := range got {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, s.TargetNames(), keys)
}

func TestCleanRow_MissingField(t *testing.T) {
	_, err := CleanRow(RawRecord{"id": float64(1), "Sent": float64(2), "Tag": nil}, testSchema())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeMissingField))
	assert.Contains(t, err.Error(), `"Note"`)
}

func TestCleanRow_ConversionNamesField(t *testing.T) {
	row := RawRecord{"id": float64(1), "Sent": "lots", "Tag": nil, "Note": "x"}
	_, err := CleanRow(row, testSchema())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConversion))
	assert.Contains(t, err.Error(), `field "Sent"`)
	assert.Contains(t, err.Error(), "lots")
}
