package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"stats_outbound_bounces",
		"stats_outbound_overview",
		"stats_outbound_platform",
		"outbound_bounces",
		"outbound_platform",
		"outbound_clients",
		"messages_outbound",
		"messages_opens",
	}, c.Names())

	bounces, ok := c.Get("stats_outbound_bounces")
	require.True(t, ok)
	assert.Equal(t, []string{"id"}, bounces.KeyProperties)
	assert.Equal(t, FieldRule{Source: "id", Kind: KindInteger, Nullable: false}, bounces.Fields[0])
	assert.Equal(t, FieldRule{Source: "HardBounce", Kind: KindInteger, Nullable: true}, bounces.Fields[5])
}

func TestParseCatalog_Rejects(t *testing.T) {
	tests := map[string]string{
		"unknown type": `
streams:
  - name: s
    fields:
      - {source: a, type: float}`,
		"duplicate stream": `
streams:
  - name: s
  - name: s`,
		"duplicate target": `
streams:
  - name: s
    fields:
      - {source: a, map: b}
      - {source: b}`,
		"no name": `
streams:
  - fields: []`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestCatalog_Select(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	got, err := c.Select([]string{"messages_opens", "stats_outbound_platform"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	// catalog order wins over selection order
	assert.Equal(t, "stats_outbound_platform", got[0].Name)
	assert.Equal(t, "messages_opens", got[1].Name)

	all, err := c.Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, len(c.Names()))

	_, err = c.Select([]string{"nope"})
	assert.Error(t, err)
}

func TestCatalog_JSONSchema(t *testing.T) {
	c, err := ParseCatalog([]byte(`
streams:
  - name: s
    fields:
      - {source: id, type: integer, "null": false}
      - {source: Rate, map: rate, type: decimal}
      - {source: When, type: timestamp}
      - {source: Raw}
`))
	require.NoError(t, err)
	s, _ := c.Get("s")

	got := c.JSONSchema(s)
	props := got["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"type": []string{"integer"}}, props["id"])
	assert.Equal(t, map[string]any{"type": []string{"number", "null"}}, props["rate"])
	assert.Equal(t, map[string]any{"type": []string{"string", "null"}, "format": "date-time"}, props["When"])
	assert.Equal(t, map[string]any{}, props["Raw"])
	assert.Equal(t, false, got["additionalProperties"])
}
