package json

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalLines(t *testing.T) {
	records := []map[string]interface{}{
		{"id": 1, "url": "https://example.com/?a=1&b=2"},
		{"id": 2},
	}

	data, err := MarshalLines(records)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	// HTML escaping is disabled
	assert.Contains(t, lines[0], "a=1&b=2")
	assert.JSONEq(t, `{"id":2}`, lines[1])
}

func TestMarshalLine_EndsWithNewline(t *testing.T) {
	data, err := MarshalLine(map[string]interface{}{"type": "STATE"})
	require.NoError(t, err)
	assert.True(t, bytes.HasSuffix(data, []byte("\n")))
}

func TestDecodeObject(t *testing.T) {
	obj, err := DecodeObject(strings.NewReader(`{"Sent": 3, "Rate": 0.5, "Days": []}`))
	require.NoError(t, err)
	assert.Equal(t, float64(3), obj["Sent"])
	assert.Equal(t, 0.5, obj["Rate"])

	_, err = DecodeObject(strings.NewReader(`<html>`))
	assert.Error(t, err)
}

func TestBufferPool(t *testing.T) {
	buf := GetBuffer()
	buf.WriteString("leftover")
	PutBuffer(buf)

	again := GetBuffer()
	assert.Equal(t, 0, again.Len())
}
