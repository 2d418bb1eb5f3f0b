package jsonl

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/tap-postmark/pkg/compression"
	"github.com/ajitpratap0/tap-postmark/pkg/config"
	"github.com/ajitpratap0/tap-postmark/pkg/connector/core"
	"github.com/ajitpratap0/tap-postmark/pkg/daterange"
	"github.com/ajitpratap0/tap-postmark/pkg/errors"
	"github.com/ajitpratap0/tap-postmark/pkg/schema"
)

func readLines(t *testing.T, path string, algo compression.Algorithm) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r, err := compression.NewReader(f, algo)
	require.NoError(t, err)
	defer r.Close()

	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestDestination_WritesCompressedFile(t *testing.T) {
	for _, algo := range []compression.Algorithm{compression.None, compression.Gzip, compression.Zstd, compression.LZ4} {
		t.Run(string(algo), func(t *testing.T) {
			dir := t.TempDir()
			d, err := NewDestination(config.OutputConfig{
				Type:        "jsonl",
				Path:        filepath.Join(dir, "out", "postmark.jsonl"),
				Compression: string(algo),
			}, zaptest.NewLogger(t))
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, "out", "postmark.jsonl"+compression.Extension(algo)), d.Path())

			ctx := context.Background()
			require.NoError(t, d.WriteRecords(ctx, "outbound_clients", []schema.CleanedRecord{
				{"Date": "2021-01-02", "Total": int64(5)},
				{"Date": "2021-01-03", "Total": int64(0)},
			}))
			st := core.NewState()
			st.SetBookmark("outbound_clients", daterange.MustParseDay("2021-01-03"))
			require.NoError(t, d.WriteState(ctx, st))
			require.NoError(t, d.Close(ctx))

			lines := readLines(t, d.Path(), algo)
			require.Len(t, lines, 3)
			assert.Contains(t, lines[0], `"type":"RECORD"`)
			assert.Contains(t, lines[1], `"Total":0`)
			assert.Contains(t, lines[2], `"2021-01-03"`)
		})
	}
}

func TestNewDestination_Validation(t *testing.T) {
	_, err := NewDestination(config.OutputConfig{Type: "jsonl"}, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = NewDestination(config.OutputConfig{Type: "jsonl", Path: filepath.Join(t.TempDir(), "x"), Compression: "rar"}, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}
