package singer

import (
	"bufio"
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/tap-postmark/pkg/connector/core"
	"github.com/ajitpratap0/tap-postmark/pkg/daterange"
	jsonpool "github.com/ajitpratap0/tap-postmark/pkg/json"
	"github.com/ajitpratap0/tap-postmark/pkg/schema"
)

var extracted = time.Date(2021, 1, 3, 4, 5, 6, 0, time.UTC)

func decodeLines(t *testing.T, out []byte) []map[string]any {
	t.Helper()
	var msgs []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, jsonpool.Unmarshal(sc.Bytes(), &m), sc.Text())
		msgs = append(msgs, m)
	}
	return msgs
}

func TestDestination_SchemaRecordState(t *testing.T) {
	var out bytes.Buffer
	d := NewDestination(&out, zaptest.NewLogger(t), WithClock(func() time.Time { return extracted }))
	ctx := context.Background()

	s := &schema.StreamSchema{Name: "stats_outbound_bounces", KeyProperties: []string{"id"}, ReplicationKey: "date"}
	require.NoError(t, d.WriteSchema(ctx, s, map[string]any{"type": "object"}))
	require.NoError(t, d.WriteRecords(ctx, s.Name, []schema.CleanedRecord{
		{"id": int64(20210102), "HardBounce": int64(3), "date": time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC)},
	}))

	st := core.NewState()
	st.SetBookmark(s.Name, daterange.MustParseDay("2021-01-02"))
	require.NoError(t, d.WriteState(ctx, st))
	require.NoError(t, d.Close(ctx))

	msgs := decodeLines(t, out.Bytes())
	require.Len(t, msgs, 3)

	assert.Equal(t, "SCHEMA", msgs[0]["type"])
	assert.Equal(t, []any{"id"}, msgs[0]["key_properties"])
	assert.Equal(t, []any{"date"}, msgs[0]["bookmark_properties"])

	assert.Equal(t, "RECORD", msgs[1]["type"])
	assert.Equal(t, "stats_outbound_bounces", msgs[1]["stream"])
	assert.Equal(t, "2021-01-03T04:05:06Z", msgs[1]["time_extracted"])
	rec := msgs[1]["record"].(map[string]any)
	assert.Equal(t, 20210102.0, rec["id"])
	assert.Equal(t, "2021-01-02T00:00:00Z", rec["date"])

	assert.Equal(t, "STATE", msgs[2]["type"])
	assert.Equal(t, map[string]any{
		"bookmarks": map[string]any{"stats_outbound_bounces": map[string]any{"date": "2021-01-02"}},
	}, msgs[2]["value"])
}

func TestDestination_RecordsFlushedPerBatch(t *testing.T) {
	var out bytes.Buffer
	d := NewDestination(&out, nil)

	require.NoError(t, d.WriteRecords(context.Background(), "outbound_clients", []schema.CleanedRecord{
		{"Total": decimal.RequireFromString("1.5"), "Email_cz": nil},
		{"Total": int64(2)},
	}))
	assert.Len(t, decodeLines(t, out.Bytes()), 2)
	assert.Contains(t, out.String(), `"Email_cz":null`)
}

func TestDestination_CancelledContext(t *testing.T) {
	var out bytes.Buffer
	d := NewDestination(&out, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.WriteRecords(ctx, "messages_opens", []schema.CleanedRecord{{"MessageID": "a"}})
	assert.ErrorIs(t, err, context.Canceled)
}

type closeRecorder struct{ closed bool }

func (c *closeRecorder) Close() error { c.closed = true; return nil }

func TestDestination_CloseClosesUnderlying(t *testing.T) {
	c := &closeRecorder{}
	d := NewDestination(&bytes.Buffer{}, nil, WithCloser(c))
	require.NoError(t, d.Close(context.Background()))
	assert.True(t, c.closed)
}
