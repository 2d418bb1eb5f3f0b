package kafka

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/tap-postmark/pkg/config"
	"github.com/ajitpratap0/tap-postmark/pkg/connector/core"
	"github.com/ajitpratap0/tap-postmark/pkg/daterange"
	"github.com/ajitpratap0/tap-postmark/pkg/errors"
	"github.com/ajitpratap0/tap-postmark/pkg/schema"
)

func expectType(typ string) mocks.MessageChecker {
	return func(msg *sarama.ProducerMessage) error {
		for _, h := range msg.Headers {
			if string(h.Key) == "type" && string(h.Value) == typ {
				return nil
			}
		}
		return fmt.Errorf("expected %s header on %s", typ, msg.Topic)
	}
}

func expectTopic(topic string) mocks.MessageChecker {
	return func(msg *sarama.ProducerMessage) error {
		if msg.Topic != topic {
			return fmt.Errorf("topic %q, want %q", msg.Topic, topic)
		}
		return nil
	}
}

func TestDestination_PublishesSingerMessages(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(expectType("SCHEMA"))
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if !strings.Contains(string(val), `"MessageID":"a"`) {
			return fmt.Errorf("unexpected record %s", val)
		}
		return nil
	})
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(expectTopic("postmark.messages_outbound"))
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(expectTopic("postmark.state"))

	d := NewDestination(producer, "postmark.{stream}", zaptest.NewLogger(t))
	ctx := context.Background()

	s := &schema.StreamSchema{Name: "messages_outbound", KeyProperties: []string{"MessageID"}}
	require.NoError(t, d.WriteSchema(ctx, s, map[string]any{"type": "object"}))
	require.NoError(t, d.WriteRecords(ctx, s.Name, []schema.CleanedRecord{
		{"MessageID": "a"},
		{"MessageID": "b"},
	}))

	st := core.NewState()
	st.SetBookmark(s.Name, daterange.MustParseDay("2021-01-02"))
	require.NoError(t, d.WriteState(ctx, st))
	require.NoError(t, d.Close(ctx))
}

func TestDestination_EmptyBatchSendsNothing(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	d := NewDestination(producer, "", nil)

	require.NoError(t, d.WriteRecords(context.Background(), "outbound_clients", nil))
	require.NoError(t, d.Close(context.Background()))
}

func TestDestination_SendFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)

	d := NewDestination(producer, "", nil)
	err := d.WriteRecords(context.Background(), "outbound_clients", []schema.CleanedRecord{{"Total": int64(1)}})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConnection))
	assert.True(t, errors.IsRetryable(err))
	require.NoError(t, d.Close(context.Background()))
}

func TestTopicFor(t *testing.T) {
	assert.Equal(t, "outbound_clients", NewDestination(nil, "", nil).TopicFor("outbound_clients"))
	assert.Equal(t, "pm-outbound_clients-v1", NewDestination(nil, "pm-{stream}-v1", nil).TopicFor("outbound_clients"))
	assert.Equal(t, "fixed", NewDestination(nil, "fixed", nil).TopicFor("outbound_clients"))
}

func TestBuildSaramaConfig(t *testing.T) {
	c, err := buildSaramaConfig(config.OutputConfig{Compression: "zstd"})
	require.NoError(t, err)
	assert.Equal(t, sarama.CompressionZSTD, c.Producer.Compression)
	assert.True(t, c.Producer.Return.Successes)
	assert.NoError(t, c.Validate())

	_, err = buildSaramaConfig(config.OutputConfig{Compression: "s2"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestConnect_RequiresBrokers(t *testing.T) {
	_, err := Connect(config.OutputConfig{Type: "kafka"}, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}
