// Package kafka publishes Singer messages to Kafka, one message per record,
// keyed by stream so a stream's records stay ordered within a partition.
package kafka

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-postmark/pkg/config"
	"github.com/ajitpratap0/tap-postmark/pkg/connector/core"
	"github.com/ajitpratap0/tap-postmark/pkg/connector/destinations/singer"
	"github.com/ajitpratap0/tap-postmark/pkg/errors"
	jsonpool "github.com/ajitpratap0/tap-postmark/pkg/json"
	"github.com/ajitpratap0/tap-postmark/pkg/schema"
)

const (
	streamPlaceholder = "{stream}"
	// stateTopicName fills the placeholder for STATE messages.
	stateTopicName = "state"
)

// Destination sends every message through a synchronous producer.
type Destination struct {
	producer sarama.SyncProducer
	topic    string
	now      func() time.Time
	logger   *zap.Logger
}

// NewDestination wraps an existing producer.
func NewDestination(producer sarama.SyncProducer, topic string, logger *zap.Logger) *Destination {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Destination{
		producer: producer,
		topic:    topic,
		now:      time.Now,
		logger:   logger.With(zap.String("component", "kafka_destination")),
	}
}

// Connect dials the brokers in cfg and returns a ready destination.
func Connect(cfg config.OutputConfig, logger *zap.Logger) (*Destination, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrorTypeConfig, "output.brokers is required for kafka output")
	}
	saramaCfg, err := buildSaramaConfig(cfg)
	if err != nil {
		return nil, err
	}
	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create kafka producer").
			WithDetail("brokers", strings.Join(cfg.Brokers, ","))
	}
	return NewDestination(producer, cfg.Topic, logger), nil
}

func buildSaramaConfig(cfg config.OutputConfig) (*sarama.Config, error) {
	c := sarama.NewConfig()
	c.ClientID = "tap-postmark"
	// idempotence and zstd both need 2.1
	c.Version = sarama.V2_1_0_0
	c.Producer.RequiredAcks = sarama.WaitForAll
	c.Producer.Retry.Max = 5
	c.Producer.Return.Successes = true
	c.Producer.Return.Errors = true
	c.Producer.Idempotent = true
	c.Net.MaxOpenRequests = 1

	switch cfg.Compression {
	case "", "none":
		c.Producer.Compression = sarama.CompressionNone
	case "gzip":
		c.Producer.Compression = sarama.CompressionGZIP
	case "snappy":
		c.Producer.Compression = sarama.CompressionSnappy
	case "lz4":
		c.Producer.Compression = sarama.CompressionLZ4
	case "zstd":
		c.Producer.Compression = sarama.CompressionZSTD
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "compression %q is not supported by kafka output", cfg.Compression)
	}
	return c, nil
}

// TopicFor resolves the topic template for stream.
func (d *Destination) TopicFor(stream string) string {
	if d.topic == "" {
		return stream
	}
	return strings.ReplaceAll(d.topic, streamPlaceholder, stream)
}

// WriteSchema publishes the SCHEMA message on the stream's topic.
func (d *Destination) WriteSchema(_ context.Context, s *schema.StreamSchema, jsonSchema map[string]any) error {
	msg, err := d.message(s.Name, d.TopicFor(s.Name), singer.SchemaMessage(s, jsonSchema))
	if err != nil {
		return err
	}
	_, _, err = d.producer.SendMessage(msg)
	return d.sendError(err, s.Name)
}

// WriteRecords publishes the records as one batch.
func (d *Destination) WriteRecords(ctx context.Context, stream string, records []schema.CleanedRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	extracted := d.now()
	topic := d.TopicFor(stream)
	msgs := make([]*sarama.ProducerMessage, 0, len(records))
	for _, rec := range records {
		msg, err := d.message(stream, topic, singer.RecordMessage(stream, rec, extracted))
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := d.producer.SendMessages(msgs); err != nil {
		return d.sendError(err, stream)
	}
	d.logger.Debug("records published",
		zap.String("stream", stream),
		zap.String("topic", topic),
		zap.Int("count", len(msgs)))
	return nil
}

// WriteState publishes the bookmarks on the state topic.
func (d *Destination) WriteState(_ context.Context, st *core.State) error {
	msg, err := d.message(stateTopicName, d.TopicFor(stateTopicName), singer.StateMessage(st))
	if err != nil {
		return err
	}
	_, _, err = d.producer.SendMessage(msg)
	return d.sendError(err, "")
}

// Close closes the producer.
func (d *Destination) Close(context.Context) error {
	if err := d.producer.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to close kafka producer")
	}
	return nil
}

func (d *Destination) message(key, topic string, m singer.Message) (*sarama.ProducerMessage, error) {
	value, err := jsonpool.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, fmt.Sprintf("failed to encode %s message", m.Type)).
			WithDetail(errors.DetailStream, m.Stream)
	}
	return &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("type"), Value: []byte(m.Type)},
			{Key: []byte("content-type"), Value: []byte("application/json")},
		},
		Timestamp: d.now(),
	}, nil
}

func (d *Destination) sendError(err error, stream string) error {
	if err == nil {
		return nil
	}
	wrapped := errors.Wrap(err, errors.ErrorTypeConnection, "failed to publish to kafka")
	if stream != "" {
		wrapped = wrapped.WithDetail(errors.DetailStream, stream)
	}
	return wrapped
}
