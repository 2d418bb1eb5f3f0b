// Package singer writes cleaned records as Singer protocol messages, one
// JSON document per line.
package singer

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"
	"time"

	gojson "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-postmark/pkg/connector/core"
	"github.com/ajitpratap0/tap-postmark/pkg/errors"
	jsonpool "github.com/ajitpratap0/tap-postmark/pkg/json"
	"github.com/ajitpratap0/tap-postmark/pkg/schema"
)

// Destination emits SCHEMA, RECORD and STATE messages to a writer.
type Destination struct {
	mu      sync.Mutex
	w       *bufio.Writer
	enc     *gojson.Encoder
	closer  io.Closer
	now     func() time.Time
	logger  *zap.Logger
	records int64
}

// Option customizes a Destination.
type Option func(*Destination)

// WithClock sets the time stamped into time_extracted.
func WithClock(now func() time.Time) Option {
	return func(d *Destination) { d.now = now }
}

// WithCloser closes c after the final flush.
func WithCloser(c io.Closer) Option {
	return func(d *Destination) { d.closer = c }
}

// NewDestination writes messages to w.
func NewDestination(w io.Writer, logger *zap.Logger, opts ...Option) *Destination {
	if logger == nil {
		logger = zap.NewNop()
	}
	bw := bufio.NewWriterSize(w, 64*1024)
	d := &Destination{
		w:      bw,
		enc:    jsonpool.GetEncoder(bw),
		now:    time.Now,
		logger: logger.With(zap.String("component", "singer_destination")),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewStdoutDestination is the default tap output.
func NewStdoutDestination(logger *zap.Logger) *Destination {
	return NewDestination(os.Stdout, logger)
}

// WriteSchema emits the stream's SCHEMA message.
func (d *Destination) WriteSchema(_ context.Context, s *schema.StreamSchema, jsonSchema map[string]any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.encode(SchemaMessage(s, jsonSchema))
}

// WriteRecords emits one RECORD message per record and flushes.
func (d *Destination) WriteRecords(ctx context.Context, stream string, records []schema.CleanedRecord) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	extracted := d.now()
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.encode(RecordMessage(stream, rec, extracted)); err != nil {
			return err
		}
		d.records++
	}
	return d.flush()
}

// WriteState emits a STATE message and flushes.
func (d *Destination) WriteState(_ context.Context, st *core.State) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.encode(StateMessage(st)); err != nil {
		return err
	}
	return d.flush()
}

// Close flushes buffered output.
func (d *Destination) Close(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.flush()
	if d.closer != nil {
		if cerr := d.closer.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, errors.ErrorTypeFile, "failed to close output")
		}
		d.closer = nil
	}
	d.logger.Debug("destination closed", zap.Int64("records", d.records))
	return err
}

func (d *Destination) encode(m Message) error {
	if err := d.enc.Encode(m); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to encode "+m.Type+" message").
			WithDetail(errors.DetailStream, m.Stream)
	}
	return nil
}

func (d *Destination) flush() error {
	if err := d.w.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush output")
	}
	return nil
}
