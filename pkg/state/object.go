package state

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-postmark/pkg/connector/core"
	"github.com/ajitpratap0/tap-postmark/pkg/errors"
)

// ErrNotFound is returned by a Blob whose object does not exist yet.
var ErrNotFound = stderrors.New("state object not found")

// Blob is the single remote object holding the state document.
type Blob interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	// String names the object for logs, e.g. s3://bucket/key.
	String() string
}

// ObjectStore keeps the state document in object storage.
type ObjectStore struct {
	blob   Blob
	logger *zap.Logger
}

// NewObjectStore returns a store backed by blob.
func NewObjectStore(blob Blob, logger *zap.Logger) *ObjectStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ObjectStore{
		blob:   blob,
		logger: logger.With(zap.String("component", "state_store"), zap.Stringer("object", blob)),
	}
}

// Load fetches and decodes the object. A missing object is an empty state.
func (s *ObjectStore) Load(ctx context.Context) (*core.State, error) {
	data, err := s.blob.Read(ctx)
	if stderrors.Is(err, ErrNotFound) {
		s.logger.Info("no saved state, starting from start_date")
		return core.NewState(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeState, fmt.Sprintf("failed to read %s", s.blob))
	}
	return core.ParseState(data)
}

// Save uploads the encoded state, replacing the object.
func (s *ObjectStore) Save(ctx context.Context, st *core.State) error {
	data, err := st.Marshal()
	if err != nil {
		return err
	}
	if err := s.blob.Write(ctx, data); err != nil {
		return errors.Wrap(err, errors.ErrorTypeState, fmt.Sprintf("failed to write %s", s.blob))
	}
	s.logger.Debug("state saved", zap.Int("bytes", len(data)))
	return nil
}

// Close releases the blob's client when it holds one.
func (s *ObjectStore) Close() error {
	if c, ok := s.blob.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
