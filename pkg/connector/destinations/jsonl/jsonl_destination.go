// Package jsonl persists Singer messages to a local, optionally compressed,
// JSON lines file.
package jsonl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-postmark/pkg/compression"
	"github.com/ajitpratap0/tap-postmark/pkg/config"
	"github.com/ajitpratap0/tap-postmark/pkg/connector/destinations/singer"
	"github.com/ajitpratap0/tap-postmark/pkg/errors"
)

// Destination is a Singer destination backed by a file.
type Destination struct {
	*singer.Destination
	path string
}

// fileCloser closes the codec before the file and syncs in between.
type fileCloser struct {
	codec interface{ Close() error }
	file  *os.File
}

func (c *fileCloser) Close() error {
	if err := c.codec.Close(); err != nil {
		_ = c.file.Close()
		return err
	}
	if err := c.file.Sync(); err != nil {
		_ = c.file.Close()
		return err
	}
	return c.file.Close()
}

// NewDestination creates the output file. The algorithm's extension is
// appended to path when missing.
func NewDestination(cfg config.OutputConfig, logger *zap.Logger) (*Destination, error) {
	if cfg.Path == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "output.path is required for jsonl output")
	}
	algo, err := compression.ParseAlgorithm(cfg.Compression)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid output compression")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	path := cfg.Path
	if ext := compression.Extension(algo); ext != "" && !strings.HasSuffix(path, ext) {
		path += ext
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, fmt.Sprintf("failed to create directory %s", dir))
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, fmt.Sprintf("failed to create file %s", path))
	}

	codec, err := compression.NewWriter(file, algo, compression.Default)
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to initialize compression")
	}

	logger.Info("writing jsonl output",
		zap.String("path", path),
		zap.String("compression", string(algo)))

	return &Destination{
		Destination: singer.NewDestination(codec, logger, singer.WithCloser(&fileCloser{codec: codec, file: file})),
		path:        path,
	}, nil
}

// Path is the file being written, including any compression extension.
func (d *Destination) Path() string { return d.path }
