package state

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/ajitpratap0/tap-postmark/pkg/config"
	"github.com/ajitpratap0/tap-postmark/pkg/errors"
)

// GCSBlob stores the state document as one Cloud Storage object.
type GCSBlob struct {
	client *storage.Client
	obj    *storage.ObjectHandle
	bucket string
	key    string
}

// DialGCS creates a client using application default credentials, or the
// service account key in cfg.CredentialsFile.
func DialGCS(ctx context.Context, cfg config.StateConfig) (*GCSBlob, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create GCS client")
	}
	return &GCSBlob{
		client: client,
		obj:    client.Bucket(cfg.Bucket).Object(cfg.Key),
		bucket: cfg.Bucket,
		key:    cfg.Key,
	}, nil
}

// Read downloads the object.
func (b *GCSBlob) Read(ctx context.Context) ([]byte, error) {
	r, err := b.obj.NewReader(ctx)
	if stderrors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "gcs read failed")
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to read gcs object")
	}
	return data, nil
}

// Write uploads data. The object only changes once Close succeeds.
func (b *GCSBlob) Write(ctx context.Context, data []byte) error {
	w := b.obj.NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return errors.Wrap(err, errors.ErrorTypeConnection, "gcs write failed")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "gcs upload failed")
	}
	return nil
}

// Close releases the client.
func (b *GCSBlob) Close() error {
	return b.client.Close()
}

func (b *GCSBlob) String() string {
	return fmt.Sprintf("gs://%s/%s", b.bucket, b.key)
}
