package state

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/tap-postmark/pkg/config"
	"github.com/ajitpratap0/tap-postmark/pkg/connector/core"
	"github.com/ajitpratap0/tap-postmark/pkg/connector/registry"
	"github.com/ajitpratap0/tap-postmark/pkg/daterange"
	"github.com/ajitpratap0/tap-postmark/pkg/errors"
)

func bookmarked(stream, day string) *core.State {
	st := core.NewState()
	st.SetBookmark(stream, daterange.MustParseDay(day))
	return st
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	st, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.Bookmarks)

	require.NoError(t, store.Save(ctx, bookmarked("messages_outbound", "2021-01-02")))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"bookmarks":{"messages_outbound":{"date":"2021-01-02"}}}`, string(raw))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	day, ok := loaded.Bookmark("messages_outbound")
	require.True(t, ok)
	assert.Equal(t, "2021-01-02", day.String())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store, err := NewFileStore(path)
	require.NoError(t, err)
	_, err = store.Load(context.Background())
	assert.True(t, errors.IsType(err, errors.ErrorTypeState))
}

func TestNewFileStore_RequiresPath(t *testing.T) {
	_, err := NewFileStore("")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(bookmarked("outbound_clients", "2021-01-01"))

	st, err := m.Load(ctx)
	require.NoError(t, err)
	st.SetBookmark("outbound_clients", daterange.MustParseDay("2021-02-01"))

	again, _ := m.Load(ctx)
	day, _ := again.Bookmark("outbound_clients")
	assert.Equal(t, "2021-01-01", day.String(), "loaded state must be a copy")

	require.NoError(t, m.Save(ctx, st))
	again, _ = m.Load(ctx)
	day, _ = again.Bookmark("outbound_clients")
	assert.Equal(t, "2021-02-01", day.String())
	assert.Equal(t, 1, m.Saves())
}

type fakeS3 struct {
	objects map[string][]byte
	getErr  error
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func TestObjectStore_S3(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{}}
	blob := NewS3Blob(fake, "taps", "postmark/state.json")
	store := NewObjectStore(blob, zaptest.NewLogger(t))
	assert.Equal(t, "s3://taps/postmark/state.json", blob.String())

	st, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.Bookmarks)

	require.NoError(t, store.Save(ctx, bookmarked("messages_opens", "2021-03-04")))
	assert.JSONEq(t, `{"bookmarks":{"messages_opens":{"date":"2021-03-04"}}}`, string(fake.objects["taps/postmark/state.json"]))

	st, err = store.Load(ctx)
	require.NoError(t, err)
	day, ok := st.Bookmark("messages_opens")
	require.True(t, ok)
	assert.Equal(t, "2021-03-04", day.String())
	assert.NoError(t, store.Close())
}

func TestObjectStore_S3ReadFailure(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}, getErr: fmt.Errorf("access denied")}
	store := NewObjectStore(NewS3Blob(fake, "taps", "state.json"), nil)

	_, err := store.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeState))
	assert.Contains(t, err.Error(), "access denied")
}

func TestRegisteredBackends(t *testing.T) {
	assert.Subset(t, registry.ListStateStores(), []string{"file", "gcs", "memory", "s3"})

	cfg := config.NewTapConfig()
	cfg.State.Backend = "memory"
	store, err := registry.CreateStateStore(context.Background(), "memory", cfg)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	cfg.State.Path = filepath.Join(t.TempDir(), "state.json")
	store, err = registry.CreateStateStore(context.Background(), "file", cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.State.Path, store.(*FileStore).Path())
}
