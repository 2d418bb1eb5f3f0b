package registry

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tap-postmark/pkg/config"
	"github.com/ajitpratap0/tap-postmark/pkg/connector/core"
	"github.com/ajitpratap0/tap-postmark/pkg/errors"
)

type memStore struct{ st *core.State }

func (m *memStore) Load(context.Context) (*core.State, error)     { return m.st.Clone(), nil }
func (m *memStore) Save(_ context.Context, st *core.State) error { m.st = st.Clone(); return nil }

func TestRegistry_StateStores(t *testing.T) {
	r := NewRegistry()
	factory := func(context.Context, *config.TapConfig) (core.StateStore, error) {
		return &memStore{st: core.NewState()}, nil
	}

	require.NoError(t, r.RegisterStateStore("memory", factory))
	err := r.RegisterStateStore("memory", factory)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	store, err := r.CreateStateStore(context.Background(), "memory", config.NewTapConfig())
	require.NoError(t, err)
	assert.NotNil(t, store)

	_, err = r.CreateStateStore(context.Background(), "redis", config.NewTapConfig())
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.Contains(t, err.Error(), "redis")
}

func TestRegistry_FactoryErrorWrapped(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterDestination("broken", func(context.Context, *config.TapConfig) (core.Destination, error) {
		return nil, fmt.Errorf("no brokers")
	}))

	_, err := r.CreateDestination(context.Background(), "broken", config.NewTapConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create destination connector broken")
	assert.Contains(t, err.Error(), "no brokers")
}

func TestRegistry_ListSortedAndClear(t *testing.T) {
	r := NewRegistry()
	noop := func(context.Context, *config.TapConfig) (core.Destination, error) { return nil, nil }
	require.NoError(t, r.RegisterDestination("singer", noop))
	require.NoError(t, r.RegisterDestination("jsonl", noop))
	require.NoError(t, r.RegisterDestination("kafka", noop))

	assert.Equal(t, []string{"jsonl", "kafka", "singer"}, r.ListDestinations())

	r.Clear()
	assert.Empty(t, r.ListDestinations())
	assert.Empty(t, r.ListSources())
}
