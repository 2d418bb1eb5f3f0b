// Package registry maps source, destination and state backend names to
// factories. Connector packages register themselves from init.
package registry

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-postmark/pkg/config"
	"github.com/ajitpratap0/tap-postmark/pkg/connector/core"
	"github.com/ajitpratap0/tap-postmark/pkg/errors"
	"github.com/ajitpratap0/tap-postmark/pkg/logger"
)

// SourceFactory creates the fetcher used by the extraction engine.
type SourceFactory func(ctx context.Context, cfg *config.TapConfig) (core.Fetcher, error)

// DestinationFactory creates a destination for cfg.Output.
type DestinationFactory func(ctx context.Context, cfg *config.TapConfig) (core.Destination, error)

// StateStoreFactory creates a bookmark store for cfg.State.
type StateStoreFactory func(ctx context.Context, cfg *config.TapConfig) (core.StateStore, error)

// Registry manages connector registration and instantiation
type Registry struct {
	sources      map[string]SourceFactory
	destinations map[string]DestinationFactory
	stateStores  map[string]StateStoreFactory
	mu           sync.RWMutex
	logger       *zap.Logger
}

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry creates a new connector registry
func NewRegistry() *Registry {
	return &Registry{
		sources:      make(map[string]SourceFactory),
		destinations: make(map[string]DestinationFactory),
		stateStores:  make(map[string]StateStoreFactory),
		logger:       logger.Get().With(zap.String("component", "connector_registry")),
	}
}

func register[F any](r *Registry, m map[string]F, kind core.ConnectorType, name string, factory F) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := m[name]; exists {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("%s connector %s already registered", kind, name))
	}
	m[name] = factory
	r.logger.Debug("connector registered", zap.String("type", string(kind)), zap.String("name", name))
	return nil
}

func lookup[F any](r *Registry, m map[string]F, kind core.ConnectorType, name string) (F, error) {
	r.mu.RLock()
	factory, exists := m[name]
	r.mu.RUnlock()
	if !exists {
		return factory, errors.New(errors.ErrorTypeConfig, fmt.Sprintf("%s connector %s not found", kind, name))
	}
	return factory, nil
}

func names[F any](r *Registry, m map[string]F) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(m))
	for name := range m {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// RegisterSource registers a source connector factory
func (r *Registry) RegisterSource(name string, factory SourceFactory) error {
	return register(r, r.sources, core.ConnectorTypeSource, name, factory)
}

// RegisterDestination registers a destination connector factory
func (r *Registry) RegisterDestination(name string, factory DestinationFactory) error {
	return register(r, r.destinations, core.ConnectorTypeDestination, name, factory)
}

// RegisterStateStore registers a bookmark store factory
func (r *Registry) RegisterStateStore(name string, factory StateStoreFactory) error {
	return register(r, r.stateStores, core.ConnectorTypeState, name, factory)
}

// CreateSource creates a source connector instance
func (r *Registry) CreateSource(ctx context.Context, name string, cfg *config.TapConfig) (core.Fetcher, error) {
	factory, err := lookup(r, r.sources, core.ConnectorTypeSource, name)
	if err != nil {
		return nil, err
	}
	source, err := factory(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("failed to create source connector %s", name))
	}
	return source, nil
}

// CreateDestination creates a destination connector instance
func (r *Registry) CreateDestination(ctx context.Context, name string, cfg *config.TapConfig) (core.Destination, error) {
	factory, err := lookup(r, r.destinations, core.ConnectorTypeDestination, name)
	if err != nil {
		return nil, err
	}
	destination, err := factory(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("failed to create destination connector %s", name))
	}
	return destination, nil
}

// CreateStateStore creates a bookmark store instance
func (r *Registry) CreateStateStore(ctx context.Context, name string, cfg *config.TapConfig) (core.StateStore, error) {
	factory, err := lookup(r, r.stateStores, core.ConnectorTypeState, name)
	if err != nil {
		return nil, err
	}
	store, err := factory(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeState, fmt.Sprintf("failed to create state store %s", name))
	}
	return store, nil
}

// ListSources returns a sorted list of registered source connectors
func (r *Registry) ListSources() []string { return names(r, r.sources) }

// ListDestinations returns a sorted list of registered destination connectors
func (r *Registry) ListDestinations() []string { return names(r, r.destinations) }

// ListStateStores returns a sorted list of registered state backends
func (r *Registry) ListStateStores() []string { return names(r, r.stateStores) }

// Clear removes all registered connectors (mainly for testing)
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sources = make(map[string]SourceFactory)
	r.destinations = make(map[string]DestinationFactory)
	r.stateStores = make(map[string]StateStoreFactory)
}

// Global registry functions

// RegisterSource registers a source connector in the global registry
func RegisterSource(name string, factory SourceFactory) error {
	return globalRegistry.RegisterSource(name, factory)
}

// RegisterDestination registers a destination connector in the global registry
func RegisterDestination(name string, factory DestinationFactory) error {
	return globalRegistry.RegisterDestination(name, factory)
}

// RegisterStateStore registers a bookmark store in the global registry
func RegisterStateStore(name string, factory StateStoreFactory) error {
	return globalRegistry.RegisterStateStore(name, factory)
}

// CreateSource creates a source connector from the global registry
func CreateSource(ctx context.Context, name string, cfg *config.TapConfig) (core.Fetcher, error) {
	return globalRegistry.CreateSource(ctx, name, cfg)
}

// CreateDestination creates a destination connector from the global registry
func CreateDestination(ctx context.Context, name string, cfg *config.TapConfig) (core.Destination, error) {
	return globalRegistry.CreateDestination(ctx, name, cfg)
}

// CreateStateStore creates a bookmark store from the global registry
func CreateStateStore(ctx context.Context, name string, cfg *config.TapConfig) (core.StateStore, error) {
	return globalRegistry.CreateStateStore(ctx, name, cfg)
}

// ListDestinations returns registered destinations from the global registry
func ListDestinations() []string {
	return globalRegistry.ListDestinations()
}

// ListStateStores returns registered state backends from the global registry
func ListStateStores() []string {
	return globalRegistry.ListStateStores()
}
