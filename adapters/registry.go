package adapters

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/brettbedarf/memvfs"
	"github.com/brettbedarf/memvfs/internal/util"
	"github.com/puzpuzpuz/xsync/v4"
)

var ErrUnknownSource = errors.New("unknown source type")

// ProviderFactory builds a content provider from the raw JSON of a source
// definition, i.e. {"type":"text","text":"hello"}
type ProviderFactory func(raw []byte) (memvfs.ContentProvider, error)

// Registry maps a source "type" to the factory that understands it
type Registry struct {
	factories *xsync.Map[string, ProviderFactory]
}

func NewRegistry() *Registry {
	return &Registry{
		factories: xsync.NewMap[string, ProviderFactory](),
	}
}

// Register ties a factory to a source type. The first registration for a
// type wins; later ones are ignored.
func (r *Registry) Register(sourceType string, factory ProviderFactory) {
	if _, loaded := r.factories.LoadOrStore(sourceType, factory); loaded {
		logger := util.GetLogger("Registry.Register")
		logger.Warn().Str("type", sourceType).Msg("Source type already registered; ignoring")
	}
}

// Factory returns the factory registered for sourceType
func (r *Registry) Factory(sourceType string) (ProviderFactory, error) {
	f, ok := r.factories.Load(sourceType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, sourceType)
	}
	return f, nil
}

// GetProvider picks the factory based on the "type" field of raw and builds
// the provider with it.
func (r *Registry) GetProvider(raw []byte) (memvfs.ContentProvider, error) {
	var meta struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("failed to read source type: %w", err)
	}
	if meta.Type == "" {
		return nil, fmt.Errorf("%w: missing type field", ErrUnknownSource)
	}
	f, err := r.Factory(meta.Type)
	if err != nil {
		return nil, err
	}
	return f(raw)
}

// Types returns the number of registered source types
func (r *Registry) Types() int {
	return r.factories.Size()
}
