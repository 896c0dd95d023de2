// Package mediaserver chooses and checks the metadata source.
package mediaserver

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmcdole/baldr/internal/adapter"
	"github.com/mmcdole/baldr/internal/domain"
	"github.com/mmcdole/baldr/internal/mediaserver/local"
	"github.com/mmcdole/baldr/internal/mediaserver/rest"
)

// MediaSource is a metadata backend. Close releases its resources.
type MediaSource interface {
	domain.AssetIndex
	Close() error
}

// NewClient creates a new MediaSource based on the server type.
func NewClient(cfg *adapter.Config, logger *slog.Logger) (MediaSource, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Server.Type {
	case adapter.SourceTypeREST:
		if cfg.Server.URL == "" {
			return nil, errors.New("server URL is required")
		}
		return restSource{rest.NewClient(cfg.Server.URL, cfg.Server.Timeout, logger)}, nil

	case adapter.SourceTypeLocal:
		idx, err := local.Open(cfg.Index.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open index %s: %w", cfg.Index.Path, err)
		}
		return idx, nil

	default:
		return nil, fmt.Errorf("unknown server type: %s", cfg.Server.Type)
	}
}

// restSource holds no resources
type restSource struct {
	*rest.Client
}

func (restSource) Close() error { return nil }
