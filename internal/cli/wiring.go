package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ayusman/ffbridge/internal/config"
	"github.com/ayusman/ffbridge/internal/curl"
	"github.com/ayusman/ffbridge/internal/skeleton"
	"github.com/ayusman/ffbridge/internal/store"
	"github.com/ayusman/ffbridge/internal/transport"
)

// newTransport builds the configured transport for one hand.
func newTransport(cfg *config.Config, side skeleton.Side, logger *zap.Logger) *transport.Stream {
	ep := transport.Endpoint{Scope: cfg.Scope, Side: side}
	opts := cfg.Transport.Options()

	if cfg.Transport.Kind == config.TransportSerial {
		port := cfg.Transport.Serial.Hand(side)
		return transport.NewSerial(ep, port.Port, port.SerialOptions, opts, logger)
	}
	return transport.NewPipe(ep, opts, logger)
}

// loadReferences resolves the reference poses from the configured source.
// st is only used for the store source and may be nil otherwise.
func loadReferences(cfg *config.Config, st *store.Store) (curl.References, error) {
	switch cfg.References.Source {
	case config.ReferencesStore:
		if st == nil {
			return curl.References{}, fmt.Errorf("reference source %q needs the pose store", cfg.References.Source)
		}
		if err := st.SeedBuiltin(cfg.References.Open, cfg.References.Closed); err != nil {
			return curl.References{}, fmt.Errorf("failed to seed reference poses: %w", err)
		}
		return st.References(cfg.References.Open, cfg.References.Closed)
	case config.ReferencesFile:
		return curl.LoadReferences(cfg.References.File)
	default:
		return curl.BuiltinReferences(), nil
	}
}

// openStore opens the pose database from the config.
func openStore(cfg *config.Config) (*store.Store, error) {
	st, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pose store: %w", err)
	}
	return st, nil
}
