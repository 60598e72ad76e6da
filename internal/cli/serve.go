package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/ffbridge/internal/config"
	"github.com/ayusman/ffbridge/internal/curl"
	"github.com/ayusman/ffbridge/internal/hands"
	"github.com/ayusman/ffbridge/internal/logging"
	"github.com/ayusman/ffbridge/internal/server"
	"github.com/ayusman/ffbridge/internal/skeleton"
)

// eventQueueSize bounds pending host events.
const eventQueueSize = 64

func (a *app) newServeCmd() *cobra.Command {
	var (
		addr   string
		noTray bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bridge and its host API",
		Long: `Connects once to the force feedback endpoint of each hand, then serves the
host API until interrupted. A hand whose endpoint is not available stays
inactive for the rest of the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTP.Addr = addr
			}
			if noTray {
				cfg.Tray.Enabled = false
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return a.serve(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides http.addr)")
	cmd.Flags().BoolVar(&noTray, "no-tray", false, "do not show the system tray menu")
	return cmd
}

// serve runs the bridge until ctx is done.
func (a *app) serve(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.Setup(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer logger.Sync()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	refs, err := loadReferences(cfg, st)
	if err != nil {
		return fmt.Errorf("failed to load reference poses: %w", err)
	}
	est, err := curl.NewEstimator(refs)
	if err != nil {
		return err
	}

	hc := hands.Config{
		Scope:            cfg.Scope,
		Estimator:        est,
		TransportOptions: cfg.Transport.Options(),
		Logger:           logger,
	}
	for _, side := range skeleton.Sides() {
		hc.Transports[side] = newTransport(cfg, side, logger)
	}

	coord, err := hands.New(hc)
	if err != nil {
		return err
	}
	defer coord.Shutdown()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Info("starting force feedback bridge",
		zap.String("scope", cfg.Scope),
		zap.String("transport", cfg.Transport.Kind),
		zap.String("references", cfg.References.Source))
	coord.Start(ctx)

	queue := hands.NewQueue(eventQueueSize)
	runErr := make(chan error, 1)
	go func() {
		runErr <- coord.RunQueue(ctx, queue)
	}()

	srv := server.New(server.Config{
		StaticDir:  cfg.HTTP.StaticDir,
		Store:      st,
		Hands:      coord,
		Dispatcher: queue,
		Logger:     logger,
	})

	srvErr := make(chan error, 1)
	go func() {
		err := srv.Run(ctx, cfg.HTTP.Addr)
		cancel()
		srvErr <- err
	}()

	// The tray blocks and must stay on the calling goroutine.
	if cfg.Tray.Enabled && a.tray != nil {
		a.tray(ctx, coord, queue, "http://"+cfg.HTTP.Addr, cancel)
	}

	err = <-srvErr
	<-runErr
	logger.Info("force feedback bridge stopped")
	if err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
