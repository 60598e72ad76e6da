// Package cli implements the ffbridge command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ayusman/ffbridge/internal/config"
	"github.com/ayusman/ffbridge/internal/hands"
)

// Version is set at build time via ldflags.
var Version = "dev"

// TrayFunc runs a tray menu for coord until ctx is done. Menu actions go
// through queue. quit is called when the user asks to exit. It blocks.
type TrayFunc func(ctx context.Context, coord *hands.Coordinator, queue *hands.Queue, url string, quit func())

// app holds state shared by all commands.
type app struct {
	configPath string
	tray       TrayFunc
}

// NewRootCmd builds the command tree. tray may be nil.
func NewRootCmd(tray TrayFunc) *cobra.Command {
	a := &app{tray: tray}

	rootCmd := &cobra.Command{
		Use:   "ffbridge",
		Short: "Finger curl force feedback bridge",
		Long: `ffbridge estimates per-finger curl from hand skeleton poses and streams
it to a force feedback driver over one named pipe per hand.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}
	rootCmd.SetVersionTemplate("ffbridge version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default ~/.ffbridge/config.yaml)")

	rootCmd.AddCommand(
		a.newServeCmd(),
		a.newSendCmd(),
		a.newRelaxCmd(),
		a.newEstimateCmd(),
		a.newPosesCmd(),
		a.newEndpointsCmd(),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute(tray TrayFunc) error {
	return NewRootCmd(tray).Execute()
}

// loadConfig loads the config from --config or the default path.
func (a *app) loadConfig() (*config.Config, error) {
	path := a.configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return config.Load(path)
}
