package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/ffbridge/internal/config"
	"github.com/ayusman/ffbridge/internal/skeleton"
	"github.com/ayusman/ffbridge/internal/transport"
)

func (a *app) newEndpointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "endpoints",
		Short: "Show the endpoint name and address of each hand",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "HAND\tENDPOINT\tADDRESS")
			for _, side := range skeleton.Sides() {
				ep := transport.Endpoint{Scope: cfg.Scope, Side: side}
				fmt.Fprintf(w, "%s\t%s\t%s\n", side, ep.Name(), endpointAddress(cfg, ep))
			}
			return w.Flush()
		},
	}
}

// endpointAddress returns where the transport for ep will connect.
func endpointAddress(cfg *config.Config, ep transport.Endpoint) string {
	if cfg.Transport.Kind == config.TransportSerial {
		return "serial:" + cfg.Transport.Serial.Hand(ep.Side).Port
	}
	return transport.PipeAddress(cfg.Transport.SocketDir, ep.Name())
}
