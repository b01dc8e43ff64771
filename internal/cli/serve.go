// internal/cli/serve.go
package framebench

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mwiater/framebench/internal/appconfig"
	"github.com/mwiater/framebench/internal/echo"
	"github.com/mwiater/framebench/internal/logging"
	"github.com/mwiater/framebench/internal/wire"
)

var servePort int

// serveCmd runs only the echo responder, for benchmarks driven from another host.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the echo responder until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		r := echo.New(wire.BindEndpoint(servePort))
		if err := r.Serve(ctx); err != nil {
			return err
		}
		logging.LogEvent("responder stopped after echoing %d messages", r.Echoed())
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", appconfig.DefaultPort, "tcp port to bind")
	rootCmd.AddCommand(serveCmd)
}
