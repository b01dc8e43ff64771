// internal/cli/run.go
package framebench

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mwiater/framebench/internal/appconfig"
	"github.com/mwiater/framebench/internal/benchmark"
	"github.com/mwiater/framebench/internal/echo"
	"github.com/mwiater/framebench/internal/logging"
	"github.com/mwiater/framebench/internal/report"
	"github.com/mwiater/framebench/internal/tui"
	"github.com/mwiater/framebench/internal/wire"
)

var (
	startResponder = func(ctx context.Context, endpoint string) *echo.Handle {
		return echo.Start(ctx, echo.New(endpoint))
	}
	dial  wire.DialFunc = wire.Dial
	sleep               = time.Sleep
)

// runCmd runs the benchmark against the embedded responder or a remote one.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Benchmark request/reply latency and throughput across frame sizes",
	Long: `Run splits a fixed payload into frames of each configured chunk size, sends it
over a fresh REQ connection per run, and reports the mean latency and throughput
per chunk size. Without --host an echo responder is started in-process.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("configuration is not initialized")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runBenchmark(ctx, cmd.OutOrStdout(), *cfg)
	},
}

func init() {
	defaults := appconfig.Defaults()
	flags := runCmd.Flags()
	flags.Int("port", defaults.Port, "responder tcp port")
	flags.String("host", "", "remote responder host; empty starts an embedded responder on localhost")
	flags.Int("header-size", defaults.HeaderSize, "size of the header frame in bytes")
	flags.Int("data-size", defaults.DataSize, "size of the payload in bytes")
	flags.Int("runs", defaults.Runs, "timed runs per chunk size")
	flags.StringSlice("chunk-sizes", nil, "chunk sizes to test, e.g. 1024,8KiB,64KiB (default 1KiB..512KiB)")
	flags.Duration("pause", defaults.Pause, "pause after each run")
	flags.Duration("startup-delay", defaults.StartupDelay, "wait for the embedded responder before the first run")
	flags.Bool("progress", false, "show a live progress view instead of per-run lines")
	flags.Bool("jsonMode", false, "print the results as JSON")

	_ = viper.BindPFlag("port", flags.Lookup("port"))
	_ = viper.BindPFlag("host", flags.Lookup("host"))
	_ = viper.BindPFlag("headerSize", flags.Lookup("header-size"))
	_ = viper.BindPFlag("dataSize", flags.Lookup("data-size"))
	_ = viper.BindPFlag("runs", flags.Lookup("runs"))
	_ = viper.BindPFlag("chunkSizes", flags.Lookup("chunk-sizes"))
	_ = viper.BindPFlag("pause", flags.Lookup("pause"))
	_ = viper.BindPFlag("startupDelay", flags.Lookup("startup-delay"))
	_ = viper.BindPFlag("progress", flags.Lookup("progress"))
	_ = viper.BindPFlag("jsonMode", flags.Lookup("jsonMode"))

	rootCmd.AddCommand(runCmd)
}

// runBenchmark owns the messaging context for one invocation. Cancelling it on
// return tears down every socket, which is how the embedded responder stops.
func runBenchmark(ctx context.Context, out io.Writer, cfg appconfig.Config) error {
	params, err := cfg.Params()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := logging.Named("run")

	var responder *echo.Handle
	if cfg.EmbeddedResponder() {
		responder = startResponder(ctx, cfg.BindEndpoint())
		sleep(cfg.StartupDelay)
		select {
		case <-responder.Done():
			return fmt.Errorf("responder exited before the benchmark started: %w", responder.Err())
		default:
		}
	}

	drv := benchmark.NewDriver(params)
	drv.Dial = dial
	drv.Sleep = sleep

	var progress *tui.Progress
	switch {
	case cfg.JSONMode:
	case cfg.Progress:
		progress = tui.NewProgress(params, cancel, tea.WithOutput(out))
		progress.Start()
		drv.Observer = progress
	default:
		printer := report.NewPrinter(out)
		printer.Banner(params)
		drv.Observer = printer
	}

	log.Info("benchmark starting",
		zap.String("endpoint", params.Endpoint),
		zap.Int("headerSize", params.HeaderSize),
		zap.Int("dataSize", params.DataSize),
		zap.Ints("chunkSizes", params.ChunkSizes),
		zap.Int("runs", params.Runs),
	)
	start := time.Now()
	summary, runErr := drv.Run(ctx)

	if progress != nil {
		if err := progress.Stop(); err != nil {
			log.Warn("progress view failed", zap.Error(err))
		}
	}

	cancel()
	if responder != nil {
		select {
		case <-responder.Done():
			log.Debug("responder stopped", zap.Uint64("echoed", responder.Responder.Echoed()))
		case <-time.After(appconfig.DefaultShutdownGrace):
			log.Warn("responder did not stop within the shutdown grace", zap.Duration("grace", appconfig.DefaultShutdownGrace))
		}
	}

	if runErr != nil {
		return fmt.Errorf("benchmark: %w", runErr)
	}
	log.Info("benchmark finished", zap.Duration("elapsed", time.Since(start)), zap.Int("chunkSizes", len(summary.Results)))

	if cfg.JSONMode {
		return report.WriteJSON(out, summary)
	}
	report.PrintResults(out, summary)
	report.PrintSummary(out, summary)
	return nil
}
