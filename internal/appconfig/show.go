package appconfig

import (
	"fmt"
	"io"
	"strings"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg *Config, fallback Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	if cfg == nil {
		cfg = &fallback
	}

	chunks := "default"
	if sizes, err := cfg.ChunkSizeBytes(); err != nil {
		chunks = fmt.Sprintf("invalid (%v)", err)
	} else if len(cfg.ChunkSizes) > 0 {
		parts := make([]string, len(sizes))
		for i, s := range sizes {
			parts[i] = fmt.Sprint(s)
		}
		chunks = strings.Join(parts, ", ")
	}

	host := cfg.Host
	if cfg.EmbeddedResponder() {
		host = "(embedded responder)"
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Endpoint:        %s\n", cfg.Endpoint())
	fmt.Fprintf(out, "  Host:            %s\n", host)
	fmt.Fprintf(out, "  Header Size:     %d bytes\n", cfg.HeaderSize)
	fmt.Fprintf(out, "  Data Size:       %d bytes\n", cfg.DataSize)
	fmt.Fprintf(out, "  Runs:            %d\n", cfg.Runs)
	fmt.Fprintf(out, "  Chunk Sizes:     %s\n", chunks)
	fmt.Fprintf(out, "  Pause:           %s\n", cfg.Pause)
	fmt.Fprintf(out, "  Startup Delay:   %s\n", cfg.StartupDelay)
	fmt.Fprintf(out, "  Progress:        %v\n", cfg.Progress)
	fmt.Fprintf(out, "  JSON Mode:       %v\n", cfg.JSONMode)
	fmt.Fprintf(out, "  Debug:           %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Log File:        %s\n", cfg.LogFilePath())
}
