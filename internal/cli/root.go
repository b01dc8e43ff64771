// internal/cli/root.go
package framebench

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/framebench/internal/appconfig"
	"github.com/mwiater/framebench/internal/logging"
)

var (
	cfgFile       string
	currentConfig *appconfig.Config
)

var rootCmd = &cobra.Command{
	Use:           "framebench",
	Short:        "framebench: request/reply frame size benchmark over ZeroMQ",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 1) Load config (file or defaults)
		if err := ensureConfigLoaded(); err != nil {
			return err
		}

		// 2) Materialize the merged configuration (flags > config > defaults).
		cfg := appconfig.Defaults()
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		cfg.ConfigPath = viper.ConfigFileUsed()
		currentConfig = &cfg

		// 3) Logging. JSON and progress output own stdout.
		var opts []logging.Option
		if cfg.JSONMode || cfg.Progress {
			opts = append(opts, logging.WithoutConsole())
		}
		if err := logging.Init(cfg.LogFilePath(), opts...); err != nil {
			return fmt.Errorf("init logging: %w", err)
		}
		logging.SetDebug(cfg.Debug)
		logging.Debugf("config loaded from %q", cfg.ConfigPath)
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	err := rootCmd.Execute()
	_ = logging.Close()
	if err != nil {
		os.Exit(1)
	}
}

// SetVersionInfo sets the string printed by --version.
func SetVersionInfo(version, commit, date string) {
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file, JSON or YAML (default "+appconfig.DefaultConfigPath+" if present)")

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("logFile", "", "log file path (default framebench.log)")

	// Bind flags to Viper keys (flags override config)
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("logFile", rootCmd.PersistentFlags().Lookup("logFile"))
}

// ensureConfigLoaded validates and reads the config file and sets defaults.
// The default path may be absent; an explicit --config path may not.
func ensureConfigLoaded() error {
	defaults := appconfig.Defaults()
	viper.SetDefault("port", defaults.Port)
	viper.SetDefault("host", defaults.Host)
	viper.SetDefault("headerSize", defaults.HeaderSize)
	viper.SetDefault("dataSize", defaults.DataSize)
	viper.SetDefault("runs", defaults.Runs)
	viper.SetDefault("pause", defaults.Pause)
	viper.SetDefault("startupDelay", defaults.StartupDelay)
	viper.SetDefault("progress", false)
	viper.SetDefault("jsonMode", false)
	viper.SetDefault("debug", false)

	path := cfgFile
	if path == "" {
		path = appconfig.DefaultConfigPath
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			// No file: fine, we'll use defaults/flags
			return nil
		}
	}

	if err := appconfig.ValidateFile(path); err != nil {
		return err
	}

	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// GetConfig returns the merged configuration of the running command.
func GetConfig() *appconfig.Config {
	return currentConfig
}
