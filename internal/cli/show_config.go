// internal/cli/show_config.go
package framebench

import (
	"fmt"

	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/framebench/internal/appconfig"
)

// showConfigCmd prints the configuration after flags and the config file are merged.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show config settings ensuring that the config file is loaded properly and overridden by flags accordingly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		cfg := GetConfig()
		appconfig.ShowConfig(out, viper.ConfigFileUsed(), cfg, appconfig.Defaults())

		if cfg != nil && cfg.Debug {
			fmt.Fprintln(out)
			pp.ColoringEnabled = false
			if _, err := pp.Fprintln(out, cfg); err != nil {
				return fmt.Errorf("dump config: %w", err)
			}
		}
		return nil
	},
}

func init() {
	showCmd.AddCommand(showConfigCmd)
}
