// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/GoVCL/GoVCL/internal/config"
	"github.com/GoVCL/GoVCL/internal/logger"
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(
		&configPath,
		"config",
		"c",
		"./etc/",
		"Directory holding main.toml",
	)
}

var (
	configPath string // Path to the configuration directory

	cfg config.Config

	rootCmd = &cobra.Command{
		Use:   "govcl",
		Short: "GoVCL is the login and session front door of a virtual computing lab portal",
		Long: `GoVCL authenticates portal users against directories, a local password
store or federated identity providers, issues the signed VCLAUTH session token
and guards demo accounts whose trial has ended.`,
		Args:          cobra.OnlyValidArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// readConfig loads the configuration and initializes the logger.
func readConfig() error {
	var err error

	if cfg, err = config.ReadConfig(configPath); err != nil {
		return err
	}

	return logger.Init(cfg.Log)
}
