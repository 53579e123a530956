package app

import (
	"github.com/spf13/cobra"

	"github.com/GoVCL/GoVCL/internal/daemon"
)

func init() { //nolint: gochecknoinits
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable dev mode: local templates, insecure cookies")
	startCmd.Flags().IntVar(&listenPort, "port", 0, "Override Webserver.Port")

	rootCmd.AddCommand(startCmd)
}

var (
	devMode    bool
	listenPort int

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the GoVCL web service",
		PreRunE: func(_ *cobra.Command, _ []string) error {
			if err := readConfig(); err != nil {
				return err
			}

			if devMode {
				cfg.DevMode = true
			}

			if listenPort > 0 {
				cfg.Webserver.Port = listenPort
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := daemon.New(cmd.Context(), &cfg)
			if err != nil {
				return err
			}

			return d.Start()
		},
	}
)
