package app

import (
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GoVCL/GoVCL/internal/daemon"
	"github.com/GoVCL/GoVCL/internal/db/controller/loginlog"
)

func init() { //nolint: gochecknoinits
	loginLogCmd.Flags().IntVarP(&loginLogLimit, "limit", "n", 20, "Number of entries")

	rootCmd.AddCommand(loginLogCmd)
}

var (
	loginLogLimit int

	loginLogCmd = &cobra.Command{
		Use:   "loginlog [userid]",
		Short: "Show the most recent login attempts",
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return readConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var login string
			if len(args) == 1 {
				login = args[0]
			}

			db, err := daemon.OpenDB(&cfg)
			if err != nil {
				return err
			}

			entries, err := loginlog.Recent(cmd.Context(), db, login, loginLogLimit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = w.Write([]byte("TIME\tLOGIN\tMECHANISM\tRESULT\tCODE\tREMOTE IP\n"))

			for _, e := range entries {
				result := "fail"
				if e.PassFail {
					result = "pass"
				}

				_, _ = w.Write([]byte(e.Timestamp.Format("2006-01-02 15:04:05") + "\t" + e.Login + "\t" +
					e.AuthMech + "\t" + result + "\t" + e.Code + "\t" + e.RemoteIP + "\n"))
			}

			return w.Flush()
		},
	}
)
