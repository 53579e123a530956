package app

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/GoVCL/GoVCL/internal/auth"
	"github.com/GoVCL/GoVCL/internal/daemon"
	"github.com/GoVCL/GoVCL/internal/db/models"
)

// EnvLocalPassword supplies the password of localuser add when --password is not given.
const EnvLocalPassword = "GOVCL_LOCAL_PASSWORD"

func init() { //nolint: gochecknoinits
	localUserAddCmd.Flags().StringVar(&localPassword, "password", "", "Password, defaults to $"+EnvLocalPassword)
	localUserAddCmd.Flags().StringVar(&localProfile.FirstName, "first", "", "First name")
	localUserAddCmd.Flags().StringVar(&localProfile.LastName, "last", "", "Last name")
	localUserAddCmd.Flags().StringVar(&localProfile.Email, "email", "", "Email address")

	localUserCmd.AddCommand(localUserAddCmd)
	rootCmd.AddCommand(localUserCmd)
}

var (
	localPassword string
	localProfile  auth.Profile

	localUserCmd = &cobra.Command{
		Use:   "localuser",
		Short: "Manage accounts of the " + models.AffiliationLocal + " affiliation",
	}

	localUserAddCmd = &cobra.Command{
		Use:   "add <userid>",
		Short: "Create a local account or reset its password",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return readConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			password := localPassword
			if password == "" {
				password = os.Getenv(EnvLocalPassword)
			}

			if password == "" {
				return errors.New("no password given, use --password or $" + EnvLocalPassword)
			}

			db, err := daemon.Prepare(cmd.Context(), &cfg)
			if err != nil {
				return err
			}

			user, err := auth.NewLocalAuthenticator(db).SetPassword(cmd.Context(), args[0], password, localProfile)
			if err != nil {
				return err
			}

			cmd.Printf("local account %s ready (user id %d)\n", user.LoginIdentity(), user.ID)

			return nil
		},
	}
)
