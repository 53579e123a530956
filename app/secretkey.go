package app

import (
	"github.com/spf13/cobra"

	"github.com/GoVCL/GoVCL/internal/auth"
	"github.com/GoVCL/GoVCL/internal/daemon"
)

func init() { //nolint: gochecknoinits
	secretKeyCmd.AddCommand(secretKeyRotateCmd)
	rootCmd.AddCommand(secretKeyCmd)
}

var (
	secretKeyCmd = &cobra.Command{
		Use:   "secretkey",
		Short: "Manage the per affiliation secret keys",
	}

	secretKeyRotateCmd = &cobra.Command{
		Use:   "rotate <affiliation>",
		Short: "Replace the secret key of an affiliation",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return readConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := daemon.Prepare(ctx, &cfg)
			if err != nil {
				return err
			}

			aff, err := auth.EnsureAffiliation(ctx, db, args[0])
			if err != nil {
				return err
			}

			store := auth.NewSecretKeyStore(db, cfg.Auth.SecretKeys.SigningKeyID)
			if err = store.Rotate(ctx, aff.ID); err != nil {
				return err
			}

			key, err := store.SecretKey(ctx, aff.ID)
			if err != nil {
				return err
			}

			cmd.Printf("secret key of %s rotated (%d bytes)\n", aff.Name, len(key))

			return nil
		},
	}
)
