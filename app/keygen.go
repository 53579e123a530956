package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/GoVCL/GoVCL/internal/auth"
)

// Default key file names written by keygen.
const (
	PrivateKeyFile = "keys.pem"
	PublicKeyFile  = "pubkey.pem"
)

func init() { //nolint: gochecknoinits
	keygenCmd.Flags().IntVar(&keyBits, "bits", auth.MinKeyBits, "RSA modulus size")
	keygenCmd.Flags().StringVar(&keyDir, "out", ".", "Directory the key files are written to")
	keygenCmd.Flags().BoolVar(&keyForce, "force", false, "Overwrite existing key files")

	rootCmd.AddCommand(keygenCmd)
}

var (
	keyBits  int
	keyDir   string
	keyForce bool

	keygenCmd = &cobra.Command{
		Use:   "keygen",
		Short: "Generate the RSA key pair that signs VCLAUTH tokens",
		Long: `Generate the RSA key pair that signs VCLAUTH tokens.

Replacing the key pair invalidates every token issued with the old one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			priv, pub, err := writeKeyPair(keyDir, keyBits, keyForce)
			if err != nil {
				return err
			}

			cmd.Printf("private key: %s\npublic key:  %s\n", priv, pub)

			return nil
		},
	}
)

// writeKeyPair generates a key pair and writes it as PEM files into dir.
func writeKeyPair(dir string, bits int, force bool) (string, string, error) {
	privPath := filepath.Join(dir, PrivateKeyFile)
	pubPath := filepath.Join(dir, PublicKeyFile)

	if !force {
		for _, p := range []string{privPath, pubPath} {
			if _, err := os.Stat(p); err == nil {
				return "", "", fmt.Errorf("%s exists, use --force to replace it", p)
			} else if !errors.Is(err, os.ErrNotExist) {
				return "", "", err
			}
		}
	}

	keys, err := auth.GenerateKeyPair(bits)
	if err != nil {
		return "", "", err
	}

	privPEM, pubPEM, err := keys.MarshalPEM()
	if err != nil {
		return "", "", err
	}

	if err = os.MkdirAll(dir, 0o750); err != nil {
		return "", "", err
	}

	if err = os.WriteFile(privPath, privPEM, 0o600); err != nil {
		return "", "", err
	}

	if err = os.WriteFile(pubPath, pubPEM, 0o644); err != nil { //nolint:gosec // public key
		return "", "", err
	}

	return privPath, pubPath, nil
}
