package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"olm"
)

func signCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sign <file>",
		Short: "Sign a file with the account's Ed25519 key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			msg, err := readFile(cmd, args[0])
			if err != nil {
				return err
			}
			sig, err := appCtx.Accounts.Sign(passphrase, msg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), encodeBase64(sig))
			return nil
		},
	}
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <ed25519 key> <file> <signature>",
		Short: "Check an Ed25519 signature of a file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := olm.ParseEd25519Key(args[0])
			if err != nil {
				return fmt.Errorf("key: %w", err)
			}
			msg, err := readFile(cmd, args[1])
			if err != nil {
				return err
			}
			sig, err := decodeBase64("signature", args[2])
			if err != nil {
				return err
			}
			if err := olm.NewUtility().VerifyEd25519(key, msg, sig); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signature OK")
			return nil
		},
	}
}

func sha256Cmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sha256 <file>",
		Short: "Print the unpadded base64 SHA-256 of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := readFile(cmd, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), olm.NewUtility().SHA256(b))
			return nil
		},
	}
}
