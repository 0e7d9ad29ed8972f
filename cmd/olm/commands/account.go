package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"olm/internal/domain"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the account and store it encrypted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			_, fp, err := appCtx.Accounts.CreateAccount(passphrase)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account created.\nFingerprint: %s\n", fp)
			return nil
		},
	}
}

// accountKeys is the output of the keys command.
type accountKeys struct {
	IdentityKeys domain.IdentityKeys `json:"identity_keys" yaml:"identity_keys"`
	OneTimeKeys  domain.OneTimeKeys  `json:"one_time_keys" yaml:"one_time_keys"`
}

func keysCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Print the identity keys and unpublished one-time keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			ids, err := appCtx.Accounts.IdentityKeys(passphrase)
			if err != nil {
				return err
			}
			otks, err := appCtx.Accounts.OneTimeKeys(passphrase)
			if err != nil {
				return err
			}
			return printStructured(cmd, accountKeys{IdentityKeys: ids, OneTimeKeys: otks}, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON regardless of the configured output")
	return cmd
}

func identityKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "identity-key",
		Short: "Print the Curve25519 identity key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			ids, err := appCtx.Accounts.IdentityKeys(passphrase)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ids.Curve25519)
			return nil
		},
	}
}

func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the identity fingerprint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			fp, err := appCtx.Accounts.Fingerprint(passphrase)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fingerprint: %s\n", fp)
			return nil
		},
	}
}

func generateKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate-keys <count>",
		Short: "Generate one-time keys and print the unpublished ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			count, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("count: %w", err)
			}
			keys, err := appCtx.Accounts.GenerateOneTimeKeys(passphrase, count)
			if err != nil {
				return err
			}
			return printStructured(cmd, keys, false)
		},
	}
}

func markPublishedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark-published",
		Short: "Mark all one-time keys and the fallback key as published",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			n, err := appCtx.Accounts.MarkKeysAsPublished(passphrase)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %d keys as published.\n", n)
			return nil
		},
	}
}

func fallbackKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fallback-key",
		Short: "Replace the fallback key and print the new one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			keys, err := appCtx.Accounts.GenerateFallbackKey(passphrase)
			if err != nil {
				return err
			}
			return printStructured(cmd, keys, false)
		},
	}
}
