package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"olm/internal/domain"
)

func groupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage group sessions",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return requirePassphrase()
		},
	}
	cmd.AddCommand(
		groupCreateCmd(),
		groupKeyCmd(),
		groupImportCmd(),
		groupEncryptCmd(),
		groupDecryptCmd(),
		groupExportCmd(),
	)
	return cmd
}

func groupCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create an outbound group session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := appCtx.Groups.CreateOutbound(passphrase, domain.GroupName(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Group session %s created.\n", id)
			return nil
		},
	}
}

func groupKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "key <name>",
		Short: "Print the credentials of an outbound group session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := appCtx.Groups.Credentials(passphrase, domain.GroupName(args[0]))
			if err != nil {
				return err
			}
			return printStructured(cmd, creds, false)
		},
	}
}

func groupImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <name> <credentials file>",
		Short: "Import group credentials (YAML or JSON, - for stdin) as an inbound session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := readFile(cmd, args[1])
			if err != nil {
				return err
			}
			// JSON is valid YAML, so one decoder reads both.
			var creds domain.GroupCredentials
			if err := yaml.Unmarshal(b, &creds); err != nil {
				return fmt.Errorf("parse credentials: %w", err)
			}
			id, err := appCtx.Groups.ImportInbound(passphrase, domain.GroupName(args[0]), creds)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Group session %s imported.\n", id)
			return nil
		},
	}
}

func groupEncryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt <name> [message]",
		Short: "Encrypt a message with an outbound group session",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := messageArg(cmd, args, 1)
			if err != nil {
				return err
			}
			ct, err := appCtx.Groups.Encrypt(passphrase, domain.GroupName(args[0]), msg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), encodeBase64(ct))
			return nil
		},
	}
}

func groupDecryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt <name> [message]",
		Short: "Decrypt a message with an inbound group session",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := messageArg(cmd, args, 1)
			if err != nil {
				return err
			}
			ct, err := decodeBase64("message", string(in))
			if err != nil {
				return err
			}
			pt, index, err := appCtx.Groups.Decrypt(passphrase, domain.GroupName(args[0]), ct)
			if err != nil {
				return err
			}
			log.Debugf("Decrypted group message %d", index)
			return writePlaintext(cmd, pt)
		},
	}
}

func groupExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <name> <index>",
		Short: "Export an inbound group session from a message index as credentials",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}
			key, err := appCtx.Groups.Export(passphrase, domain.GroupName(args[0]), uint32(index))
			if err != nil {
				return err
			}
			return printStructured(cmd, domain.NewGroupCredentials(uint32(index), key), false)
		},
	}
}
