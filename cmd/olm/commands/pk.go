package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"olm/internal/domain"
)

// pkMessage is the printable form of a public-key encrypted message.
type pkMessage struct {
	Ciphertext string `json:"ciphertext" yaml:"ciphertext"`
	MAC        string `json:"mac" yaml:"mac"`
	Ephemeral  string `json:"ephemeral" yaml:"ephemeral"`
}

func (m pkMessage) decode() (domain.PkMessage, error) {
	var out domain.PkMessage
	var err error
	if out.Ciphertext, err = decodeBase64("ciphertext", m.Ciphertext); err != nil {
		return out, err
	}
	if out.MAC, err = decodeBase64("mac", m.MAC); err != nil {
		return out, err
	}
	out.EphemeralKey, err = parseCurveKey("ephemeral", m.Ephemeral)
	return out, err
}

func pkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pk",
		Short: "Public-key encryption to stored decryption keys",
	}
	cmd.AddCommand(pkGenerateCmd(), pkEncryptCmd(), pkDecryptCmd())
	return cmd
}

func pkGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate <name>",
		Short: "Generate a decryption key and print its public key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			pub, err := appCtx.Pk.Generate(passphrase, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pub)
			return nil
		},
	}
}

func pkEncryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt <public key> [message]",
		Short: "Encrypt a message to a public key",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			recipient, err := parseCurveKey("public key", args[0])
			if err != nil {
				return err
			}
			msg, err := messageArg(cmd, args, 1)
			if err != nil {
				return err
			}
			m, err := appCtx.Pk.Encrypt(recipient, msg)
			if err != nil {
				return err
			}
			return printStructured(cmd, pkMessage{
				Ciphertext: encodeBase64(m.Ciphertext),
				MAC:        encodeBase64(m.MAC),
				Ephemeral:  m.EphemeralKey.String(),
			}, false)
		},
	}
}

func pkDecryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt <name> <message file>",
		Short: "Decrypt a message (YAML or JSON, - for stdin) with a stored key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			b, err := readFile(cmd, args[1])
			if err != nil {
				return err
			}
			var text pkMessage
			if err := yaml.Unmarshal(b, &text); err != nil {
				return fmt.Errorf("parse message: %w", err)
			}
			m, err := text.decode()
			if err != nil {
				return err
			}
			pt, err := appCtx.Pk.Decrypt(passphrase, args[0], m)
			if err != nil {
				return err
			}
			return writePlaintext(cmd, pt)
		},
	}
}
