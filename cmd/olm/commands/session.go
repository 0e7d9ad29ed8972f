package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"olm/internal/domain"
)

func outboundCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "outbound <peer> <identity key> <one-time key>",
		Short: "Open a session to a peer with one of their one-time keys",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			peer := domain.PeerName(args[0])
			identityKey, err := parseCurveKey("identity key", args[1])
			if err != nil {
				return err
			}
			oneTimeKey, err := parseCurveKey("one-time key", args[2])
			if err != nil {
				return err
			}
			id, err := appCtx.Sessions.CreateOutbound(passphrase, peer, identityKey, oneTimeKey)
			if err != nil {
				return fmt.Errorf("creating session with %q: %w", peer, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session %s created with %s.\n", id, peer)
			return nil
		},
	}
}

func encryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt <peer> [message]",
		Short: "Encrypt a message to a peer (reads stdin without a message)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			msg, err := messageArg(cmd, args, 1)
			if err != nil {
				return err
			}
			t, ct, err := appCtx.Sessions.Encrypt(passphrase, domain.PeerName(args[0]), msg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatTagged(t, ct))
			return nil
		},
	}
}

func decryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt <peer> [tagged message]",
		Short: "Decrypt a PRE_KEY or MESSAGE from a peer (reads stdin without a message)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			in, err := messageArg(cmd, args, 1)
			if err != nil {
				return err
			}
			t, ct, err := parseTagged(string(in))
			if err != nil {
				return err
			}
			peer := domain.PeerName(args[0])
			pt, err := appCtx.Sessions.Decrypt(passphrase, peer, t, ct)
			if err != nil {
				return fmt.Errorf("decrypting %s from %q: %w", t, peer, err)
			}
			log.Debugf("Decrypted %d bytes from %s", len(pt), peer)
			return writePlaintext(cmd, pt)
		},
	}
}

func sessionIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session-id <peer>",
		Short: "Print the ID of the current session with a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			id, err := appCtx.Sessions.SessionID(passphrase, domain.PeerName(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}
