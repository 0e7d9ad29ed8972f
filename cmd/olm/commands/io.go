package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"olm/internal/app"
	"olm/internal/domain"
)

// printStructured writes v as YAML or JSON, following the configured output
// format unless forceJSON is set.
func printStructured(cmd *cobra.Command, v any, forceJSON bool) error {
	out := cmd.OutOrStdout()
	if forceJSON || appCtx.Config.Output == app.OutputJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// readFile reads path, or standard input for "-".
func readFile(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	p, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

// messageArg returns args[i], or standard input when it is absent or "-".
func messageArg(cmd *cobra.Command, args []string, i int) ([]byte, error) {
	if len(args) > i && args[i] != "-" {
		return []byte(args[i]), nil
	}
	return io.ReadAll(cmd.InOrStdin())
}

func encodeBase64(b []byte) string { return domain.KeyEncoding.EncodeToString(b) }

func decodeBase64(what, s string) ([]byte, error) {
	b, err := domain.KeyEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, domain.ErrInvalidBase64)
	}
	return b, nil
}

func parseCurveKey(what, s string) (domain.X25519Public, error) {
	var k domain.X25519Public
	if err := k.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return k, fmt.Errorf("%s: %w", what, err)
	}
	return k, nil
}

// formatTagged prefixes a pairwise ciphertext with its 8-byte type tag.
func formatTagged(t domain.MessageType, ct []byte) string {
	return t.Tag() + encodeBase64(ct)
}

// parseTagged splits a tagged pairwise message into its type and ciphertext.
func parseTagged(s string) (domain.MessageType, []byte, error) {
	s = strings.TrimSpace(s)
	for _, t := range []domain.MessageType{domain.MessageTypePreKey, domain.MessageTypeMessage} {
		if body, ok := strings.CutPrefix(s, t.Tag()); ok {
			ct, err := decodeBase64("message", body)
			return t, ct, err
		}
	}
	return 0, nil, fmt.Errorf("message must start with %q or %q",
		domain.MessageTypePreKey.Tag(), domain.MessageTypeMessage.Tag())
}

// writePlaintext writes pt followed by a newline unless it already ends
// with one.
func writePlaintext(cmd *cobra.Command, pt []byte) error {
	out := cmd.OutOrStdout()
	if _, err := out.Write(pt); err != nil {
		return err
	}
	if len(pt) == 0 || pt[len(pt)-1] != '\n' {
		_, err := fmt.Fprintln(out)
		return err
	}
	return nil
}
