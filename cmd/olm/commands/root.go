package commands

import (
	"fmt"

	"github.com/decred/slog"
	"github.com/spf13/cobra"

	"olm/internal/app"
)

var (
	home       string
	passphrase string
	debugLevel string
	logFile    string
	kdf        string

	appCtx *app.App
	log    slog.Logger = slog.Disabled
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "olm",
		Short:         "End-to-end encryption sessions from the command line",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(home)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("debuglevel") {
				cfg.DebugLevel = debugLevel
			}
			if flags.Changed("logfile") {
				cfg.LogFile = logFile
			}
			if flags.Changed("kdf") {
				cfg.KDF = kdf
			}

			appCtx, err = app.New(cfg)
			if err != nil {
				return err
			}
			log = appCtx.Logger(app.SubsysCommands)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if appCtx == nil {
				return nil
			}
			return appCtx.Close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&home, "home", "", "state directory (default ~/.olm)")
	pf.StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the stored keys")
	pf.StringVar(&debugLevel, "debuglevel", "", "logging level: trace, debug, info, warn, error or SUBSYS=level,...")
	pf.StringVar(&logFile, "logfile", "", "also write logs to this file, rotated")
	pf.StringVar(&kdf, "kdf", "", "passphrase KDF for newly written files: argon2id or scrypt")

	root.AddCommand(
		initCmd(),
		keysCmd(),
		identityKeyCmd(),
		fingerprintCmd(),
		generateKeysCmd(),
		markPublishedCmd(),
		fallbackKeyCmd(),
		signCmd(),
		verifyCmd(),
		sha256Cmd(),
		outboundCmd(),
		encryptCmd(),
		decryptCmd(),
		sessionIDCmd(),
		groupCmd(),
		pkCmd(),
	)
	return root
}

// requirePassphrase is used by every command that opens the store.
func requirePassphrase() error {
	if passphrase == "" {
		return fmt.Errorf("passphrase required (-p)")
	}
	return nil
}
