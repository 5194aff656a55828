package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"styx/internal/app"
)

var (
	home       string
	passphrase string
	relayURL   string
	username   string
	verbose    bool

	wire *app.Wire
)

// Execute runs the styx CLI.
func Execute() error {
	root := &cobra.Command{
		Use:   "styx",
		Short: "Forward-secret messaging over memo transports",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.WarnLevel)
			}

			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".styx")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			wire = app.NewWire(app.Config{Home: home, RelayURL: relayURL})
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.styx)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase to protect keys")
	root.PersistentFlags().StringVar(&relayURL, "relay", "", "relay base URL (e.g. http://127.0.0.1:8080)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		initCmd(),
		fingerprintCmd(),
		registerCmd(),
		startSessionCmd(),
		sendCmd(),
		recvCmd(),
	)
	return root.Execute()
}

func requirePassphrase() error {
	if passphrase == "" {
		return fmt.Errorf("passphrase required (-p)")
	}
	return nil
}

func requireRelay() error {
	if wire.Relay == nil {
		return fmt.Errorf("no relay configured. use --relay")
	}
	return nil
}
