package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register <username>",
		Short: "Publish your prekey bundle to the relay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if err := requireRelay(); err != nil {
				return err
			}
			username = args[0]

			// Generate a signed prekey and a small batch of one-time prekeys.
			if _, _, err := wire.Prekeys.GenerateAndStore(passphrase, 10); err != nil {
				return err
			}

			bundle, err := wire.Prekeys.LoadBundle(passphrase, username)
			if err != nil {
				return err
			}
			if err := wire.Relay.Register(cmd.Context(), bundle); err != nil {
				return err
			}
			fmt.Println("Registered prekeys with relay")
			return nil
		},
	}
}
