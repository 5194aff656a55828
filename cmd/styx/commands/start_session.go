package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// startSessionCmd performs the X3DH handshake against a peer's prekey
// bundle and persists a new session for future messaging.
func startSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start-session <peer>",
		Short: "Establish a secure session with a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if err := requireRelay(); err != nil {
				return err
			}
			peer := args[0]

			sess, err := wire.Sessions.Initiate(cmd.Context(), passphrase, peer)
			if err != nil {
				return fmt.Errorf("starting session with %q: %w", peer, err)
			}
			fmt.Printf("Session created with %s (signed prekey %s)\n", peer, sess.SPKID)
			return nil
		},
	}
}
