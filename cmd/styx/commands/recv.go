package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// recv: fetch queued messages from the relay and decrypt them.
func recvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recv",
		Short: "Fetch and decrypt queued messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if err := requireRelay(); err != nil {
				return err
			}

			msgs, err := wire.Messages.Receive(cmd.Context(), passphrase, username, 0)
			if err != nil {
				return err
			}
			if len(msgs) == 0 {
				fmt.Println("no new messages")
				return nil
			}
			for _, m := range msgs {
				fmt.Printf("[%s] %s\n", m.From, m.Plaintext)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "your username (same as you registered with)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}
