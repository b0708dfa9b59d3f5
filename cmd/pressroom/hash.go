package main

import (
	"fmt"

	"github.com/dfryer1193/pressroom/auth"
	"github.com/spf13/cobra"
)

var hashSecretCmd = &cobra.Command{
	Use:   "hash-secret <secret>",
	Short: "Print the bcrypt hash to use as ADMIN_SECRET_HASH",
	Args:  cobra.ExactArgs(1),
	// hashing needs no configuration
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashSecret(args[0])
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}
