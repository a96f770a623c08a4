package cmd

import (
	"fmt"

	"github.com/keylink-sys/keylink-go/application/client"
	"github.com/keylink-sys/keylink-go/application/corenode"
	"github.com/keylink-sys/keylink-go/cli"
	"github.com/keylink-sys/keylink-go/protocol"
	"github.com/spf13/cobra"
)

var whoisCmd = cli.NewQueryCommand("whois <key hash>",
	"Find the username owning a public-key hash.",
	cobra.ExactArgs(1), whois)

func init() {
	RootCmd.AddCommand(whoisCmd)
}

func whois(cmd *cobra.Command, args []string) error {
	owner, err := protocol.ParsePublicKeyHash(args[0])
	if err != nil {
		return err
	}
	return withClient(cmd, func(c *client.Client, addr corenode.Addressing) error {
		username, ok, err := c.Core.GetUsername(cmd.Context(), addr, owner)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: not registered\n", owner)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", owner, username)
		return nil
	})
}
