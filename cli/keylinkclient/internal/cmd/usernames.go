package cmd

import (
	"fmt"

	"github.com/keylink-sys/keylink-go/application/client"
	"github.com/keylink-sys/keylink-go/application/corenode"
	"github.com/keylink-sys/keylink-go/cli"
	"github.com/spf13/cobra"
)

var usernamesCmd = cli.NewQueryCommand("usernames [prefix]",
	"List the usernames starting with prefix.",
	cobra.MaximumNArgs(1), usernames)

func init() {
	RootCmd.AddCommand(usernamesCmd)
}

func usernames(cmd *cobra.Command, args []string) error {
	prefix := ""
	if len(args) == 1 {
		prefix = args[0]
	}
	return withClient(cmd, func(c *client.Client, addr corenode.Addressing) error {
		names, err := c.Core.GetUsernames(cmd.Context(), addr, prefix)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	})
}
