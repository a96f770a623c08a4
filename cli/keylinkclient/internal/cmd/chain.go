package cmd

import (
	"fmt"
	"strings"

	"github.com/keylink-sys/keylink-go/application/client"
	"github.com/keylink-sys/keylink-go/application/corenode"
	"github.com/keylink-sys/keylink-go/cli"
	"github.com/spf13/cobra"
)

var chainCmd = cli.NewQueryCommand("chain <username>",
	"Print the key-link chain of a username, oldest link first.",
	cobra.ExactArgs(1), printChain)

func init() {
	RootCmd.AddCommand(chainCmd)
}

func printChain(cmd *cobra.Command, args []string) error {
	return withClient(cmd, func(c *client.Client, addr corenode.Addressing) error {
		chain, err := c.Core.GetChain(cmd.Context(), addr, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if chain.IsEmpty() {
			fmt.Fprintf(out, "%s: no chain\n", args[0])
			return nil
		}
		for i, link := range chain {
			providers := make([]string, len(link.Claim.StorageProviders))
			for j, p := range link.Claim.StorageProviders {
				providers[j] = p.String()
			}
			fmt.Fprintf(out, "%d owner=%s expiry=%s providers=[%s]\n",
				i, link.Owner, link.Claim.Expiry, strings.Join(providers, ","))
		}
		return nil
	})
}
