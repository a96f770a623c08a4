package cmd

import (
	"fmt"

	"github.com/keylink-sys/keylink-go/application/client"
	"github.com/keylink-sys/keylink-go/application/corenode"
	"github.com/keylink-sys/keylink-go/cli"
	"github.com/keylink-sys/keylink-go/protocol"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentLookups bounds the requests a lookup keeps in flight.
const maxConcurrentLookups = 8

var lookupCmd = cli.NewQueryCommand("lookup <username>...",
	"Look up the public-key hash registered for each username.",
	cobra.MinimumNArgs(1), lookup)

func init() {
	RootCmd.AddCommand(lookupCmd)
}

func lookup(cmd *cobra.Command, args []string) error {
	return withClient(cmd, func(c *client.Client, addr corenode.Addressing) error {
		type result struct {
			owner protocol.PublicKeyHash
			found bool
		}
		results := make([]result, len(args))

		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(maxConcurrentLookups)
		for i, username := range args {
			i, username := i, username
			g.Go(func() error {
				owner, ok, err := c.Core.GetPublicKeyHash(ctx, addr, username)
				if err != nil {
					return fmt.Errorf("lookup %s: %w", username, err)
				}
				results[i] = result{owner, ok}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for i, username := range args {
			if !results[i].found {
				fmt.Fprintf(out, "%s: not registered\n", username)
				continue
			}
			fmt.Fprintf(out, "%s: %s\n", username, results[i].owner)
		}
		return nil
	})
}
