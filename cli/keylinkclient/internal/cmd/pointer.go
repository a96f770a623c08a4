package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/keylink-sys/keylink-go/application/client"
	"github.com/keylink-sys/keylink-go/application/corenode"
	"github.com/keylink-sys/keylink-go/cli"
	"github.com/keylink-sys/keylink-go/protocol"
	"github.com/spf13/cobra"
)

var pointerCmd = &cobra.Command{
	Use:   "pointer",
	Short: "Read or write mutable pointers on the node authoritative for their owner.",
}

var pointerGetCmd = cli.NewQueryCommand("get <owner> <writer>",
	"Print the signed root hash stored for (owner, writer) as hex.",
	cobra.ExactArgs(2), getPointer)

var pointerSetCmd = cli.NewQueryCommand("set <owner> <writer> <signed root hex>",
	"Publish a signed root hash for (owner, writer).",
	cobra.ExactArgs(3), setPointer)

func init() {
	pointerCmd.AddCommand(pointerGetCmd, pointerSetCmd)
	RootCmd.AddCommand(pointerCmd)
}

func parseOwnerWriter(args []string) (owner, writer protocol.PublicKeyHash, err error) {
	if owner, err = protocol.ParsePublicKeyHash(args[0]); err != nil {
		return owner, writer, fmt.Errorf("bad owner: %w", err)
	}
	if writer, err = protocol.ParsePublicKeyHash(args[1]); err != nil {
		return owner, writer, fmt.Errorf("bad writer: %w", err)
	}
	return owner, writer, nil
}

func getPointer(cmd *cobra.Command, args []string) error {
	owner, writer, err := parseOwnerWriter(args)
	if err != nil {
		return err
	}
	return withClient(cmd, func(c *client.Client, _ corenode.Addressing) error {
		signed, ok, err := c.Pointers.GetPointer(cmd.Context(), owner, writer)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "no pointer")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(signed))
		return nil
	})
}

func setPointer(cmd *cobra.Command, args []string) error {
	owner, writer, err := parseOwnerWriter(args)
	if err != nil {
		return err
	}
	signed, err := hex.DecodeString(args[2])
	if err != nil {
		return fmt.Errorf("bad signed root: %w", err)
	}
	return withClient(cmd, func(c *client.Client, _ corenode.Addressing) error {
		ok, err := c.Pointers.SetPointer(cmd.Context(), owner, writer, signed)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("node rejected the pointer update")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	})
}
