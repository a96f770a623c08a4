package cmd

import (
	"github.com/keylink-sys/keylink-go/cli"
)

// RootCmd represents the base "keylinkclient" command when called without
// any subcommands (lookup, chain, pointer, ...).
var RootCmd = cli.NewRootCommand("keylinkclient",
	"keylink identity and pointer client",
	`keylinkclient resolves usernames to public-key hashes and key-link
chains, and reads or writes mutable pointers on the node that is
authoritative for their owner.`)

func init() {
	RootCmd.PersistentFlags().StringP("config", "c", "config.toml",
		"Config file for the client (contains the node's addresses and identifier).")
	RootCmd.PersistentFlags().String("via", "",
		"Send resolver queries through the proxy tunnel to this node (base58 identifier).")
}
