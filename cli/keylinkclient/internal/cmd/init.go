package cmd

import (
	"fmt"
	"path"

	"github.com/keylink-sys/keylink-go/application"
	"github.com/keylink-sys/keylink-go/application/client"
	"github.com/keylink-sys/keylink-go/cli"
	"github.com/keylink-sys/keylink-go/protocol"
	"github.com/spf13/cobra"
)

var initCmd = cli.NewInitCommand("keylinkclient", mkConfig)

func init() {
	RootCmd.AddCommand(initCmd)
	initCmd.Flags().StringP("dir", "d", ".",
		"Location of directory for storing generated files")
	initCmd.Flags().String("address", "http://127.0.0.1:8000",
		"Address of the client's own node")
	initCmd.Flags().String("p2p-address", "",
		"Address whose proxy route reaches other nodes (defaults to --address)")
	initCmd.Flags().String("server-id", "", "Base58 identifier of the client's own node")
	initCmd.Flags().String("chain-db", "chains.db",
		"Directory of the chain pinning database, empty to disable pinning")
}

func mkConfig(cmd *cobra.Command, args []string) error {
	dir := cmd.Flag("dir").Value.String()
	file := path.Join(dir, "config.toml")

	id, err := protocol.ParseNodeID(cmd.Flag("server-id").Value.String())
	if err != nil {
		return fmt.Errorf("bad --server-id: %w", err)
	}
	conf := client.NewConfig(file, "toml",
		cmd.Flag("address").Value.String(),
		cmd.Flag("p2p-address").Value.String(),
		id,
		&application.LoggerConfig{Environment: "production"})
	conf.ChainDBPath = cmd.Flag("chain-db").Value.String()

	if err := conf.Save(); err != nil {
		return fmt.Errorf("Couldn't save config: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Wrote", file)
	return nil
}
