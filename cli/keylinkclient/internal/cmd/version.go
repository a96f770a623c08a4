package cmd

import (
	"github.com/keylink-sys/keylink-go/cli"
)

var versionCmd = cli.NewVersionCommand("keylinkclient")

func init() {
	RootCmd.AddCommand(versionCmd)
}
