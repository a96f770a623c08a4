package cmd

import (
	"fmt"

	"github.com/keylink-sys/keylink-go/application/client"
	"github.com/keylink-sys/keylink-go/application/corenode"
	"github.com/keylink-sys/keylink-go/protocol"
	"github.com/spf13/cobra"
)

const configMissingUsage = `
Couldn't load client's config-file.

To create a valid config, run
  keylinkclient init --address <node url> --server-id <node id>

The client looks for a file called 'config.toml' in its current working directory.
If you prefer the config-file to be named or stored somewhere different you can
specify where to look for the config with the --config flag. For example:
  keylinkclient --config /etc/keylink/config.toml lookup alice
`

func loadClient(cmd *cobra.Command) (*client.Client, error) {
	file := cmd.Flag("config").Value.String()
	conf := &client.Config{}
	if err := conf.Load(file, "toml"); err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), configMissingUsage)
		return nil, err
	}
	return client.New(conf)
}

// addressing returns the resolver addressing selected by --via.
func addressing(cmd *cobra.Command) (corenode.Addressing, error) {
	via := cmd.Flag("via").Value.String()
	if via == "" {
		return corenode.Direct(), nil
	}
	id, err := protocol.ParseNodeID(via)
	if err != nil {
		return corenode.Addressing{}, fmt.Errorf("bad --via node: %w", err)
	}
	return corenode.Proxy(id), nil
}

// withClient loads the client, runs f and closes the client.
func withClient(cmd *cobra.Command, f func(c *client.Client, addr corenode.Addressing) error) error {
	addr, err := addressing(cmd)
	if err != nil {
		return err
	}
	c, err := loadClient(cmd)
	if err != nil {
		return err
	}
	defer c.Close()
	return f(c, addr)
}
