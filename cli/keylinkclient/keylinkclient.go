// Executable keylink client: resolves identities and reads or writes
// mutable pointers through the node named in its config file.
package main

import (
	"github.com/keylink-sys/keylink-go/cli"
	"github.com/keylink-sys/keylink-go/cli/keylinkclient/internal/cmd"
)

func main() {
	cli.ExecuteRoot(cmd.RootCmd)
}
