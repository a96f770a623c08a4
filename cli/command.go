// Package cli provides the building blocks of the keylink command-line
// executables: the root command, the init command, the version command
// and one-shot query commands.
package cli

import (
	"github.com/spf13/cobra"
)

// cobraCommand is used to implement any type of cobra command
// for any of the keylink command-line tools.
type cobraCommand interface {
	Build() *cobra.Command
}
