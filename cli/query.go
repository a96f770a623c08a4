package cli

import (
	"github.com/spf13/cobra"
)

// A queryCommand is a one-shot command that sends requests to a node
// and prints the answer.
type queryCommand struct {
	use     string
	short   string
	args    cobra.PositionalArgs
	runFunc func(cmd *cobra.Command, args []string) error
}

var _ cobraCommand = (*queryCommand)(nil)

// NewQueryCommand constructs a new query command. use follows the cobra
// convention, e.g. "lookup <username>...".
func NewQueryCommand(use, short string, args cobra.PositionalArgs,
	runFunc func(cmd *cobra.Command, args []string) error) *cobra.Command {
	queryCmd := &queryCommand{
		use:     use,
		short:   short,
		args:    args,
		runFunc: runFunc,
	}
	return queryCmd.Build()
}

// Build constructs the cobra.Command according to the
// queryCommand's settings.
func (queryCmd *queryCommand) Build() *cobra.Command {
	cmd := cobra.Command{
		Use:   queryCmd.use,
		Short: queryCmd.short,
		Long: queryCmd.short + `

This will look for a config file named config.toml
in the current directory if not specified differently.
	`,
		Args: queryCmd.args,
		RunE: queryCmd.runFunc,
	}
	return &cmd
}
