package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"
)

// Execute runs the layoutgen CLI with args and returns the first command
// error. Logs go to stderr; --verbose (-v) switches them to debug level.
//
// The logger is attached to the command context and reachable from every
// command through loggerFromContext.
//
//	func main() {
//	    ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	    defer cancel()
//	    if err := cli.Execute(ctx, os.Args[1:], os.Stderr); err != nil {
//	        os.Exit(1)
//	    }
//	}
func Execute(ctx context.Context, args []string, stderr io.Writer) error {
	c := New(stderr, LogInfo)
	root := c.newRoot()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// newRoot builds the root command with the --verbose flag wired to the
// CLI's logger.
func (c *CLI) newRoot() *cobra.Command {
	var verbose bool

	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := LogInfo
		if verbose {
			level = LogDebug
		}
		c.SetLogLevel(level)
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		return nil
	}
	return root
}
