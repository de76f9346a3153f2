package cli

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/layoutgen/pkg/design"
)

// schemaCommand prints the layout_designer tool definition.
func (c *CLI) schemaCommand() *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the layout_designer tool schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			if full {
				out, err := json.Marshal(design.Tool())
				if err != nil {
					return err
				}
				data = out
			} else {
				data = design.Schema()
			}

			var buf bytes.Buffer
			if err := json.Indent(&buf, data, "", "  "); err != nil {
				return fmt.Errorf("format schema: %w", err)
			}
			buf.WriteByte('\n')
			_, err := cmd.OutOrStdout().Write(buf.Bytes())
			return err
		},
	}

	cmd.Flags().BoolVar(&full, "tool", false, "print the whole tool definition, not just its input schema")

	return cmd
}
