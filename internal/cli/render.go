package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/layoutgen/pkg/errors"
	lgio "github.com/matzehuels/layoutgen/pkg/io"
	"github.com/matzehuels/layoutgen/pkg/render/nodelink"
	"github.com/matzehuels/layoutgen/pkg/tree"
)

// Output formats.
const (
	formatJSON = lgio.FormatJSON
	formatYAML = lgio.FormatYAML
	formatDOT  = "dot"
	formatSVG  = "svg"
)

// outputOpts selects how a definition is written.
type outputOpts struct {
	output   string // output file path; empty writes to stdout
	format   string // json, yaml, dot or svg; empty infers from output
	detailed bool   // include props in dot/svg labels
}

// renderCommand creates the render command for drawing saved definitions.
func (c *CLI) renderCommand() *cobra.Command {
	var opts outputOpts

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a saved definition as a DOT or SVG tree",
		Long: `Render validates a craft.js definition written by "generate" (JSON or YAML)
and draws its node tree. Children appear in page order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format == "" {
				opts.format = formatFor(opts.output, formatSVG)
			}
			if opts.format != formatDOT && opts.format != formatSVG {
				return errors.New(errors.ErrCodeInvalidFormat, "render supports dot and svg, got %q", opts.format)
			}
			return c.runRender(cmd.Context(), args[0], opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: dot, svg (default from --output, else svg)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show node props in labels")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts outputOpts, stdout io.Writer) error {
	logger := loggerFromContext(ctx)

	def, err := lgio.Import(input)
	if err != nil {
		return err
	}
	logger.Debug("definition loaded", "file", input, "nodes", len(def))

	if err := writeOutput(ctx, def, opts, stdout); err != nil {
		return err
	}
	if opts.output != "" {
		printSuccess("Rendered %d nodes", len(def))
		printFile(opts.output)
	}
	return nil
}

// writeOutput encodes def in opts.format and writes it to opts.output or
// stdout.
func writeOutput(ctx context.Context, def tree.Definition, opts outputOpts, stdout io.Writer) error {
	data, err := encode(ctx, def, opts)
	if err != nil {
		return err
	}
	if opts.output == "" {
		_, err := stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(opts.output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	return nil
}

func encode(ctx context.Context, def tree.Definition, opts outputOpts) ([]byte, error) {
	switch opts.format {
	case formatJSON, formatYAML:
		var buf bytes.Buffer
		if err := lgio.Write(def, opts.format, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case formatDOT:
		return []byte(nodelink.ToDOT(def, nodelink.Options{Detailed: opts.detailed})), nil
	case formatSVG:
		return nodelink.RenderSVG(ctx, nodelink.ToDOT(def, nodelink.Options{Detailed: opts.detailed}))
	}
	return nil, checkFormat(opts.format)
}

// formatFor returns the format implied by path's extension, or fallback.
func formatFor(path, fallback string) string {
	switch ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."); ext {
	case formatJSON, formatDOT, formatSVG:
		return ext
	case formatYAML, "yml":
		return formatYAML
	}
	return fallback
}
