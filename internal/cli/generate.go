package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/layoutgen/pkg/design"
	"github.com/matzehuels/layoutgen/pkg/errors"
	"github.com/matzehuels/layoutgen/pkg/status"
	"github.com/matzehuels/layoutgen/pkg/tree"
)

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	outputOpts
	promptFile  string   // read the prompt from this file ("-" for stdin)
	images      []string // reference image URLs, in order
	tui         bool     // show the live event view
	concurrency int      // element concurrency override (0 keeps the config value)
}

// generateCommand creates the generate command for designing a single page.
func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Design a page from a description and reference images",
		Long: `Generate asks the model to plan a page for the given description, builds every
layout and element it plans and writes the assembled craft.js definition.

Every --image URL is shown to the model and must appear in the result.`,
		Example: `  layoutgen generate "Landing page for a coffee roastery" -o page.json
  layoutgen generate --prompt-file brief.md --image https://example.com/hero.jpg --tui -o page.json
  layoutgen generate "Pricing page" -f svg -o pricing.svg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := readPrompt(args, opts.promptFile, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if opts.format == "" {
				opts.format = formatFor(opts.output, formatJSON)
			}
			if err := checkFormat(opts.format); err != nil {
				return err
			}
			return c.runGenerate(cmd.Context(), design.PageContent{Prompt: prompt, Images: opts.images}, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.promptFile, "prompt-file", "", "read the prompt from a file (- for stdin)")
	cmd.Flags().StringArrayVar(&opts.images, "image", nil, "reference image URL (repeatable)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: json, yaml, dot, svg (default from --output, else json)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show node props in dot/svg labels")
	cmd.Flags().BoolVar(&opts.tui, "tui", false, "show live progress in a terminal UI")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "elements generated in parallel per layout (default from config)")

	return cmd
}

func (c *CLI) runGenerate(ctx context.Context, content design.PageContent, opts generateOpts, stdout io.Writer) error {
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.concurrency > 0 {
		cfg.Generation.ElementConcurrency = opts.concurrency
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if err := content.Validate(); err != nil {
		return err
	}

	sess, err := c.newSession(cfg)
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	var def tree.Definition
	switch {
	case opts.tui:
		def, err = runTUI(ctx, sess, content)
	case logger.GetLevel() <= log.DebugLevel:
		def, err = sess.Generate(ctx, status.NewLogSink(logger), content)
	default:
		def, err = runWithSpinner(ctx, sess, content)
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Generated %d nodes", len(def)))

	if err := writeOutput(ctx, def, opts.outputOpts, stdout); err != nil {
		return err
	}
	if opts.output == "" {
		return nil
	}

	printNewline()
	printSummary(def)
	printStats(def)
	printFile(opts.output)
	if opts.format == formatJSON || opts.format == formatYAML {
		printNewline()
		printNextStep("Draw the tree", fmt.Sprintf("%s render %s -o %s", appName, opts.output, swapExt(opts.output, formatSVG)))
	}
	return nil
}

func runWithSpinner(ctx context.Context, sess *design.Session, content design.PageContent) (tree.Definition, error) {
	spinner := newSpinnerWithContext(ctx, "Designing layout...")
	spinner.Start()

	def, err := sess.Generate(ctx, spinner, content)
	if err != nil {
		spinner.StopWithError(errors.UserMessage(err))
		return nil, err
	}
	spinner.StopWithSuccess("Layout designed")
	return def, nil
}

func runTUI(ctx context.Context, sess *design.Session, content design.PageContent) (tree.Definition, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewProgressModel(12), tea.WithContext(ctx), tea.WithOutput(os.Stderr))
	go func() {
		def, err := sess.Generate(ctx, programSink{p}, content)
		p.Send(doneMsg{def: def, err: err})
	}()

	final, err := p.Run()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("terminal ui: %w", err)
	}
	m := final.(ProgressModel)
	if m.Quit {
		return nil, context.Canceled
	}
	return m.Result, m.Err
}

func checkFormat(format string) error {
	switch format {
	case formatJSON, formatYAML, formatDOT, formatSVG:
		return nil
	}
	return errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q (use json, yaml, dot or svg)", format)
}

// readPrompt joins positional args, or reads path when set.
func readPrompt(args []string, path string, stdin io.Reader) (string, error) {
	if path != "" && len(args) > 0 {
		return "", errors.New(errors.ErrCodeInvalidInput, "pass the prompt as an argument or with --prompt-file, not both")
	}
	if path == "" {
		prompt := strings.TrimSpace(strings.Join(args, " "))
		if prompt == "" {
			return "", errors.New(errors.ErrCodeInvalidInput, "a prompt is required")
		}
		return prompt, nil
	}

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read prompt: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func swapExt(path, ext string) string {
	if i := strings.LastIndex(path, "."); i > strings.LastIndex(path, "/") {
		path = path[:i]
	}
	return path + "." + ext
}
