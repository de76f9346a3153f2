package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/layoutgen/pkg/buildinfo"
	"github.com/matzehuels/layoutgen/pkg/config"
	"github.com/matzehuels/layoutgen/pkg/design"
	"github.com/matzehuels/layoutgen/pkg/integrations/anthropic"
	"github.com/matzehuels/layoutgen/pkg/layout"
	"github.com/matzehuels/layoutgen/pkg/llm"
)

// =============================================================================
// Constants
// =============================================================================

const appName = "layoutgen"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string

	// newModel builds the model client. Tests replace it with a fake.
	newModel func(cfg *config.Config) (llm.Model, error)
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:   newLogger(w, level),
		newModel: anthropicModel,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "layoutgen designs craft.js page layouts with a language model",
		Long:         `layoutgen turns a page description and optional reference images into a craft.js definition: the model plans the layouts, then every layout and element is generated and assembled under a single root container.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/layoutgen/config.toml)")

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.schemaCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Session Factory
// =============================================================================

// loadConfig reads the config file selected by --config.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("config loaded", "model", cfg.Model.Name, "concurrency", cfg.Generation.ElementConcurrency)
	return cfg, nil
}

// newSession wires a design session from cfg.
func (c *CLI) newSession(cfg *config.Config) (*design.Session, error) {
	model, err := c.newModel(cfg)
	if err != nil {
		return nil, err
	}

	adapter := llm.NewAdapter(model,
		llm.WithMaxTokens(cfg.Model.MaxTokens),
		llm.WithRequestsPerMinute(cfg.Model.RequestsPerMinute),
	)
	sess, err := design.New(adapter, layout.ElementConcurrency(cfg.Generation.ElementConcurrency))
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

func anthropicModel(cfg *config.Config) (llm.Model, error) {
	key, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}
	return anthropic.NewClient(key, anthropic.Options{
		BaseURL: cfg.Model.BaseURL,
		Model:   cfg.Model.Name,
		Timeout: cfg.Model.Timeout,
	}), nil
}
