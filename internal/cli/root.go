// Package cli implements the hackathonctl commands.
package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-hackathon-store/config"
	"github.com/goliatone/go-hackathon-store/pkg/di"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // "json" | "text"
	Verbose    bool

	// Open builds the container used by a command. Nil loads the
	// configuration from ConfigPath and the environment.
	Open func(ctx context.Context, opts *RootOptions) (*di.Container, error)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of hackathonctl.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hackathonctl",
		Short: "Manage hackathons, enrollments and team works",
		Long: `hackathonctl manages hackathons and their enrollments on the configured
backend (memory, sqlite, postgres or dynamodb).

Configuration is read from the --config YAML file and HACKATHON_* environment
variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewHackathonCommand(opts))
	cmd.AddCommand(NewEnrollCommand(opts))
	cmd.AddCommand(NewEnrollmentsCommand(opts))
	cmd.AddCommand(NewWorksCommand(opts))
	cmd.AddCommand(NewCounterCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

// openContainer builds the container for one command run. Callers close it.
func (o *RootOptions) openContainer(cmd *cobra.Command) (*di.Container, error) {
	if o.Open != nil {
		return o.Open(cmd.Context(), o)
	}
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load configuration", err)
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}
	logger := cfg.NewLogger(cmd.ErrOrStderr())
	container, err := di.NewContainer(cmd.Context(), cfg, di.WithLogger(logger))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open backend", err)
	}
	return container, nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// withContainer opens the container, runs fn and reports its error through
// the formatter.
func (o *RootOptions) withContainer(cmd *cobra.Command, fn func(c *di.Container, f *OutputFormatter) error) error {
	f := o.formatter(cmd)
	c, err := o.openContainer(cmd)
	if err != nil {
		return f.Fail(err)
	}
	defer c.Close()

	if err := fn(c, f); err != nil {
		return f.Fail(err)
	}
	return nil
}
