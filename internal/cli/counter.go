package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-hackathon-store/pkg/di"
)

// NewCounterCommand creates the counter command group.
func NewCounterCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "counter",
		Short: "Maintain hackathon enrollment counters",
	}
	cmd.AddCommand(newCounterSweepCommand(rootOpts))
	return cmd
}

func newCounterSweepCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep <hackathon>...",
		Short: "Recount approved enrollments and repair drifted counters",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withContainer(cmd, func(c *di.Container, f *OutputFormatter) error {
				f.VerboseLog("sweeping %d hackathon(s)", len(args))
				results, err := c.Sweeper().SweepAll(cmd.Context(), args)
				if err != nil {
					return err
				}
				return f.Success(results, func(w io.Writer) {
					for _, r := range results {
						if r.Changed() {
							fmt.Fprintf(w, "%s: %d -> %d (repaired)\n", r.Hackathon, r.Before, r.After)
						} else {
							fmt.Fprintf(w, "%s: %d (ok)\n", r.Hackathon, r.After)
						}
					}
				})
			})
		},
	}
}
