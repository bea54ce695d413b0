package cli

import (
	"fmt"
	"io"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-hackathon-store/hackathon"
	"github.com/goliatone/go-hackathon-store/model"
	"github.com/goliatone/go-hackathon-store/pkg/di"
)

// NewHackathonCommand creates the hackathon command group.
func NewHackathonCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hackathon",
		Short: "Create and inspect hackathons",
	}
	cmd.AddCommand(newHackathonCreateCommand(rootOpts))
	cmd.AddCommand(newHackathonGetCommand(rootOpts))
	return cmd
}

type hackathonCreateOptions struct {
	displayName   string
	autoApprove   bool
	maxEnrollment int
	startsAt      string
	endsAt        string
}

func newHackathonCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &hackathonCreateOptions{}
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a hackathon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withContainer(cmd, func(c *di.Container, f *OutputFormatter) error {
				req, err := opts.request(args[0])
				if err != nil {
					return err
				}
				h, err := c.Hackathons().Create(cmd.Context(), req)
				if err != nil {
					return err
				}
				return f.Success(h, func(w io.Writer) {
					fmt.Fprintf(w, "created hackathon %s\n", h.Name)
				})
			})
		},
	}

	cmd.Flags().StringVar(&opts.displayName, "display-name", "", "human readable name")
	cmd.Flags().BoolVar(&opts.autoApprove, "auto-approve", false, "approve enrollments on creation")
	cmd.Flags().IntVar(&opts.maxEnrollment, "max-enrollment", 0, "enrollment cap, 0 for unlimited")
	cmd.Flags().StringVar(&opts.startsAt, "starts", "", "enrollment window start (RFC3339)")
	cmd.Flags().StringVar(&opts.endsAt, "ends", "", "enrollment window end (RFC3339)")
	return cmd
}

func (o *hackathonCreateOptions) request(name string) (hackathon.CreateRequest, error) {
	req := hackathon.CreateRequest{
		Name:          name,
		DisplayName:   o.displayName,
		AutoApprove:   o.autoApprove,
		MaxEnrollment: o.maxEnrollment,
	}
	var err error
	if req.EnrollmentStartedAt, err = parseTime("starts", o.startsAt); err != nil {
		return req, err
	}
	if req.EnrollmentEndedAt, err = parseTime("ends", o.endsAt); err != nil {
		return req, err
	}
	return req, nil
}

func parseTime(flag, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, goerrors.Wrap(err, goerrors.CategoryBadInput, fmt.Sprintf("invalid --%s", flag))
	}
	return t.UTC(), nil
}

func newHackathonGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Show a hackathon and its enrollment counter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withContainer(cmd, func(c *di.Container, f *OutputFormatter) error {
				h, err := c.Hackathons().Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if h == nil {
					return goerrors.New(fmt.Sprintf("hackathon %q not found", args[0]), goerrors.CategoryNotFound)
				}
				return f.Success(h, func(w io.Writer) { printHackathon(w, h) })
			})
		},
	}
}

func printHackathon(w io.Writer, h *model.Hackathon) {
	fmt.Fprintf(w, "name: %s\n", h.Name)
	if h.DisplayName != "" {
		fmt.Fprintf(w, "display_name: %s\n", h.DisplayName)
	}
	fmt.Fprintf(w, "auto_approve: %t\n", h.AutoApprove)
	fmt.Fprintf(w, "enrollment: %d\n", h.Enrollment)
	if h.MaxEnrollment > 0 {
		fmt.Fprintf(w, "max_enrollment: %d\n", h.MaxEnrollment)
	}
	fmt.Fprintf(w, "window: %s .. %s\n", formatBound(h.EnrollmentStartedAt), formatBound(h.EnrollmentEndedAt))
	fmt.Fprintf(w, "created_at: %s\n", h.CreatedAt.UTC().Format(time.RFC3339))
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return "open"
	}
	return t.UTC().Format(time.RFC3339)
}
