package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-hackathon-store/enrollment"
	"github.com/goliatone/go-hackathon-store/lifecycle"
	"github.com/goliatone/go-hackathon-store/model"
	"github.com/goliatone/go-hackathon-store/pkg/di"
)

// PageOutput is the JSON shape of a listed page.
type PageOutput[T any] struct {
	Items []T    `json:"items"`
	Next  string `json:"next,omitempty"`
}

func pageOutput[T any](p lifecycle.Page[T]) PageOutput[T] {
	items := p.Items
	if items == nil {
		items = []T{}
	}
	return PageOutput[T]{Items: items, Next: p.NextToken()}
}

// NewEnrollCommand creates the enroll command.
func NewEnrollCommand(rootOpts *RootOptions) *cobra.Command {
	var extensions []string
	cmd := &cobra.Command{
		Use:   "enroll <hackathon> <user>",
		Short: "Enroll a user to a hackathon",
		Long: `Enroll a user to a hackathon.

The enrollment is approved right away when the hackathon auto approves,
otherwise it waits for approval. Extensions are passed as name=value.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withContainer(cmd, func(c *di.Container, f *OutputFormatter) error {
				exts, err := parseExtensions(extensions)
				if err != nil {
					return err
				}
				h, err := requireHackathon(cmd, c, args[0])
				if err != nil {
					return err
				}
				e, err := c.Enrollments().Create(cmd.Context(), *h, args[1], exts)
				if err != nil {
					return err
				}
				return f.Success(e, func(w io.Writer) {
					fmt.Fprintf(w, "enrolled %s in %s (%s)\n", e.UserID, e.HackathonName, e.Status)
				})
			})
		},
	}
	cmd.Flags().StringArrayVar(&extensions, "ext", nil, "extension as name=value, repeatable")
	return cmd
}

func parseExtensions(raw []string) ([]model.Extension, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]model.Extension, 0, len(raw))
	for _, r := range raw {
		name, value, ok := strings.Cut(r, "=")
		if !ok {
			return nil, goerrors.New(fmt.Sprintf("invalid --ext %q: expected name=value", r), goerrors.CategoryBadInput)
		}
		out = append(out, model.Extension{Name: strings.TrimSpace(name), Value: value})
	}
	return out, nil
}

func requireHackathon(cmd *cobra.Command, c *di.Container, name string) (*model.Hackathon, error) {
	h, err := c.Hackathons().Get(cmd.Context(), name)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, goerrors.New(fmt.Sprintf("hackathon %q not found", name), goerrors.CategoryNotFound)
	}
	return h, nil
}

// NewEnrollmentsCommand creates the enrollments command group.
func NewEnrollmentsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrollments",
		Short: "List and moderate enrollments",
	}
	cmd.AddCommand(newEnrollmentsListCommand(rootOpts))
	cmd.AddCommand(newTransitionCommand(rootOpts, "approve", model.EnrollmentStatusApproved))
	cmd.AddCommand(newTransitionCommand(rootOpts, "reject", model.EnrollmentStatusRejected))
	return cmd
}

func newEnrollmentsListCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		status   string
		token    string
		pageSize int
	)
	cmd := &cobra.Command{
		Use:   "list <hackathon>",
		Short: "List one page of a hackathon's enrollments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withContainer(cmd, func(c *di.Container, f *OutputFormatter) error {
				opts := enrollment.ListOptions{Token: token, PageSize: pageSize}
				if status != "" {
					s, ok := model.ParseEnrollmentStatus(status)
					if !ok {
						return enrollment.ErrInvalidStatus
					}
					opts.Status = &s
				}

				page, err := c.Enrollments().ListPaginated(cmd.Context(), args[0], opts)
				if err != nil {
					return err
				}
				return f.Success(pageOutput(page), func(w io.Writer) {
					for _, e := range page.Items {
						fmt.Fprintf(w, "%s\t%s\t%s\n", e.UserID, e.Status, e.CreatedAt.UTC().Format(time.RFC3339))
					}
					if next := page.NextToken(); next != "" {
						fmt.Fprintf(w, "next: %s\n", next)
					}
				})
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only list this status (pendingApproval|approved|rejected)")
	cmd.Flags().StringVar(&token, "token", "", "continuation token of the previous page")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "page size, default 100")
	return cmd
}

func newTransitionCommand(rootOpts *RootOptions, verb string, status model.EnrollmentStatus) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <hackathon> <user>",
		Short: fmt.Sprintf("Move an enrollment to %s", status),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withContainer(cmd, func(c *di.Container, f *OutputFormatter) error {
				e, err := c.Enrollments().Get(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				if e == nil {
					return goerrors.New(fmt.Sprintf("user %q is not enrolled in %q", args[1], args[0]), goerrors.CategoryNotFound)
				}
				old := e.Status
				if err := c.Enrollments().TransitionStatus(cmd.Context(), args[0], e, status); err != nil {
					return err
				}
				return f.Success(e, func(w io.Writer) {
					fmt.Fprintf(w, "%s: %s -> %s\n", e.UserID, old, e.Status)
				})
			})
		},
	}
}
