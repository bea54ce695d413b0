package cli

import (
	"fmt"
	"io"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-hackathon-store/lifecycle"
	"github.com/goliatone/go-hackathon-store/model"
	"github.com/goliatone/go-hackathon-store/pkg/di"
	"github.com/goliatone/go-hackathon-store/work"
)

// NewWorksCommand creates the works command group.
func NewWorksCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "works",
		Short: "Submit and list team works",
	}
	cmd.AddCommand(newWorksCreateCommand(rootOpts))
	cmd.AddCommand(newWorksListCommand(rootOpts))
	return cmd
}

func newWorksCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var req work.CreateRequest
	var workType string
	cmd := &cobra.Command{
		Use:   "create <team>",
		Short: "Submit a team work",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withContainer(cmd, func(c *di.Container, f *OutputFormatter) error {
				req.TeamID = args[0]
				if workType != "" {
					t, ok := model.ParseWorkType(workType)
					if !ok {
						return goerrors.New(fmt.Sprintf("invalid --type %q", workType), goerrors.CategoryBadInput)
					}
					req.Type = &t
				}
				w, err := c.Works().Create(cmd.Context(), req)
				if err != nil {
					return err
				}
				return f.Success(w, func(out io.Writer) {
					fmt.Fprintf(out, "created work %s for team %s\n", w.ID, w.TeamID)
				})
			})
		},
	}
	cmd.Flags().StringVar(&req.HackathonName, "hackathon", "", "hackathon the work is submitted to")
	cmd.Flags().StringVar(&req.Title, "title", "", "work title")
	cmd.Flags().StringVar(&req.Description, "description", "", "work description")
	cmd.Flags().StringVar(&req.URL, "url", "", "link to the work")
	cmd.Flags().StringVar(&workType, "type", "", "website|image|video|word|powerpoint")
	return cmd
}

func newWorksListCommand(rootOpts *RootOptions) *cobra.Command {
	var opts lifecycle.ListOptions
	cmd := &cobra.Command{
		Use:   "list <team>",
		Short: "List a team's works, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withContainer(cmd, func(c *di.Container, f *OutputFormatter) error {
				page, err := c.Works().ListPaginated(cmd.Context(), args[0], opts)
				if err != nil {
					return err
				}
				return f.Success(pageOutput(page), func(w io.Writer) {
					for _, item := range page.Items {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", item.Title, item.Type, item.HackathonName, item.CreatedAt.UTC().Format(time.RFC3339))
					}
					if next := page.NextToken(); next != "" {
						fmt.Fprintf(w, "next: %s\n", next)
					}
				})
			})
		},
	}
	cmd.Flags().StringVar(&opts.Token, "token", "", "continuation token of the previous page")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 0, "page size, default 100")
	return cmd
}
