package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-hackathon-store/pagination"
)

// TokenOutput is the decoded form of a continuation token.
type TokenOutput struct {
	Token           string `json:"token"`
	PartitionMarker string `json:"partitionMarker"`
	RowMarker       string `json:"rowMarker"`
	PageSize        int    `json:"pageSize"`
	Offset          int    `json:"offset"`
}

func tokenOutput(token string, c pagination.Cursor) TokenOutput {
	return TokenOutput{
		Token:           token,
		PartitionMarker: c.PartitionMarker,
		RowMarker:       c.RowMarker,
		PageSize:        c.PageSize,
		Offset:          c.Offset(),
	}
}

// NewTokenCommand creates the token command group. It works offline and
// never opens the backend.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Encode and decode continuation tokens",
	}
	cmd.AddCommand(newTokenEncodeCommand(rootOpts))
	cmd.AddCommand(newTokenDecodeCommand(rootOpts))
	return cmd
}

func newTokenEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		partition string
		row       string
		offset    int
		pageSize  int
	)
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode a cursor into a continuation token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := pagination.Cursor{PartitionMarker: partition, RowMarker: row, PageSize: pageSize}.Normalize()
			if cmd.Flags().Changed("offset") {
				c = pagination.OffsetCursor(offset, pageSize)
			}
			token := pagination.Encode(c)
			return rootOpts.formatter(cmd).Success(tokenOutput(token, c), func(w io.Writer) {
				fmt.Fprintln(w, token)
			})
		},
	}
	cmd.Flags().StringVar(&partition, "partition", "", "next partition marker")
	cmd.Flags().StringVar(&row, "row", "", "next row marker")
	cmd.Flags().IntVar(&offset, "offset", 0, "build an offset cursor instead of markers")
	cmd.Flags().IntVar(&pageSize, "page-size", pagination.DefaultPageSize, "page size")
	cmd.MarkFlagsMutuallyExclusive("offset", "partition")
	cmd.MarkFlagsMutuallyExclusive("offset", "row")
	return cmd
}

func newTokenDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <token>",
		Short: "Decode a continuation token. Malformed tokens decode to the first page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := pagination.Decode(args[0])
			return rootOpts.formatter(cmd).Success(tokenOutput(args[0], c), func(w io.Writer) {
				fmt.Fprintf(w, "partition_marker: %s\n", c.PartitionMarker)
				fmt.Fprintf(w, "row_marker: %s\n", c.RowMarker)
				fmt.Fprintf(w, "page_size: %d\n", c.PageSize)
				fmt.Fprintf(w, "offset: %d\n", c.Offset())
				fmt.Fprintf(w, "first_page: %t\n", c.IsFirst())
			})
		},
	}
}
