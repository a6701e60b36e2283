package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aryankumar/netdiscover/internal/output"
	"github.com/aryankumar/netdiscover/pkg/version"
)

// newVersionCmd creates the version command
func newVersionCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Display detailed version information for netdiscover",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd, opts)
		},
	}

	return cmd
}

func runVersion(cmd *cobra.Command, opts *rootOptions) error {
	info := version.Get()
	w := cmd.OutOrStdout()

	// Human-readable unless a format was asked for
	if !cmd.Flags().Changed("output") {
		fmt.Fprintln(w, info.String())
		return nil
	}

	formatter := output.NewFormatter(opts.format, output.WithNoColor(opts.noColor))
	if opts.format == output.FormatTable {
		return formatter.Format(w, info.Map())
	}
	return formatter.Format(w, info)
}
