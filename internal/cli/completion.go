package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aryankumar/netdiscover/internal/output"
)

// completionShells maps a shell name to its script generator
var completionShells = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash": func(root *cobra.Command, w io.Writer) error {
		return root.GenBashCompletionV2(w, true)
	},
	"zsh": func(root *cobra.Command, w io.Writer) error {
		return root.GenZshCompletion(w)
	},
	"fish": func(root *cobra.Command, w io.Writer) error {
		return root.GenFishCompletion(w, true)
	},
	"powershell": func(root *cobra.Command, w io.Writer) error {
		return root.GenPowerShellCompletionWithDesc(w)
	},
}

func completionShellNames() []string {
	names := make([]string, 0, len(completionShells))
	for name := range completionShells {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// newCompletionCmd creates the completion command
func newCompletionCmd() *cobra.Command {
	shells := completionShellNames()

	return &cobra.Command{
		Use:   fmt.Sprintf("completion [%s]", strings.Join(shells, "|")),
		Short: "Generate shell completion scripts",
		Long: `Print a completion script for netdiscover to stdout.

Completion covers subcommands, flags, and the values of --output, --loglevel
and --log-format. --config completes to JSON files.

Bash:
  $ source <(netdiscover completion bash)

Zsh:
  $ netdiscover completion zsh > "${fpath[1]}/_netdiscover"

Fish:
  $ netdiscover completion fish > ~/.config/fish/completions/netdiscover.fish

PowerShell:
  PS> netdiscover completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             shells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		// Scripts are generated even when --loglevel or --output are invalid
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, ok := completionShells[args[0]]
			if !ok {
				return fmt.Errorf("unsupported shell type %q", args[0])
			}
			return gen(cmd.Root(), cmd.OutOrStdout())
		},
	}
}

// registerFlagCompletions adds value completion for the root command flags
func registerFlagCompletions(cmd *cobra.Command) {
	fixed := func(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp)
	}

	_ = cmd.RegisterFlagCompletionFunc("output",
		fixed(string(output.FormatTable), string(output.FormatJSON), string(output.FormatYAML)))
	_ = cmd.RegisterFlagCompletionFunc("loglevel",
		fixed("debug", "info", "warning", "error", "critical"))
	_ = cmd.RegisterFlagCompletionFunc("log-format", fixed("text", "json"))
	_ = cmd.MarkPersistentFlagFilename("config", "json")
	_ = cmd.MarkFlagFilename("seed")
}
