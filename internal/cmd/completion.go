package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script.

The updater ships next to each app as <app>-update rather than on PATH
under its own name, so generate and install the script per app:

Bash:
  $ source <(myapp-update completion bash)

  # To load completions for each session, execute once:
  $ myapp-update completion bash > /etc/bash_completion.d/myapp-update

Zsh:
  $ myapp-update completion zsh > "${fpath[1]}/_myapp-update"

Fish:
  $ myapp-update completion fish > ~/.config/fish/completions/myapp-update.fish
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			}
			return nil
		},
	}
}
