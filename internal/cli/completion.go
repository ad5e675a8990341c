package cli

import (
	"context"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/reportengine/internal/config"
	"github.com/hupe1980/reportengine/internal/logging"
)

func newCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion <shell>",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for reportengine.

To load completions:

Bash:
  $ source <(reportengine completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ reportengine completion bash > /etc/bash_completion.d/reportengine

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ reportengine completion zsh > "${fpath[1]}/_reportengine"

Fish:
  $ reportengine completion fish > ~/.config/fish/completions/reportengine.fish

PowerShell:
  PS> reportengine completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> reportengine completion powershell > reportengine.ps1
  # and source this file from your PowerShell profile.
`,
		// Override parent PersistentPreRunE: completion needs no config.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Args:              cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs:         []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}

			return nil
		},
	}

	return cmd
}

// completeReportRefs completes namespace/slug arguments from the loaded
// definitions. max caps the number of refs a command accepts; zero means
// no limit. Refs already on the command line are not offered again.
func completeReportRefs(maxArgs int) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
		if maxArgs > 0 && len(args) >= maxArgs {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		cfgFile, _ := cmd.Flags().GetString("config")

		cfg, err := config.Load(cmd, cfgFile)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		// Completion only needs the definitions.
		cfg.Database = config.DatabaseConfig{}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		ctx = config.NewContext(ctx, cfg)
		ctx = config.NewContextWithConfigFile(ctx, cfg.ConfigFile)
		ctx = logging.NewContext(ctx, logging.Discard())

		s, err := openSession(ctx)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		defer func() { _ = s.Close() }()

		var refs []cobra.Completion

		for _, r := range s.catalog.List() {
			ref := r.Ref()
			if !strings.HasPrefix(ref, toComplete) || slices.Contains(args, ref) {
				continue
			}

			if title := r.VerboseName(); title != "" {
				ref = cobra.CompletionWithDesc(ref, title)
			}

			refs = append(refs, ref)
		}

		return refs, cobra.ShellCompDirectiveNoFileComp
	}
}
