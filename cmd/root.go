package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	generator "github.com/AidanDelaney/generator/pkg"
)

const (
	overrideFlag = "override"
	verboseFlag  = "verbose"
)

var actionStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("2")).
	Bold(true).
	Width(10).
	Align(lipgloss.Right)

func newRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "generator template destination",
		Short: "A project generation tool",
		Long: `Generator creates new projects from project templates.

The template is a local directory or a git repository. Repositories are
cloned into the cache directory and pulled on later runs. See
"generator cache path --help" for where a repository is cached.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbosity, _ := cmd.Flags().GetCount(verboseFlag)
			generator.SetupLogging(verbosity)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			templateArg, destination := args[0], args[1]

			g := newGenerator(v)
			overrides, err := cmd.Flags().GetStringToString(overrideFlag)
			if err == nil {
				generator.WithOverrides(overrides)(&g)
			}
			generator.WithReporter(newReporter(cmd.OutOrStdout()))(&g)

			return g.Generate(cmd.Context(), templateArg, destination)
		},
	}

	rootCmd.Flags().StringToStringP(overrideFlag, "o", map[string]string{}, "provide overrides as key-value pairs")
	rootCmd.PersistentFlags().CountP(verboseFlag, "v", "increase log verbosity, repeat for more detail")
	rootCmd.PersistentFlags().String(generator.KeyCacheDir, "", "directory holding cloned templates")
	rootCmd.PersistentFlags().String(generator.KeyConfigDir, "", "directory holding the default variables file")
	rootCmd.PersistentFlags().String(generator.KeyGitBackend, "", `git implementation, "gogit" or "git"`)
	for _, key := range []string{generator.KeyCacheDir, generator.KeyConfigDir, generator.KeyGitBackend} {
		if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(newCacheCmd(v))
	return rootCmd
}

// newGenerator builds a Generator from flags, GENERATOR_* environment
// variables and the XDG defaults, in that order of precedence.
func newGenerator(v *viper.Viper) generator.Generator {
	return generator.New(generator.WithConfig(generator.LoadConfig(v)))
}

func newReporter(out io.Writer) generator.Reporter {
	return func(action string, path string) {
		fmt.Fprintf(out, "%s  %s\n", actionStyle.Render(action), path)
	}
}

// Execute executes the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}
