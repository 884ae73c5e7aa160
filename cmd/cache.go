package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newCacheCmd(v *viper.Viper) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clean cloned templates",
	}

	cacheCmd.AddCommand(
		&cobra.Command{
			Use:   "path template",
			Short: "Print where a template repository is cached",
			Long: `Print where a template repository is cached.

The cache path is <cache-dir>/<key>. The key is the repository identifier
with the URL scheme and user info dropped, scp style "host:path" written as
"host/path", any other ":" replaced by "_" and a trailing ".git" removed.
Identifiers that only differ in those parts share a cache directory, so
https://github.com/acme/go.git and git@github.com:acme/go both map to
<cache-dir>/github.com/acme/go.`,
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := newGenerator(v).CachePath(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), p)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List cached template repositories",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				keys, err := newGenerator(v).ListCache()
				if err != nil {
					return err
				}
				for _, k := range keys {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "clean template",
			Short: "Remove the cached clone of a template repository",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return newGenerator(v).CleanCache(args[0])
			},
		},
	)

	return cacheCmd
}
