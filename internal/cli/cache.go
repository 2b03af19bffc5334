package cli

import (
	"fmt"

	"github.com/glorpus-work/formula/internal/logger"
	"github.com/glorpus-work/formula/pkg/cache"
	"github.com/spf13/cobra"
)

// NewCacheCmd creates the cache command with subcommands.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the download cache",
		Long:  "Show information about and clean the downloaded archives and checksum files",
	}

	cmd.AddCommand(
		newCacheCleanCmd(),
		newCacheInfoCmd(),
		newCacheDirCmd(),
	)
	return cmd
}

func newCacheCleanCmd() *cobra.Command {
	var all, artifacts, checksums bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean the download cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			op, err := newCacheOperation()
			if err != nil {
				return err
			}
			msg, err := op.Clean(all, artifacts, checksums)
			if err != nil {
				return err
			}
			logger.Debug("cache clean", logger.Fields{"dir": op.GetDirectory()})
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "clean all cached files")
	cmd.Flags().BoolVar(&artifacts, "artifacts", false, "clean only downloaded archives")
	cmd.Flags().BoolVar(&checksums, "checksums", false, "clean only downloaded checksum files")
	return cmd
}

func newCacheInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show cache information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			op, err := newCacheOperation()
			if err != nil {
				return err
			}
			info, err := op.GetInfo()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), info)
			return nil
		},
	}
}

func newCacheDirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dir",
		Short: "Show the cache directory path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			op, err := newCacheOperation()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), op.GetDirectory())
			return nil
		},
	}
}

func newCacheOperation() (*cache.Operation, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	dir, err := cacheDir(cfg)
	if err != nil {
		return nil, err
	}
	return cache.NewOperation(cache.NewManager(dir)), nil
}
