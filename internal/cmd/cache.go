package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the workspace/build cache",
}

var cacheWorkspaceCmd = &cobra.Command{
	Use:   "workspace",
	Short: "Manage cached west workspaces",
}

var cacheWorkspaceShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the best cached entry for a repository/branch",
	RunE:  runCacheWorkspaceShow,
}

var cacheWorkspaceDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete every cached entry for a repository",
	RunE:  runCacheWorkspaceDelete,
}

var cacheWorkspaceCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Evict entries older than --max-age",
	RunE:  runCacheWorkspaceCleanup,
}

var cacheWorkspaceAddCmd = &cobra.Command{
	Use:   "add <dir>",
	Short: "Inject an externally-prepared workspace directory into the cache",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheWorkspaceAdd,
}

func init() {
	cacheCmd.AddCommand(cacheWorkspaceCmd)
	cacheWorkspaceCmd.AddCommand(cacheWorkspaceShowCmd, cacheWorkspaceDeleteCmd, cacheWorkspaceCleanupCmd, cacheWorkspaceAddCmd)

	cacheWorkspaceShowCmd.Flags().String("repository", "", "repository URL (required)")
	cacheWorkspaceShowCmd.Flags().String("branch", "", "branch name")
	cacheWorkspaceShowCmd.Flags().String("output-format", "text", "output format: text, json")
	_ = cacheWorkspaceShowCmd.MarkFlagRequired("repository")

	cacheWorkspaceDeleteCmd.Flags().String("repository", "", "repository URL (required)")
	_ = cacheWorkspaceDeleteCmd.MarkFlagRequired("repository")

	cacheWorkspaceCleanupCmd.Flags().Duration("max-age", 7*24*time.Hour, "remove entries older than this")

	cacheWorkspaceAddCmd.Flags().String("repository", "", "repository URL (required)")
	cacheWorkspaceAddCmd.Flags().String("branch", "", "branch name (required)")
	cacheWorkspaceAddCmd.Flags().String("manifest-commit", "", "pinned manifest commit")
	cacheWorkspaceAddCmd.Flags().String("source", "manual", "provenance tag recorded on the entry")
	_ = cacheWorkspaceAddCmd.MarkFlagRequired("repository")
	_ = cacheWorkspaceAddCmd.MarkFlagRequired("branch")
}

func runCacheWorkspaceShow(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("output-format")
	repository, _ := cmd.Flags().GetString("repository")
	branch, _ := cmd.Flags().GetString("branch")

	store, err := openCache()
	if err != nil {
		return err
	}
	defer store.Close()

	meta, err := store.BestMatch(context.Background(), repository, branch)
	if err != nil {
		return err
	}

	return printFormatted(format, meta, func() error {
		if meta == nil {
			printMessage("no cached entry found")
			return nil
		}
		fmt.Printf("key:        %s\n", meta.Key)
		fmt.Printf("level:      %s\n", meta.CacheLevel)
		fmt.Printf("size_bytes: %d\n", meta.SizeBytes)
		fmt.Printf("components: %v\n", meta.CachedComponents)
		fmt.Printf("created_at: %s\n", meta.CreatedAt)
		fmt.Printf("last_used:  %s\n", meta.LastAccess)
		return nil
	})
}

func runCacheWorkspaceDelete(cmd *cobra.Command, args []string) error {
	repository, _ := cmd.Flags().GetString("repository")

	store, err := openCache()
	if err != nil {
		return err
	}
	defer store.Close()

	removed, err := store.Delete(context.Background(), repository)
	if err != nil {
		return err
	}
	fmt.Printf("removed %d entries for %s\n", removed, repository)
	return nil
}

func runCacheWorkspaceCleanup(cmd *cobra.Command, args []string) error {
	maxAge, _ := cmd.Flags().GetDuration("max-age")

	store, err := openCache()
	if err != nil {
		return err
	}
	defer store.Close()

	removed, err := store.Cleanup(context.Background(), maxAge)
	if err != nil {
		return err
	}
	fmt.Printf("removed %d entries older than %s\n", removed, maxAge)
	return nil
}

func runCacheWorkspaceAdd(cmd *cobra.Command, args []string) error {
	repository, _ := cmd.Flags().GetString("repository")
	branch, _ := cmd.Flags().GetString("branch")
	manifestCommit, _ := cmd.Flags().GetString("manifest-commit")
	source, _ := cmd.Flags().GetString("source")

	store, err := openCache()
	if err != nil {
		return err
	}
	defer store.Close()

	meta, err := store.Inject(context.Background(), repository, branch, manifestCommit, args[0], source)
	if err != nil {
		return err
	}
	fmt.Printf("cached %s as %s (%s, %d bytes)\n", args[0], meta.Key, meta.CacheLevel, meta.SizeBytes)
	return nil
}
