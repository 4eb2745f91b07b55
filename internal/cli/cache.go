package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/ifhere/internal/cache"
)

var cacheClearStory string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the translation cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached translations from disk",
	Long: `Remove cached translations from cache.dir.

With --story only that story's renderings are removed, in every country.
The in-memory layer lives inside a running server and is not affected.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Cache.Dir == "" {
			fmt.Println("No cache directory configured, nothing to clear")
			return nil
		}
		msg, err := clearDiskCache(cache.NewDiskCache(cfg.Cache.Dir, cfg.Cache.DiskTTL), cacheClearStory)
		if err != nil {
			return err
		}
		fmt.Printf("✓ %s (%s)\n", msg, cfg.Cache.Dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheClearCmd.Flags().StringVar(&cacheClearStory, "story", "", "only clear entries for this story ID")
}

func clearDiskCache(c *cache.DiskCache, storyID string) (string, error) {
	if storyID != "" {
		if err := c.DeleteStory(storyID); err != nil {
			return "", fmt.Errorf("clear story %s: %w", storyID, err)
		}
		return fmt.Sprintf("Cleared cached translations of %q", storyID), nil
	}
	if err := c.Clear(); err != nil {
		return "", fmt.Errorf("clear cache: %w", err)
	}
	return "Cleared all cached translations", nil
}
