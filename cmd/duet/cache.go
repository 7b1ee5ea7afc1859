package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/duetcmp/duet/pkg/duet/cache"
	"github.com/duetcmp/duet/pkg/duet/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the report cache",
	Long: `Commands for managing the comparison report cache.

The cache stores engine scan reports so repeat comparisons of unchanged
folder pairs skip the engine entirely. Cache data is stored in the XDG
cache directory (typically ~/.cache/duet/reports).`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all cached reports",
	Long:  `Removes all cached scan reports. The next comparison will run the engine.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cachePath := resolveCachePath()

		if _, err := os.Stat(cachePath); os.IsNotExist(err) {
			fmt.Println("Cache is already empty.")
			return nil
		}

		if err := os.RemoveAll(cachePath); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}

		fmt.Println("Cache cleared.")
		return nil
	},
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate <left> <right>",
	Short: "Drop cached reports for a folder pair",
	Long:  `Removes every cached report for the given folder pair, regardless of scan options.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		left, right, err := resolveRoots(args)
		if err != nil {
			return err
		}

		c, err := cache.Open(resolveCachePath())
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer c.Close()

		if err := c.Invalidate(left, right); err != nil {
			return fmt.Errorf("failed to invalidate cache: %w", err)
		}

		fmt.Printf("Invalidated cached reports for %s <-> %s\n", left, right)
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Long:  `Displays information about the cache including its location, size, and last modified time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cachePath := resolveCachePath()

		info, err := os.Stat(cachePath)
		if os.IsNotExist(err) {
			fmt.Println("Cache: empty (no cache directory)")
			fmt.Printf("Cache location: %s\n", cachePath)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to stat cache: %w", err)
		}

		var size int64
		var fileCount int
		err = filepath.Walk(cachePath, func(_ string, info os.FileInfo, err error) error {
			if err == nil && !info.IsDir() {
				size += info.Size()
				fileCount++
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to calculate cache size: %w", err)
		}

		fmt.Printf("Cache location: %s\n", cachePath)
		fmt.Printf("Cache size: %s\n", humanize.Bytes(uint64(size)))
		fmt.Printf("Cache files: %d\n", fileCount)
		fmt.Printf("Last modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))

		return nil
	},
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show cache location",
	Long:  `Prints the path to the cache directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(resolveCachePath())
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePathCmd)
	rootCmd.AddCommand(cacheCmd)
}

// resolveCachePath honors a configured override before the XDG default.
func resolveCachePath() string {
	if cfg, err := loadConfig(); err == nil && cfg.Cache.Path != "" {
		return cfg.Cache.Path
	}
	return config.DefaultCachePath()
}
