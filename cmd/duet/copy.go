package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var copyCmd = &cobra.Command{
	Use:   "copy <left> <right>",
	Short: "Copy selected paths from one side to the other",
	Long: `Copy the given root-relative paths to the other side.

Exactly one of --to-right or --to-left selects the direction. Paths that
do not exist on the source side are counted as missing, not fatal.`,
	Args: cobra.ExactArgs(2),
	RunE: runCopy,
}

var (
	copyToRight bool
	copyToLeft  bool
	copyPaths   []string
)

func init() {
	copyCmd.Flags().BoolVar(&copyToRight, "to-right", false, "copy from left to right")
	copyCmd.Flags().BoolVar(&copyToLeft, "to-left", false, "copy from right to left")
	copyCmd.Flags().StringSliceVarP(&copyPaths, "path", "p", nil, "root-relative path to copy (repeatable)")
	_ = copyCmd.MarkFlagRequired("path")
	rootCmd.AddCommand(copyCmd)
}

func runCopy(_ *cobra.Command, args []string) error {
	if copyToRight == copyToLeft {
		return fmt.Errorf("exactly one of --to-right or --to-left is required")
	}
	if len(copyPaths) == 0 {
		return fmt.Errorf("at least one --path is required")
	}

	left, right, err := resolveRoots(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := initLogging(cfg, false); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	sess, cleanup, err := buildSession(left, right, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		printInfo("\nInterrupted, stopping copy...")
		cancel()
	}()

	if !getQuiet() {
		printInfo("Comparing %s and %s...", left, right)
	}
	run, err := sess.Compare(ctx, !viper.GetBool("no_cache"))
	if err != nil {
		return fmt.Errorf("failed to start comparison: %w", err)
	}
	for line := range run.Progress {
		printVerbose("%s", line)
	}
	if err := <-run.Done; err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}

	result, err := sess.CopySide(ctx, copyToRight, copyPaths)
	if err != nil {
		return fmt.Errorf("copy failed: %w", err)
	}

	printInfo("Copy complete: %d copied, %d missing, %d skipped, %d failed",
		result.Copied, result.Missing, result.Skipped, result.Failed)

	if result.Failed > 0 {
		printError("%d path(s) failed; see the log for details", result.Failed)
	}
	return nil
}
