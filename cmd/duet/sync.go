package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"

	"github.com/duetcmp/duet/pkg/duet/session"
	"github.com/duetcmp/duet/pkg/duet/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync <left> <right>",
	Short: "Synchronize two folder trees",
	Long: `Compare two folder trees and apply the planned actions.

The direction selects which side is authoritative:
  left_to_right   make right match left
  right_to_left   make left match right
  bidirectional   merge both sides, newest modification wins

Conflicting entries (equal or unknown timestamps in bidirectional mode)
are reported and never resolved automatically.`,
	Args: cobra.ExactArgs(2),
	RunE: runSync,
}

var (
	syncDirection string
	syncDryRun    bool
	syncNoTrash   bool
	syncLocal     bool
)

func init() {
	syncCmd.Flags().StringVarP(&syncDirection, "direction", "d", string(sync.LeftToRight),
		"sync direction (left_to_right, right_to_left, bidirectional)")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "plan only, don't touch the filesystem")
	syncCmd.Flags().BoolVar(&syncNoTrash, "no-trash", false, "delete permanently instead of moving to trash")
	syncCmd.Flags().BoolVar(&syncLocal, "local", false, "use the built-in executor, never delegate to the engine")
	rootCmd.AddCommand(syncCmd)
}

func runSync(_ *cobra.Command, args []string) error {
	direction, err := sync.ParseDirection(syncDirection)
	if err != nil {
		return err
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
		printInfo("\nInterrupted, stopping sync...")
		cancel()
	}()

	// A sync needs a comparison first.
	if !getQuiet() {
		printInfo("Comparing %s and %s...", left, right)
	}
	run, err := sess.Compare(ctx, !syncLocal)
	if err != nil {
		return fmt.Errorf("failed to start comparison: %w", err)
	}
	for line := range run.Progress {
		printVerbose("%s", line)
	}
	if err := <-run.Done; err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}

	useTrash := cfg.Sync.UseTrash && !syncNoTrash
	local := syncLocal || cfg.Sync.Local

	req := session.SyncRequest{
		Direction: direction,
		DryRun:    syncDryRun,
		UseTrash:  useTrash,
		Local:     local,
	}

	// The local executor reports per-action progress; show a bar for it.
	var bar *pb.ProgressBar
	if local && !syncDryRun && !getQuiet() {
		planned := sync.Plan(sess.Report(), direction)
		if len(planned) > 0 {
			bar = pb.StartNew(len(planned))
			req.Progress = func(_ sync.PlannedAction, _ bool) {
				bar.Increment()
			}
		}
	}

	result, err := sess.Sync(ctx, req)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	printSyncResult(result)
	return nil
}

func printSyncResult(result *session.SyncResult) {
	mode := "applied"
	if result.DryRun {
		mode = "planned"
	}
	by := "local executor"
	if result.Delegated {
		by = "engine"
	}

	printInfo("Sync %s (%s): %d copied, %d updated, %d deleted, %d skipped, %d failed",
		mode, by,
		result.Summary.Copied, result.Summary.Updated, result.Summary.Deleted,
		result.Summary.Skipped, result.Summary.Failed)

	conflicts := make([]string, 0)
	for _, action := range result.Actions {
		if action.Code == sync.Conflict {
			conflicts = append(conflicts, action.Path)
		}
	}
	if len(conflicts) > 0 {
		printInfo("\n%d conflict(s) need manual resolution:", len(conflicts))
		for _, path := range conflicts {
			printInfo("  %s", path)
		}
	}

	if result.DryRun && len(result.Actions) > 0 {
		printInfo("\nPlanned actions:")
		for _, action := range result.Actions {
			printInfo("  %-10s %s", action.Code, action.Path)
		}
	}

	if result.Summary.Failed > 0 {
		printError("%d action(s) failed; see the log for details", result.Summary.Failed)
	}
}
