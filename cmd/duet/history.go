package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/duetcmp/duet/pkg/duet/config"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	Long: `View the history of compare, sync, and copy operations.

Every operation is recorded with its roots, direction, and result
counters. Use 'duet history show <id>' for the full action list.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show details of a specific operation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean up old history entries",
	Long:  `Remove history entries older than the retention period.`,
	RunE:  runHistoryClean,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// runHistory lists recent operations.
func runHistory(cmd *cobra.Command, args []string) error {
	h, err := getHistory()
	if err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	entries, err := h.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 {
		printInfo("No history entries found.")
		printInfo("Run 'duet <left> <right>' to compare two folders.")
		return nil
	}

	fmt.Printf("\n%-36s  %-8s  %-20s  %s\n", "ID", "TYPE", "WHEN", "RESULT")
	fmt.Println(strings.Repeat("-", 100))

	for _, entry := range entries {
		result := ""
		switch {
		case entry.Scan != nil:
			result = fmt.Sprintf("%d entries, %d different", entry.Scan.Total, entry.Scan.Different)
		case entry.Sync != nil:
			result = fmt.Sprintf("%d copied, %d updated, %d deleted, %d failed",
				entry.Sync.Copied, entry.Sync.Updated, entry.Sync.Deleted, entry.Sync.Failed)
		}
		fmt.Printf("%-36s  %-8s  %-20s  %s\n",
			entry.ID,
			entry.Operation,
			entry.Timestamp.Local().Format("2006-01-02 15:04:05"),
			result,
		)
	}

	fmt.Println(strings.Repeat("-", 100))
	fmt.Printf("\nShowing %d entries. Use --limit to see more.\n", len(entries))
	fmt.Println("Use 'duet history show <id>' for details on a specific entry.")

	return nil
}

// runHistoryShow displays details of a specific operation.
func runHistoryShow(cmd *cobra.Command, args []string) error {
	h, err := getHistory()
	if err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	entry, err := h.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}

	fmt.Println("\nOperation Details")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("ID:         %s\n", entry.ID)
	fmt.Printf("Timestamp:  %s\n", entry.Timestamp.Local().Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Operation:  %s\n", entry.Operation)
	fmt.Printf("Left:       %s\n", entry.Left)
	fmt.Printf("Right:      %s\n", entry.Right)
	if entry.Direction != "" {
		fmt.Printf("Direction:  %s\n", entry.Direction)
	}
	if entry.DryRun {
		fmt.Println("Dry run:    yes")
	}
	if entry.Engine != "" {
		fmt.Printf("Engine:     %s\n", entry.Engine)
	}
	if entry.Duration > 0 {
		fmt.Printf("Duration:   %s\n", entry.Duration)
	}

	if entry.Scan != nil {
		fmt.Println("\nComparison totals:")
		fmt.Printf("  total: %d  same: %d  different: %d  left only: %d  right only: %d\n",
			entry.Scan.Total, entry.Scan.Same, entry.Scan.Different,
			entry.Scan.OrphanLeft, entry.Scan.OrphanRight)
	}
	if entry.Sync != nil {
		fmt.Println("\nExecution counters:")
		fmt.Printf("  copied: %d  updated: %d  deleted: %d  skipped: %d  failed: %d\n",
			entry.Sync.Copied, entry.Sync.Updated, entry.Sync.Deleted,
			entry.Sync.Skipped, entry.Sync.Failed)
	}

	if len(entry.Actions) > 0 {
		fmt.Println("\nActions:")
		fmt.Println(strings.Repeat("-", 60))

		// Limit display to 50 actions
		limit := 50
		if len(entry.Actions) < limit {
			limit = len(entry.Actions)
		}
		for i := 0; i < limit; i++ {
			action := entry.Actions[i]
			marker := ""
			if action.Failed {
				marker = "  (failed)"
			}
			fmt.Printf("%-10s  %s%s\n", action.Code, action.Path, marker)
		}
		if len(entry.Actions) > limit {
			fmt.Printf("\n... and %d more actions\n", len(entry.Actions)-limit)
		}
	}

	return nil
}

// runHistoryClean removes old history entries.
func runHistoryClean(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	h, err := getHistory()
	if err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	retentionDays := cfg.History.RetentionDays
	if retentionDays <= 0 {
		retentionDays = config.DefaultRetentionDays
	}

	printInfo("Cleaning history entries older than %d days...", retentionDays)

	if err := h.Cleanup(retentionDays); err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}

	printInfo("History cleanup complete.")
	return nil
}
