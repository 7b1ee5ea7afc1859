package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/duetcmp/duet/cmd/duet/tui"
	"github.com/duetcmp/duet/pkg/duet/config"
	"github.com/duetcmp/duet/pkg/duet/output"
)

// runCompare is the root command handler.
func runCompare(_ *cobra.Command, args []string) error {
	left, right, err := resolveRoots(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Determine output mode
	noInteractive := viper.GetBool("no_interactive")
	outFormat := viper.GetString("output")

	// An explicit non-pretty format forces non-interactive mode.
	if outFormat != "" && outFormat != "pretty" {
		noInteractive = true
	}

	if noInteractive {
		return runNonInteractiveCompare(left, right, cfg)
	}

	if err := initLogging(cfg, true); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	sess, cleanup, err := buildSession(left, right, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	return tui.Run(tui.Options{
		Session:  sess,
		UseCache: !viper.GetBool("no_cache"),
		UseTrash: cfg.Sync.UseTrash,
		Local:    cfg.Sync.Local,
	})
}

// runNonInteractiveCompare runs one comparison and formats the result.
func runNonInteractiveCompare(left, right string, cfg *config.Config) error {
	if err := initLogging(cfg, false); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	outFormat := viper.GetString("output")
	if outFormat == "" {
		outFormat = "pretty"
	}
	formatter, err := output.Get(outFormat)
	if err != nil {
		return fmt.Errorf("unknown output format %q: available formats are %v", outFormat, output.Available())
	}

	sess, cleanup, err := buildSession(left, right, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	canceled := false
	go func() {
		<-sigChan
		printInfo("\nInterrupted, stopping comparison...")
		canceled = true
		cancel()
	}()

	if !getQuiet() {
		printInfo("Comparing %s and %s...", left, right)
	}

	started := time.Now()
	run, err := sess.Compare(ctx, !viper.GetBool("no_cache"))
	if err != nil {
		return fmt.Errorf("failed to start comparison: %w", err)
	}

	// Engine progress goes to stderr so formatted output stays clean.
	for line := range run.Progress {
		if getVerbose() {
			fmt.Fprintln(os.Stderr, line)
		}
	}
	if err := <-run.Done; err != nil {
		if canceled {
			printInfo("Comparison cancelled")
			return nil
		}
		return fmt.Errorf("comparison failed: %w", err)
	}

	report := sess.Report()
	result := output.BuildResult(sess.Root(), report.Summary, sess.Filter())
	result.Left = left
	result.Right = right
	result.Duration = time.Since(started)
	result.Engine = cfg.Engine.Path
	result.Canceled = canceled

	var buf bytes.Buffer
	if err := formatter.Format(&buf, result); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Print(buf.String())

	return nil
}
