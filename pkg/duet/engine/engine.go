// Package engine shells out to the external comparison engine. The engine
// owns all diffing, traversal and hashing; this package only builds its
// command lines, monitors the subprocess and parses its JSON output.
//
// Protocol: stdout carries a single JSON document on success, stderr
// carries free-form progress text while the process runs. Exit code 0 and
// the designated "differences found" code are both success; anything else
// is a failure with the stderr text as detail.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
)

// DefaultDiffExitCode is the conventional "differences found" exit code.
const DefaultDiffExitCode = 1

// Options mirrors the engine's scan flags. The zero value requests a
// plain metadata scan.
type Options struct {
	FollowSymlinks bool     `mapstructure:"follow_symlinks" json:"follow_symlinks"`
	VerifyHashes   bool     `mapstructure:"verify_hashes" json:"verify_hashes"`
	Ignore         []string `mapstructure:"ignore" json:"ignore,omitempty"`

	TextDiff    bool `mapstructure:"text_diff" json:"text_diff"`
	ImageDiff   bool `mapstructure:"image_diff" json:"image_diff"`
	ImageEXIF   bool `mapstructure:"image_exif" json:"image_exif"`
	CSVDiff     bool `mapstructure:"csv_diff" json:"csv_diff"`
	ExcelDiff   bool `mapstructure:"excel_diff" json:"excel_diff"`
	JSONDiff    bool `mapstructure:"json_diff" json:"json_diff"`
	YAMLDiff    bool `mapstructure:"yaml_diff" json:"yaml_diff"`
	ParquetDiff bool `mapstructure:"parquet_diff" json:"parquet_diff"`

	// ImageTolerance is the per-channel tolerance for image diffs.
	// The engine default is 1; only other values are passed.
	ImageTolerance int `mapstructure:"image_tolerance" json:"image_tolerance"`

	// IgnoreWhitespace is the engine's whitespace mode ("leading",
	// "trailing", "all"); empty passes nothing.
	IgnoreWhitespace string `mapstructure:"ignore_whitespace" json:"ignore_whitespace,omitempty"`
	IgnoreCase       bool   `mapstructure:"ignore_case" json:"ignore_case"`
}

// Flags renders the option set as engine CLI arguments. The rendering
// is deterministic so it also keys the report cache.
func (o Options) Flags() []string {
	var args []string
	if o.FollowSymlinks {
		args = append(args, "--follow-symlinks")
	}
	if o.VerifyHashes {
		args = append(args, "--verify-hashes")
	}
	for _, pattern := range o.Ignore {
		args = append(args, "--ignore", pattern)
	}
	if o.TextDiff {
		args = append(args, "--text-diff")
	}
	if o.ImageDiff {
		args = append(args, "--image-diff")
	}
	if o.ImageEXIF {
		args = append(args, "--image-exif")
	}
	if o.ImageTolerance != 0 && o.ImageTolerance != 1 {
		args = append(args, "--image-tolerance", strconv.Itoa(o.ImageTolerance))
	}
	if o.CSVDiff {
		args = append(args, "--csv-diff")
	}
	if o.ExcelDiff {
		args = append(args, "--excel-diff")
	}
	if o.JSONDiff {
		args = append(args, "--json-diff")
	}
	if o.YAMLDiff {
		args = append(args, "--yaml-diff")
	}
	if o.ParquetDiff {
		args = append(args, "--parquet-diff")
	}
	if o.IgnoreWhitespace != "" {
		args = append(args, "--ignore-whitespace", o.IgnoreWhitespace)
	}
	if o.IgnoreCase {
		args = append(args, "--ignore-case")
	}
	return args
}

// Engine invokes one external comparison engine binary.
type Engine struct {
	path         string
	diffExitCode int
}

// New creates an Engine for the given binary path. diffExitCode is the
// exit code the engine uses to signal "differences found"; values <= 0
// fall back to DefaultDiffExitCode.
func New(path string, diffExitCode int) *Engine {
	if diffExitCode <= 0 {
		diffExitCode = DefaultDiffExitCode
	}
	return &Engine{path: path, diffExitCode: diffExitCode}
}

// Path returns the engine binary path.
func (e *Engine) Path() string { return e.path }

// ScanArgs builds the argv (excluding the binary) for a scan invocation.
func (e *Engine) ScanArgs(left, right string, opts Options) []string {
	args := []string{"scan", left, right, "--json"}
	return append(args, opts.Flags()...)
}

// SyncArgs builds the argv for an engine-delegated sync.
func (e *Engine) SyncArgs(left, right, direction string, dryRun, useTrash bool, opts Options) []string {
	args := []string{"sync", left, right, "--json", "--direction", direction, "--conflict", "newest"}
	if dryRun {
		args = append(args, "--dry-run")
	}
	if useTrash {
		args = append(args, "--use-trash")
	}
	return append(args, opts.Flags()...)
}

// CopyArgs builds the argv for an engine-delegated one-way copy of the
// given relative paths.
func (e *Engine) CopyArgs(left, right, direction string, paths []string, opts Options) []string {
	args := []string{"copy", left, right, "--json", "--direction", direction}
	for _, p := range paths {
		args = append(args, "--path", p)
	}
	return append(args, opts.Flags()...)
}

// SyncSummary is the engine's JSON summary for a sync invocation.
type SyncSummary struct {
	Copied  int `json:"copied"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// CopySummary is the engine's JSON summary for a copy invocation.
type CopySummary struct {
	Copied  int `json:"copied"`
	Missing int `json:"missing"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// syncEnvelope matches the engine's {"summary": {...}} sync output.
type syncEnvelope struct {
	Summary SyncSummary `json:"summary"`
}

type copyEnvelope struct {
	Summary CopySummary `json:"summary"`
}

// RunSync runs an engine-delegated sync synchronously and parses its
// summary. Unlike scans, sync output is small and the caller controls
// lifetime through ctx alone.
func (e *Engine) RunSync(ctx context.Context, left, right, direction string, dryRun, useTrash bool, opts Options) (SyncSummary, error) {
	out, err := e.run(ctx, e.SyncArgs(left, right, direction, dryRun, useTrash, opts))
	if err != nil {
		return SyncSummary{}, err
	}
	var envelope syncEnvelope
	if err := json.Unmarshal(out, &envelope); err != nil {
		return SyncSummary{}, fmt.Errorf("parse sync summary: %w", err)
	}
	return envelope.Summary, nil
}

// RunCopy runs an engine-delegated copy synchronously.
func (e *Engine) RunCopy(ctx context.Context, left, right, direction string, paths []string, opts Options) (CopySummary, error) {
	out, err := e.run(ctx, e.CopyArgs(left, right, direction, paths, opts))
	if err != nil {
		return CopySummary{}, err
	}
	var envelope copyEnvelope
	if err := json.Unmarshal(out, &envelope); err != nil {
		return CopySummary{}, fmt.Errorf("parse copy summary: %w", err)
	}
	return envelope.Summary, nil
}

// run executes the engine and returns stdout, treating the diff exit
// code as success.
func (e *Engine) run(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, e.path, args...)
	out, err := cmd.Output()
	if err != nil {
		if code, stderr, ok := exitDetail(err); ok && code == e.diffExitCode {
			return out, nil
		} else if ok {
			return nil, fmt.Errorf("engine exited with code %d: %s", code, stderr)
		}
		return nil, fmt.Errorf("engine %s: %w", e.path, err)
	}
	return out, nil
}

// exitDetail extracts the exit code and trimmed stderr from an exec error.
func exitDetail(err error) (int, string, bool) {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 0, "", false
	}
	return exitErr.ExitCode(), string(exitErr.Stderr), true
}
