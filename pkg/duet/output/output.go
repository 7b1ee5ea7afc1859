// Package output provides formatters for displaying comparison results
// in various output formats (pretty, plain, json, yaml, etc.).
//
// The package uses a registry pattern to allow registration of multiple
// formatter implementations that can be selected at runtime.
//
// Basic usage:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, result); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/duetcmp/duet/pkg/duet/filter"
	"github.com/duetcmp/duet/pkg/duet/tree"
	"github.com/duetcmp/duet/pkg/duet/types"
)

// Entry is one comparison row prepared for output formatting. It carries
// both the raw metadata and precomputed human-readable fields so simple
// formatters do not need to recompute them.
type Entry struct {
	// Path is the relative path of the entry under the compared roots.
	Path string `json:"path" yaml:"path"`

	// Name is the final path segment.
	Name string `json:"name" yaml:"name"`

	// Status is the comparison status (same, different, orphan_left,
	// orphan_right, unchecked).
	Status types.Status `json:"status" yaml:"status"`

	// IsDir reports whether the entry is a directory on at least one side.
	IsDir bool `json:"is_dir" yaml:"is_dir"`

	// Depth is the tree depth of the entry (top-level entries are 0).
	Depth int `json:"depth" yaml:"depth"`

	// LeftSize and RightSize are the per-side sizes in bytes; nil when
	// the entry is absent on that side.
	LeftSize  *int64 `json:"left_size,omitempty" yaml:"left_size,omitempty"`
	RightSize *int64 `json:"right_size,omitempty" yaml:"right_size,omitempty"`

	// LeftSizeHuman and RightSizeHuman are humanized sizes ("-" when absent).
	LeftSizeHuman  string `json:"left_size_human" yaml:"left_size_human"`
	RightSizeHuman string `json:"right_size_human" yaml:"right_size_human"`

	// LeftModified and RightModified are per-side modification times as
	// unix seconds; nil when absent or unknown.
	LeftModified  *int64 `json:"left_modified,omitempty" yaml:"left_modified,omitempty"`
	RightModified *int64 `json:"right_modified,omitempty" yaml:"right_modified,omitempty"`
}

// Result contains the complete output data for formatting: the compared
// roots, the visible rows after filtering, and totals.
type Result struct {
	// Left and Right are the compared root paths.
	Left  string `json:"left" yaml:"left"`
	Right string `json:"right" yaml:"right"`

	// Entries are the rows to display, in tree order with directories
	// before files at each level.
	Entries []Entry `json:"entries" yaml:"entries"`

	// Summary are the scan totals over all entries, regardless of any
	// active filter.
	Summary types.ScanSummary `json:"summary" yaml:"summary"`

	// Duration is the wall time of the comparison.
	Duration time.Duration `json:"duration" yaml:"duration"`

	// Engine is the comparison engine used ("local" when no engine binary
	// was involved).
	Engine string `json:"engine" yaml:"engine"`

	// Filtered reports whether a non-default filter hid some entries.
	Filtered bool `json:"filtered" yaml:"filtered"`

	// Warnings contains any warning messages generated during comparison.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// Canceled indicates the comparison was interrupted before finishing.
	Canceled bool `json:"canceled" yaml:"canceled"`
}

// VisibleCount returns the number of displayed entries.
func (r *Result) VisibleCount() int {
	return len(r.Entries)
}

// BuildResult flattens a comparison tree into a Result, applying the
// given filter. Directories whose subtrees are fully hidden are dropped
// along with their children.
func BuildResult(root *tree.Node, summary types.ScanSummary, flags filter.Flags) *Result {
	r := &Result{
		Summary:  summary,
		Filtered: !flags.IsDefault(),
	}
	if root == nil {
		return r
	}
	for _, child := range root.Children {
		appendVisible(r, child, flags, 0)
	}
	return r
}

func appendVisible(r *Result, n *tree.Node, flags filter.Flags, depth int) {
	if !flags.Accepts(n) || flags.HidesDir(n) {
		return
	}
	r.Entries = append(r.Entries, entryFromNode(n, depth))
	for _, child := range n.Children {
		appendVisible(r, child, flags, depth+1)
	}
}

func entryFromNode(n *tree.Node, depth int) Entry {
	return Entry{
		Path:           n.Path,
		Name:           n.Name,
		Status:         n.Status,
		IsDir:          n.IsDir,
		Depth:          depth,
		LeftSize:       n.LeftSize,
		RightSize:      n.RightSize,
		LeftSizeHuman:  types.FormatOptionalSize(n.LeftSize),
		RightSizeHuman: types.FormatOptionalSize(n.RightSize),
		LeftModified:   n.LeftModified,
		RightModified:  n.RightModified,
	}
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	// It returns an error if formatting fails.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry.
// It will replace any existing formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
// It returns an error if the formatter is not found.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
