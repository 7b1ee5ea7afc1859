package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/duetcmp/duet/pkg/duet/session"
	"github.com/duetcmp/duet/pkg/duet/sync"
)

// AppState represents the current state of the application.
type AppState int

const (
	StateComparing AppState = iota
	StateResults
	StateConfirm
	StateWorking
	StateComplete
)

// pendingOp identifies the operation awaiting confirmation.
type pendingOp int

const (
	opNone pendingOp = iota
	opSync
	opCopyRight
	opCopyLeft
	opDeleteLeft
	opDeleteRight
)

// Options configures the TUI application.
type Options struct {
	Session  *session.Session
	UseCache bool
	UseTrash bool
	Local    bool
}

// Model is the main Bubble Tea model for the duet TUI.
type Model struct {
	state        AppState
	compareModel CompareModel
	resultModel  ResultModel
	options      Options

	// Comparing state
	ctx    context.Context
	cancel context.CancelFunc
	run    *session.Run

	// Confirmation dialog state
	pending        pendingOp
	direction      sync.Direction
	dryRun         bool
	confirmFocused int // 0 = cancel, 1 = confirm
	pendingPaths   []string

	// Working state
	workSpinner  spinner.Model
	workLabel    string
	workProgress int
	workFailed   int
	workChan     chan workMsg

	// Completion state
	resultLines []string
	resultErr   error

	watching bool

	// Window dimensions
	width  int
	height int
}

// NewModel creates a new TUI model with the given options.
func NewModel(opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(warningColor)

	return Model{
		state:        StateComparing,
		compareModel: NewCompareModel(opts.Session.Left(), opts.Session.Right()),
		options:      opts,
		ctx:          ctx,
		cancel:       cancel,
		direction:    sync.LeftToRight,
		width:        80,
		height:       24,
		workSpinner:  s,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.compareModel.Init(),
		m.startCompare(),
		m.tickUI(),
	)
}

// tickUIMsg triggers a UI refresh.
type tickUIMsg struct{}

// tickUI keeps the indeterminate progress animation moving.
func (m Model) tickUI() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(time.Time) tea.Msg {
		return tickUIMsg{}
	})
}

// compareStartedMsg delivers the in-flight run handle.
type compareStartedMsg struct {
	run *session.Run
	err error
}

// staleMsg reports a filesystem change under one of the roots.
type staleMsg string

// workMsg reports progress or completion of a sync/copy/delete.
type workMsg struct {
	progress bool
	failed   bool

	done  bool
	lines []string
	err   error
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.compareModel.width = msg.Width
		m.compareModel.height = msg.Height
		m.resultModel.SetDimensions(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickUIMsg:
		if m.state == StateComparing {
			return m, m.tickUI()
		}
		return m, nil

	case compareStartedMsg:
		if msg.err != nil {
			m.compareModel.SetDone(msg.err)
			return m, nil
		}
		m.run = msg.run
		return m, tea.Batch(m.listenForProgress(), m.waitForCompare())

	case ProgressMsg:
		m.compareModel.AddLine(string(msg))
		return m, m.listenForProgress()

	case CompareCompleteMsg:
		m.compareModel.SetDone(msg.Err)
		if msg.Err != nil {
			return m, nil
		}
		return m.enterResults()

	case staleMsg:
		m.resultModel.SetStale(true)
		return m, m.listenForStale()

	case spinner.TickMsg:
		switch m.state {
		case StateComparing:
			var cmd tea.Cmd
			m.compareModel.spinner, cmd = m.compareModel.spinner.Update(msg)
			cmds = append(cmds, cmd)
		case StateWorking:
			var cmd tea.Cmd
			m.workSpinner, cmd = m.workSpinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case workMsg:
		if msg.progress {
			m.workProgress++
			if msg.failed {
				m.workFailed++
			}
			return m, m.listenForWork()
		}
		if msg.done {
			m.state = StateComplete
			m.resultLines = msg.lines
			m.resultErr = msg.err
			return m, nil
		}
		return m, m.listenForWork()
	}

	// Forward everything else to the focused search input.
	if m.state == StateResults && m.resultModel.Searching() {
		var cmd tea.Cmd
		m.resultModel, cmd = m.resultModel.Update(msg)
		return m, cmd
	}

	return m, tea.Batch(cmds...)
}

// enterResults transitions to the results view after a comparison.
func (m Model) enterResults() (tea.Model, tea.Cmd) {
	sess := m.options.Session
	m.state = StateResults
	m.resultModel = NewResultModel(sess.Root(), sess.Report().Summary, sess.Filter(),
		sess.Left(), sess.Right())
	m.resultModel.SetDimensions(m.width, m.height)

	// Watch for filesystem changes so the header can flag a stale report.
	if !m.watching {
		if err := sess.Watch(); err == nil {
			m.watching = true
		}
	}
	if m.watching {
		return m, m.listenForStale()
	}
	return m, nil
}

// handleKey handles keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Global keys
	if key == "ctrl+c" {
		m.cancel()
		return m, tea.Quit
	}

	switch m.state {
	case StateComparing:
		if key == "q" || key == "esc" {
			m.cancel()
			if m.run != nil {
				m.run.Cancel()
			}
			return m, tea.Quit
		}

	case StateResults:
		if m.resultModel.Searching() {
			var cmd tea.Cmd
			m.resultModel, cmd = m.resultModel.Update(msg)
			return m, cmd
		}
		switch key {
		case "q":
			return m, tea.Quit
		case "esc":
			if m.resultModel.Filter().Search != "" {
				m.resultModel.HandleKey(key)
				return m, nil
			}
			return m, tea.Quit
		case "R":
			return m.restartCompare()
		case "s":
			m.pending = opSync
			m.dryRun = false
			m.confirmFocused = 0
			m.state = StateConfirm
		case "c":
			return m.confirmPathOp(opCopyRight)
		case "C":
			return m.confirmPathOp(opCopyLeft)
		case "x":
			return m.confirmPathOp(opDeleteLeft)
		case "X":
			return m.confirmPathOp(opDeleteRight)
		default:
			cmd := m.resultModel.HandleKey(key)
			return m, cmd
		}

	case StateConfirm:
		return m.handleConfirmKey(key)

	case StateWorking:
		// No key handling while an operation runs

	case StateComplete:
		switch key {
		case "q", "esc":
			return m, tea.Quit
		case "enter", "R":
			// The report is stale after a completed operation.
			return m.restartCompare()
		}
	}

	return m, nil
}

// confirmPathOp opens the confirmation dialog for a copy or delete on the
// selected paths (falling back to the cursor entry).
func (m Model) confirmPathOp(op pendingOp) (tea.Model, tea.Cmd) {
	paths := m.resultModel.Tree().SelectedPaths()
	if len(paths) == 0 {
		if node := m.resultModel.Tree().Current(); node != nil && node.IsLeaf() {
			paths = []string{node.Path}
		}
	}
	if len(paths) == 0 {
		m.resultModel.SetNotice("nothing selected")
		return m, nil
	}

	m.pending = op
	m.pendingPaths = paths
	m.confirmFocused = 0
	m.state = StateConfirm
	return m, nil
}

// handleConfirmKey handles the confirmation dialog.
func (m Model) handleConfirmKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "esc", "n":
		m.state = StateResults
		m.pending = opNone
	case "left", "h":
		m.confirmFocused = 0
	case "right", "l":
		m.confirmFocused = 1
	case "tab":
		m.confirmFocused = (m.confirmFocused + 1) % 2
	case "1":
		if m.pending == opSync {
			m.direction = sync.LeftToRight
		}
	case "2":
		if m.pending == opSync {
			m.direction = sync.RightToLeft
		}
	case "3":
		if m.pending == opSync {
			m.direction = sync.Bidirectional
		}
	case "t":
		if m.pending == opSync {
			m.dryRun = !m.dryRun
		}
	case "enter":
		if m.confirmFocused == 1 {
			return m.startWork()
		}
		m.state = StateResults
		m.pending = opNone
	case "y":
		return m.startWork()
	}
	return m, nil
}

// restartCompare re-runs the comparison, bypassing the report cache.
func (m Model) restartCompare() (tea.Model, tea.Cmd) {
	sess := m.options.Session
	m.state = StateComparing
	m.compareModel = NewCompareModel(sess.Left(), sess.Right())
	m.compareModel.width = m.width
	m.compareModel.height = m.height
	m.run = nil
	return m, tea.Batch(m.compareModel.Init(), m.startCompareFresh(), m.tickUI())
}

// View renders the current state.
func (m Model) View() string {
	switch m.state {
	case StateComparing:
		return m.compareModel.View()
	case StateResults:
		return m.resultModel.View()
	case StateConfirm:
		return m.renderConfirmDialog()
	case StateWorking:
		return m.renderWorking()
	case StateComplete:
		return m.renderComplete()
	}
	return ""
}

// renderConfirmDialog renders the operation confirmation dialog.
func (m Model) renderConfirmDialog() string {
	bg := m.resultModel.View()

	var b strings.Builder
	b.WriteString(dialogTitleStyle.Render(m.confirmTitle()))
	b.WriteString("\n\n")

	switch m.pending {
	case opSync:
		b.WriteString(dialogTextStyle.Render(m.directionLabel()))
		b.WriteString("\n")
		b.WriteString(mutedTextStyle.Render("[1] left→right  [2] right→left  [3] both"))
		b.WriteString("\n\n")
		if m.dryRun {
			b.WriteString(warningTextStyle.Render("Dry run - no files will change  ([t] toggles)"))
		} else {
			b.WriteString(mutedTextStyle.Render("[t] toggles dry run"))
		}
		b.WriteString("\n")
	default:
		b.WriteString(dialogTextStyle.Render(fmt.Sprintf("%d entries", len(m.pendingPaths))))
		b.WriteString("\n")
		if m.pending == opDeleteLeft || m.pending == opDeleteRight {
			if m.options.UseTrash {
				b.WriteString(mutedTextStyle.Render("Entries move to the side's trash folder"))
			} else {
				b.WriteString(warningTextStyle.Render("Entries are removed permanently"))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")

	cancelBtn := inactiveButtonStyle.Render("Cancel")
	confirmBtn := inactiveButtonStyle.Render("Confirm")
	if m.confirmFocused == 0 {
		cancelBtn = activeButtonStyle.Render("Cancel")
	} else {
		confirmBtn = activeButtonStyle.Background(warningColor).Render("Confirm")
	}
	buttons := lipgloss.JoinHorizontal(lipgloss.Center, cancelBtn, "  ", confirmBtn)
	b.WriteString(center(buttons, 50))

	dialog := dialogBoxStyle.Render(b.String())
	return m.overlayDialog(bg, dialog)
}

func (m Model) confirmTitle() string {
	switch m.pending {
	case opSync:
		return "Synchronize Folders"
	case opCopyRight:
		return "Copy to Right"
	case opCopyLeft:
		return "Copy to Left"
	case opDeleteLeft:
		return "Delete from Left"
	case opDeleteRight:
		return "Delete from Right"
	}
	return "Confirm"
}

func (m Model) directionLabel() string {
	switch m.direction {
	case sync.LeftToRight:
		return "Direction: left → right"
	case sync.RightToLeft:
		return "Direction: right → left"
	default:
		return "Direction: bidirectional (newest wins)"
	}
}

// renderWorking renders the in-progress operation view.
func (m Model) renderWorking() string {
	contentWidth := m.width - 4

	var b strings.Builder
	b.WriteString(titleStyle.Render("  " + m.workLabel))
	b.WriteString("\n")
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("  %s %d actions done", m.workSpinner.View(), m.workProgress))
	if m.workFailed > 0 {
		b.WriteString(errorTextStyle.Render(fmt.Sprintf("  (%d failed)", m.workFailed)))
	}
	b.WriteString("\n")

	return outerBoxStyle.Width(m.width - 2).Render(b.String())
}

// renderComplete renders the completion view.
func (m Model) renderComplete() string {
	contentWidth := m.width - 4

	var b strings.Builder
	if m.resultErr != nil {
		b.WriteString(errorTextStyle.Render("  Operation Failed"))
	} else {
		b.WriteString(successTextStyle.Render("  Operation Complete"))
	}
	b.WriteString("\n")
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n\n")

	if m.resultErr != nil {
		b.WriteString(errorTextStyle.Render("  " + truncatePath(m.resultErr.Error(), contentWidth-4)))
		b.WriteString("\n")
	}
	for _, line := range m.resultLines {
		b.WriteString("  " + line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(center(
		keyStyle.Render("[Enter]")+" "+keyDescStyle.Render("Re-compare")+"   "+
			keyStyle.Render("[q]")+" "+keyDescStyle.Render("Quit"),
		contentWidth))
	b.WriteString("\n")

	return outerBoxStyle.Width(m.width - 2).Render(b.String())
}

// overlayDialog centers a dialog over a background view.
func (m Model) overlayDialog(bg, dialog string) string {
	dialogLines := strings.Split(dialog, "\n")
	bgLines := strings.Split(bg, "\n")

	dialogHeight := len(dialogLines)
	startRow := (m.height - dialogHeight) / 2
	if startRow < 0 {
		startRow = 0
	}

	dialogWidth := lipgloss.Width(dialog)
	startCol := (m.width - dialogWidth) / 2
	if startCol < 0 {
		startCol = 0
	}

	var result []string
	for i := range max(len(bgLines), startRow+dialogHeight) {
		if i < startRow || i >= startRow+dialogHeight {
			if i < len(bgLines) {
				result = append(result, bgLines[i])
			} else {
				result = append(result, "")
			}
			continue
		}
		dialogLine := dialogLines[i-startRow]
		if i < len(bgLines) {
			bgLine := bgLines[i]
			if startCol > len(bgLine) {
				result = append(result, strings.Repeat(" ", startCol)+dialogLine)
			} else {
				result = append(result, bgLine[:min(startCol, len(bgLine))]+dialogLine)
			}
		} else {
			result = append(result, strings.Repeat(" ", startCol)+dialogLine)
		}
	}

	return strings.Join(result, "\n")
}

// startCompare starts the comparison through the session.
func (m Model) startCompare() tea.Cmd {
	return m.compareCmd(m.options.UseCache)
}

// startCompareFresh re-runs the comparison bypassing the cache.
func (m Model) startCompareFresh() tea.Cmd {
	return m.compareCmd(false)
}

func (m Model) compareCmd(useCache bool) tea.Cmd {
	sess := m.options.Session
	ctx := m.ctx
	return func() tea.Msg {
		run, err := sess.Compare(ctx, useCache)
		return compareStartedMsg{run: run, err: err}
	}
}

// listenForProgress waits for the next engine progress line.
func (m Model) listenForProgress() tea.Cmd {
	run := m.run
	return func() tea.Msg {
		if run == nil {
			return nil
		}
		line, ok := <-run.Progress
		if !ok {
			return nil
		}
		return ProgressMsg(line)
	}
}

// waitForCompare waits for the comparison to finish.
func (m Model) waitForCompare() tea.Cmd {
	run := m.run
	started := time.Now()
	return func() tea.Msg {
		if run == nil {
			return nil
		}
		err := <-run.Done
		return CompareCompleteMsg{Err: err, Elapsed: time.Since(started)}
	}
}

// listenForStale waits for the next filesystem change event.
func (m Model) listenForStale() tea.Cmd {
	events := m.options.Session.StaleEvents()
	return func() tea.Msg {
		if events == nil {
			return nil
		}
		path, ok := <-events
		if !ok {
			return nil
		}
		return staleMsg(path)
	}
}

// listenForWork waits for the next operation progress update.
func (m Model) listenForWork() tea.Cmd {
	ch := m.workChan
	return func() tea.Msg {
		if ch == nil {
			return workMsg{done: true}
		}
		msg, ok := <-ch
		if !ok {
			return workMsg{done: true}
		}
		return msg
	}
}

// startWork launches the pending operation in the background.
func (m Model) startWork() (tea.Model, tea.Cmd) {
	m.state = StateWorking
	m.workProgress = 0
	m.workFailed = 0
	m.workChan = make(chan workMsg, 100)

	sess := m.options.Session
	ctx := m.ctx
	ch := m.workChan
	op := m.pending
	paths := m.pendingPaths
	useTrash := m.options.UseTrash

	switch op {
	case opSync:
		m.workLabel = "Synchronizing..."
		req := session.SyncRequest{
			Direction: m.direction,
			DryRun:    m.dryRun,
			UseTrash:  useTrash,
			Local:     m.options.Local,
			Progress: func(_ sync.PlannedAction, failed bool) {
				select {
				case ch <- workMsg{progress: true, failed: failed}:
				default:
				}
			},
		}
		go func() {
			res, err := sess.Sync(ctx, req)
			ch <- workMsg{done: true, lines: syncResultLines(res), err: err}
			close(ch)
		}()

	case opCopyRight, opCopyLeft:
		m.workLabel = "Copying..."
		toRight := op == opCopyRight
		go func() {
			res, err := sess.CopySide(ctx, toRight, paths)
			var lines []string
			if err == nil {
				lines = []string{fmt.Sprintf("Copied: %d  Missing: %d  Skipped: %d  Failed: %d",
					res.Copied, res.Missing, res.Skipped, res.Failed)}
			}
			ch <- workMsg{done: true, lines: lines, err: err}
			close(ch)
		}()

	case opDeleteLeft, opDeleteRight:
		m.workLabel = "Deleting..."
		fromLeft := op == opDeleteLeft
		go func() {
			res, err := sess.DeletePaths(ctx, fromLeft, paths, useTrash)
			var lines []string
			if err == nil {
				lines = []string{fmt.Sprintf("Deleted: %d  Failed: %d", res.Deleted, res.Failed)}
			}
			ch <- workMsg{done: true, lines: lines, err: err}
			close(ch)
		}()
	}

	m.pending = opNone
	m.pendingPaths = nil
	return m, tea.Batch(m.workSpinner.Tick, m.listenForWork())
}

// syncResultLines summarizes a sync run for the completion view.
func syncResultLines(res *session.SyncResult) []string {
	if res == nil {
		return nil
	}
	s := res.Summary
	lines := []string{fmt.Sprintf("Copied: %d  Updated: %d  Deleted: %d  Skipped: %d  Failed: %d",
		s.Copied, s.Updated, s.Deleted, s.Skipped, s.Failed)}
	if res.DryRun {
		lines = append(lines, "Dry run - nothing was changed")
	}
	if res.Delegated {
		lines = append(lines, "Performed by the engine")
	}

	conflicts := 0
	for _, a := range res.Actions {
		if a.Code == sync.Conflict {
			conflicts++
		}
	}
	if conflicts > 0 {
		lines = append(lines, fmt.Sprintf("%d conflicts need manual resolution", conflicts))
	}
	return lines
}

// Run starts the TUI application.
func Run(opts Options) error {
	model := NewModel(opts)

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err := p.Run()
	return err
}
