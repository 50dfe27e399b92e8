package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/savioxavier/termlink"
)

const (
	defaultWindowHeight = 24
	defaultWindowWidth  = 80
	minVisibleHeight    = 3
	maxInputWidth       = 70
	minInputWidth       = 30

	// Ignore watcher events for a file this soon after we wrote it.
	selfModifyWindow = 2 * time.Second
)

// model is the bubbletea model for the task list view.
type model struct {
	session  *FilterSession
	allTasks []*Task
	visible  []*Task

	cursor    int
	vaultPath string
	titleName string

	cache             *TaskCache
	watcher           *Watcher
	debouncer         *Debouncer
	selfModifiedFiles map[string]time.Time

	searching        bool
	searchNavigating bool
	searchQuery      string

	filtering   bool
	filterInput textinput.Model

	err          error
	quitting     bool
	windowHeight int
	windowWidth  int
}

func newModel(session *FilterSession, tasks []*Task, vaultPath, titleName string, cache *TaskCache, watcher *Watcher, debouncer *Debouncer) model {
	input := textinput.New()
	input.Placeholder = `#tag AND PRIORITY:>=3, DATE:<today, NOT (...)`
	input.CharLimit = 200

	m := model{
		session:           session,
		allTasks:          tasks,
		vaultPath:         vaultPath,
		titleName:         titleName,
		cache:             cache,
		watcher:           watcher,
		debouncer:         debouncer,
		selfModifiedFiles: make(map[string]time.Time),
		filterInput:       input,
		windowHeight:      defaultWindowHeight,
		windowWidth:       defaultWindowWidth,
	}
	m.rebuildVisible()

	return m
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.WindowSize()}
	if m.watcher != nil {
		cmds = append(cmds, m.watcher.WatchCmd())
	}
	return tea.Batch(cmds...)
}

// rebuildVisible re-runs the filter session over all tasks and applies the
// incremental search on top.
func (m *model) rebuildVisible() {
	matched := m.session.Match(m.allTasks)

	m.visible = m.visible[:0]
	for _, t := range m.allTasks {
		if matched[t] == m.session.Options.FilterOutTasks {
			continue
		}
		if m.searchQuery != "" &&
			!strings.Contains(strings.ToLower(t.Text), strings.ToLower(m.searchQuery)) {
			continue
		}
		m.visible = append(m.visible, t)
	}

	m.clampCursor()
}

func (m *model) clampCursor() {
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// refresh re-scans the vault, through the cache where files are unchanged.
func (m *model) refresh() {
	files, err := scanVault(m.vaultPath)
	if err != nil {
		m.err = err
		return
	}

	var allTasks []*Task
	for _, file := range files {
		if m.cache != nil {
			if tasks, ok := m.cache.Get(file); ok {
				allTasks = append(allTasks, tasks...)
				continue
			}
		}

		tasks, err := parseFile(file, m.session.Marks)
		if err != nil {
			continue
		}
		if m.cache != nil {
			m.cache.Set(file, tasks)
		}
		allTasks = append(allTasks, tasks...)
	}

	m.allTasks = allTasks
	m.rebuildVisible()
}

func (m *model) currentTask() *Task {
	if len(m.visible) == 0 || m.cursor >= len(m.visible) {
		return nil
	}
	return m.visible[m.cursor]
}

func (m *model) toggleAndSave(task *Task) {
	task.Toggle(m.session.Marks)
	m.selfModifiedFiles[task.FilePath] = time.Now()

	if err := saveTask(task); err != nil {
		m.err = err
		return
	}
	if m.cache != nil {
		m.cache.Invalidate(task.FilePath)
	}
}

func (m *model) toggleStatusFilter(s Status) {
	opts := &m.session.Options
	switch s {
	case StatusCompleted:
		opts.IncludeCompleted = !opts.IncludeCompleted
	case StatusInProgress:
		opts.IncludeInProgress = !opts.IncludeInProgress
	case StatusAbandoned:
		opts.IncludeAbandoned = !opts.IncludeAbandoned
	case StatusPlanned:
		opts.IncludePlanned = !opts.IncludePlanned
	default:
		opts.IncludeNotStarted = !opts.IncludeNotStarted
	}
	m.rebuildVisible()
}

func (m *model) inputWidth() int {
	w := m.windowWidth - 10
	if w > maxInputWidth {
		w = maxInputWidth
	}
	if w < minInputWidth {
		w = minInputWidth
	}
	return w
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowHeight = msg.Height
		m.windowWidth = msg.Width
		m.filterInput.Width = m.inputWidth()
		return m, nil

	case FileChangeMsg:
		cmds := []tea.Cmd{}
		if m.watcher != nil {
			cmds = append(cmds, m.watcher.WatchCmd())
		}

		// Skip events caused by our own save.
		if at, ok := m.selfModifiedFiles[msg.Path]; ok && time.Since(at) < selfModifyWindow {
			return m, tea.Batch(cmds...)
		}

		if m.cache != nil {
			m.cache.Invalidate(msg.Path)
		}
		if m.debouncer != nil {
			m.debouncer.Trigger()
		}
		return m, tea.Batch(cmds...)

	case DebouncedRefreshMsg:
		m.refresh()
		return m, nil

	case editorFinishedMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		if m.cache != nil && msg.task != nil {
			m.cache.Invalidate(msg.task.FilePath)
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFiltering(msg)
		}
		if m.searching {
			return m.updateSearching(msg)
		}
		return m.updateBrowsing(msg)
	}

	return m, nil
}

// updateFiltering handles keys while the advanced-filter input is open.
func (m model) updateFiltering(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		query := strings.TrimSpace(m.filterInput.Value())
		m.session.Options.AdvancedQuery = query
		m.session.Options.UseAdvancedQuery = query != ""
		m.filtering = false
		m.filterInput.Blur()
		m.rebuildVisible()
		return m, nil

	case "esc":
		m.filtering = false
		m.filterInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	return m, cmd
}

// updateSearching handles keys while typing an incremental search.
func (m model) updateSearching(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.searchNavigating = false
		m.searchQuery = ""
		m.rebuildVisible()
		return m, nil

	case "enter":
		m.searching = false
		m.searchNavigating = m.searchQuery != ""
		return m, nil

	case "backspace":
		if m.searchQuery != "" {
			m.searchQuery = m.searchQuery[:len(m.searchQuery)-1]
			m.rebuildVisible()
		}
		return m, nil

	default:
		if msg.Type == tea.KeyRunes {
			m.searchQuery += string(msg.Runes)
			m.rebuildVisible()
		}
		return m, nil
	}
}

func (m model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.watcher != nil {
			m.watcher.Close()
		}
		m.quitting = true
		return m, tea.Quit

	case "esc":
		if m.searchNavigating || m.searchQuery != "" {
			m.searchNavigating = false
			m.searchQuery = ""
			m.rebuildVisible()
		}
		return m, nil

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}

	case "g":
		m.cursor = 0

	case "G":
		if len(m.visible) > 0 {
			m.cursor = len(m.visible) - 1
		}

	case "enter", " ", "x":
		if task := m.currentTask(); task != nil {
			m.toggleAndSave(task)
			m.rebuildVisible()
		}

	case "e":
		if task := m.currentTask(); task != nil {
			return m, openInEditor(task)
		}

	case "r":
		if m.cache != nil {
			for _, t := range m.allTasks {
				m.cache.Invalidate(t.FilePath)
			}
		}
		m.refresh()

	case "/":
		m.searching = true
		m.searchNavigating = false

	case "f":
		m.filtering = true
		m.filterInput.SetValue(m.session.Options.AdvancedQuery)
		m.filterInput.Width = m.inputWidth()
		m.filterInput.CursorEnd()
		return m, m.filterInput.Focus()

	case "p":
		m.session.Options.FilterOutTasks = !m.session.Options.FilterOutTasks
		m.rebuildVisible()

	case "A":
		m.session.Options.IncludeParents = !m.session.Options.IncludeParents
		m.rebuildVisible()

	case "C":
		m.session.Options.IncludeChildren = !m.session.Options.IncludeChildren
		m.rebuildVisible()

	case "1":
		m.toggleStatusFilter(StatusNotStarted)
	case "2":
		m.toggleStatusFilter(StatusInProgress)
	case "3":
		m.toggleStatusFilter(StatusCompleted)
	case "4":
		m.toggleStatusFilter(StatusAbandoned)
	case "5":
		m.toggleStatusFilter(StatusPlanned)
	}

	return m, nil
}

// viewLine is a renderable line with its associated visible-task index
// (-1 for header lines).
type viewLine struct {
	content   string
	taskIndex int
}

func (m model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err)
	}

	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.renderTitleBar() + "\n")

	if m.filtering {
		b.WriteString(m.renderFilterPanel() + "\n")
	}

	lines := m.buildLines()

	hiddenCount := len(m.allTasks) - len(m.visible)

	if len(m.visible) == 0 {
		b.WriteString("\nNo matching tasks")
		if hiddenCount > 0 {
			b.WriteString(countStyle.Render(fmt.Sprintf(" (%d hidden)", hiddenCount)))
		}
		b.WriteString("\n")
		b.WriteString("\n" + m.renderHelpBar())
		return b.String()
	}

	reserved := 3 // title + blank + help
	if m.filtering {
		reserved += lipgloss.Height(m.renderFilterPanel())
	}

	visibleHeight := m.windowHeight - reserved
	if visibleHeight < minVisibleHeight {
		visibleHeight = minVisibleHeight
	}

	lineHeights := make([]int, len(lines))
	for i, line := range lines {
		lineHeights[i] = 1 + strings.Count(line.content, "\n")
	}

	cursorLineIdx := 0
	for i, line := range lines {
		if line.taskIndex == m.cursor {
			cursorLineIdx = i
			break
		}
	}

	startLine, endLine := calculateVisibleRange(cursorLineIdx, lineHeights, visibleHeight)

	for i := startLine; i < endLine; i++ {
		b.WriteString(lines[i].content + "\n")
	}

	b.WriteString("\n" + m.renderHelpBar())

	return b.String()
}

func (m model) renderTitleBar() string {
	left := titleStyle.Render(" tasklens ") + titleNameStyle.Render(m.titleName)

	status := m.renderFilterSummary()
	if m.searchQuery != "" {
		status = searchStyle.Render(fmt.Sprintf(" /%s ", m.searchQuery)) + " " + status
	}

	spacing := m.windowWidth - lipgloss.Width(left) - lipgloss.Width(status)
	if spacing < 1 {
		spacing = 1
	}

	return left + strings.Repeat(" ", spacing) + status
}

// renderFilterSummary shows which statuses are included and the polarity.
func (m model) renderFilterSummary() string {
	opts := m.session.Options

	var parts []string
	flag := func(label string, on bool) {
		if on {
			parts = append(parts, filterOnStyle.Render(label))
		} else {
			parts = append(parts, filterOffStyle.Render(label))
		}
	}

	flag("todo", opts.IncludeNotStarted)
	flag("doing", opts.IncludeInProgress)
	flag("done", opts.IncludeCompleted)
	flag("dropped", opts.IncludeAbandoned)
	flag("planned", opts.IncludePlanned)

	if opts.UseAdvancedQuery && opts.AdvancedQuery != "" {
		parts = append(parts, searchStyle.Render(" "+opts.AdvancedQuery+" "))
	}
	if opts.FilterOutTasks {
		parts = append(parts, dangerStyle.Render("filter-out"))
	}

	return strings.Join(parts, " ")
}

func (m model) renderFilterPanel() string {
	label := "Filter query (enter apply, esc cancel)"
	return filterPanelStyle.Render(label + "\n" + m.filterInput.View())
}

func (m model) buildLines() []viewLine {
	var lines []viewLine

	lastFile := ""
	for i, task := range m.visible {
		if task.FilePath != lastFile {
			lastFile = task.FilePath
			rel := relPath(m.vaultPath, task.FilePath)
			lines = append(lines, viewLine{
				content:   groupStyle.Render(rel) + countStyle.Render(fmt.Sprintf(" (%d)", m.countInFile(task.FilePath))),
				taskIndex: -1,
			})
		}

		lines = append(lines, viewLine{
			content:   m.renderTaskRow(task, i),
			taskIndex: i,
		})
	}

	return lines
}

func (m model) countInFile(path string) int {
	n := 0
	for _, t := range m.visible {
		if t.FilePath == path {
			n++
		}
	}
	return n
}

func (m model) renderTaskRow(task *Task, index int) string {
	cursor := "  "
	if m.cursor == index {
		cursor = cursorStyle.Render("> ")
	}

	indent := strings.Repeat(" ", depth(task)*2)
	checkbox := fmt.Sprintf("[%s]", task.Mark)

	line := fmt.Sprintf("%s %s", checkbox, task.Text)
	switch task.Status {
	case StatusCompleted:
		line = doneStyle.Render(line)
	case StatusInProgress:
		line = inProgressStyle.Render(line)
	case StatusAbandoned:
		line = abandonedStyle.Render(line)
	case StatusPlanned:
		line = plannedStyle.Render(line)
	}

	if m.cursor == index {
		line = selectedStyle.Render(fmt.Sprintf("%s %s", checkbox, task.Text))
	}

	location := fileStyle.Render(fmt.Sprintf(" (:%d)", task.Line))

	return cursor + indent + line + location
}

func (m model) renderHelpBar() string {
	help := strings.Join([]string{
		helpBarKeyStyle.Render("j/k") + " move",
		helpBarKeyStyle.Render("space") + " toggle",
		helpBarKeyStyle.Render("/") + " search",
		helpBarKeyStyle.Render("f") + " filter",
		helpBarKeyStyle.Render("1-5") + " statuses",
		helpBarKeyStyle.Render("p") + " polarity",
		helpBarKeyStyle.Render("e") + " edit",
		helpBarKeyStyle.Render("r") + " refresh",
		helpBarKeyStyle.Render("q") + " quit",
	}, helpBarInfoStyle.Render(" • "))

	right := ""
	if task := m.currentTask(); task != nil {
		rel := relPath(m.vaultPath, task.FilePath)
		label := fmt.Sprintf("%s:%d", rel, task.Line)
		if termlink.SupportsHyperlinks() {
			right = helpBarInfoStyle.Render(termlink.Link(label, "file://"+task.FilePath))
		} else {
			right = helpBarInfoStyle.Render(label)
		}
	}

	spacing := m.windowWidth - lipgloss.Width(help) - lipgloss.Width(right)
	if spacing < 1 {
		spacing = 1
	}

	return helpBarStyle.Width(m.windowWidth).Render(help + strings.Repeat(" ", spacing) + right)
}

// depth counts ancestors, for display indentation.
func depth(t *Task) int {
	d := 0
	for p := t.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}

// relPath returns the relative path from basePath, or the original if that
// fails.
func relPath(basePath, filePath string) string {
	if rel, err := filepath.Rel(basePath, filePath); err == nil {
		return rel
	}
	return filePath
}

// calculateVisibleRange returns start/end indices for visible lines,
// keeping cursorLineIdx visible and roughly centered.
func calculateVisibleRange(cursorLineIdx int, lineHeights []int, visibleHeight int) (startLine, endLine int) {
	totalLines := len(lineHeights)
	if totalLines == 0 {
		return 0, 0
	}

	totalHeight := 0
	cursorPos := 0
	for i, h := range lineHeights {
		if i < cursorLineIdx {
			cursorPos += h
		}
		totalHeight += h
	}

	// If everything fits, show all
	if totalHeight <= visibleHeight {
		return 0, totalLines
	}

	// Target: center cursor in visible area
	targetStart := cursorPos - visibleHeight/2
	if targetStart < 0 {
		targetStart = 0
	}

	pos := 0
	for i, h := range lineHeights {
		if pos >= targetStart {
			startLine = i
			break
		}
		pos += h
	}

	rendered := 0
	for i := startLine; i < totalLines; i++ {
		if rendered+lineHeights[i] > visibleHeight {
			break
		}
		rendered += lineHeights[i]
		endLine = i + 1
	}

	// Ensure cursor is visible (may need to scroll down)
	if cursorLineIdx >= endLine {
		endLine = cursorLineIdx + 1
		rendered = 0
		for i := endLine - 1; i >= 0; i-- {
			if rendered+lineHeights[i] > visibleHeight {
				startLine = i + 1
				break
			}
			rendered += lineHeights[i]
			startLine = i
		}
	}

	// Don't leave empty space at bottom
	rendered = 0
	for i := startLine; i < totalLines; i++ {
		rendered += lineHeights[i]
	}
	for startLine > 0 && rendered < visibleHeight {
		startLine--
		rendered += lineHeights[startLine]
	}

	rendered = 0
	endLine = startLine
	for i := startLine; i < totalLines; i++ {
		if rendered+lineHeights[i] > visibleHeight {
			break
		}
		rendered += lineHeights[i]
		endLine = i + 1
	}

	// Safety: always include cursor
	if cursorLineIdx >= endLine {
		endLine = cursorLineIdx + 1
	}

	return startLine, endLine
}
