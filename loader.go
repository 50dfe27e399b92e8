package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Minimum time before showing the loading screen.
var loadingDelay = 200 * time.Millisecond

// ScanResult holds the final vault scan results.
type ScanResult struct {
	Files []string
	Tasks []*Task
	Cache *TaskCache
	Error error
}

// ScanProgress reports progress during vault scanning.
type ScanProgress struct {
	Phase       string // "scanning" or "extracting"
	CurrentFile string
	FilesFound  int
	FilesParsed int
	TasksFound  int
}

// scanProgressMsg is sent to update loading progress
type scanProgressMsg ScanProgress

// scanCompleteMsg is sent when scanning is complete
type scanCompleteMsg struct{}

// loaderModel handles the loading screen
type loaderModel struct {
	spinner      spinner.Model
	progress     ScanProgress
	windowWidth  int
	windowHeight int
	startTime    time.Time
	showLoader   bool
}

func newLoaderModel() loaderModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accentColor)

	return loaderModel{
		spinner:   s,
		startTime: time.Now(),
	}
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		tea.WindowSize(),
	)
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if !m.showLoader && time.Since(m.startTime) > loadingDelay {
			m.showLoader = true
		}
		return m, cmd

	case scanProgressMsg:
		m.progress = ScanProgress(msg)
		if !m.showLoader && time.Since(m.startTime) > loadingDelay {
			m.showLoader = true
		}
		return m, nil

	case scanCompleteMsg:
		return m, tea.Quit
	}

	return m, nil
}

func (m loaderModel) View() string {
	if !m.showLoader {
		return ""
	}

	var b strings.Builder

	loaderTitle := lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	dim := lipgloss.NewStyle().Foreground(mutedColor)
	count := lipgloss.NewStyle().Foreground(highlightColor)

	b.WriteString(loaderTitle.Render("tasklens") + " ")
	b.WriteString(m.spinner.View() + " ")

	switch m.progress.Phase {
	case "scanning":
		b.WriteString("Scanning vault...")
		if m.progress.FilesFound > 0 {
			b.WriteString(count.Render(fmt.Sprintf(" %d files", m.progress.FilesFound)))
		}
	case "extracting":
		b.WriteString("Extracting tasks...")
		if m.progress.FilesParsed > 0 && m.progress.FilesFound > 0 {
			pct := float64(m.progress.FilesParsed) / float64(m.progress.FilesFound) * 100
			b.WriteString(count.Render(fmt.Sprintf(" %d/%d", m.progress.FilesParsed, m.progress.FilesFound)))
			b.WriteString(dim.Render(fmt.Sprintf(" (%.0f%%)", pct)))
		}
		if m.progress.TasksFound > 0 {
			b.WriteString(dim.Render(fmt.Sprintf(" • %d tasks", m.progress.TasksFound)))
		}
	default:
		b.WriteString("Loading...")
	}

	if m.progress.CurrentFile != "" {
		file := m.progress.CurrentFile
		maxLen := m.windowWidth - 40
		if maxLen < 20 {
			maxLen = 20
		}
		if len(file) > maxLen {
			file = "..." + file[len(file)-maxLen+3:]
		}
		b.WriteString("\n" + dim.Render(file))
	}

	content := b.String()
	return lipgloss.Place(m.windowWidth, m.windowHeight, lipgloss.Center, lipgloss.Center, content)
}

// RunWithLoader scans the vault and extracts tasks in the background,
// showing a progress screen only when the scan takes noticeable time.
func RunWithLoader(vaultPath string, marks StatusMarks, useCache bool) ([]string, []*Task, *TaskCache, error) {
	var result ScanResult
	var mu sync.Mutex
	done := make(chan struct{})
	progress := make(chan ScanProgress, 10)

	go func() {
		defer close(done)
		defer close(progress)

		progress <- ScanProgress{Phase: "scanning"}

		files, err := scanVault(vaultPath)
		if err != nil {
			mu.Lock()
			result.Error = err
			mu.Unlock()
			return
		}

		mu.Lock()
		result.Files = files
		mu.Unlock()

		progress <- ScanProgress{Phase: "scanning", FilesFound: len(files)}

		var cache *TaskCache
		if useCache {
			cache = NewTaskCache()
		}

		var allTasks []*Task
		for i, file := range files {
			select {
			case progress <- ScanProgress{
				Phase:       "extracting",
				FilesFound:  len(files),
				FilesParsed: i,
				TasksFound:  len(allTasks),
				CurrentFile: file,
			}:
			default:
				// Don't block if channel is full
			}

			tasks, err := parseFile(file, marks)
			if err != nil {
				continue
			}
			if cache != nil {
				cache.Set(file, tasks)
			}
			allTasks = append(allTasks, tasks...)
		}

		mu.Lock()
		result.Tasks = allTasks
		result.Cache = cache
		mu.Unlock()
	}()

	// Fast path: scanning finished before the loader would show.
	select {
	case <-done:
	case <-time.After(loadingDelay):
		// The scan keeps running if the user quits the loading screen
		// early, so wait for completion either way.
		showProgress(done, progress)
		<-done
	}

	mu.Lock()
	defer mu.Unlock()
	return result.Files, result.Tasks, result.Cache, result.Error
}

// showProgress runs the loading screen until the scan completes or the
// user quits it. Swapped in tests.
var showProgress = func(done <-chan struct{}, progress <-chan ScanProgress) {
	m := newLoaderModel()
	p := tea.NewProgram(m, tea.WithAltScreen())

	go func() {
		for prog := range progress {
			p.Send(scanProgressMsg(prog))
		}
	}()

	go func() {
		<-done
		p.Send(scanCompleteMsg{})
	}()

	p.Run()
}
