package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/savioxavier/termlink"
	flag "github.com/spf13/pflag"
)

const debounceDelay = 300 * time.Millisecond

func main() {
	vaultPath := flag.String("vault", "", "Path to the markdown vault")
	profileName := flag.String("profile", "", "Profile name from config")
	queryFlag := flag.String("query", "", "Advanced filter query")
	listOnly := flag.Bool("list", false, "List tasks without the TUI")
	filterOut := flag.Bool("filter-out", false, "Hide matching tasks instead of showing only them")
	hideStatuses := flag.StringSlice("hide", nil, "Statuses to hide (completed, inProgress, abandoned, notStarted, planned)")
	withChildren := flag.Bool("with-children", false, "Keep children of matching tasks visible")
	noParents := flag.Bool("no-parents", false, "Do not keep ancestors of matching tasks visible")
	flag.Parse()

	cfg, cfgPath, err := loadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := validateConfig(cfg); err != nil {
		fmt.Printf("Error in config %s: %v\n", cfgPath, err)
		os.Exit(1)
	}

	name, profile, err := selectProfile(*profileName, cfg)
	if err != nil {
		fmt.Printf("Error: %v (config: %s)\n", err, cfgPath)
		os.Exit(1)
	}

	marks := cfg.StatusMarksOrDefault()

	opts, err := cfg.FilterOptionsOrDefault()
	if err != nil {
		fmt.Printf("Error in config %s: %v\n", cfgPath, err)
		os.Exit(1)
	}

	var resolved *ResolvedProfile
	if profile != nil {
		resolved, err = resolveProfilePaths(name, *profile)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}

	vault := ""
	titleName := name
	if resolved != nil {
		vault = resolved.VaultPath
		if opts.AdvancedQuery == "" && resolved.Query != "" {
			opts.AdvancedQuery = resolved.Query
			opts.UseAdvancedQuery = true
		}
	}

	if *vaultPath != "" {
		expanded, err := expandPath(*vaultPath)
		if err != nil {
			fmt.Printf("Error expanding vault path: %v\n", err)
			os.Exit(1)
		}
		vault = filepath.Clean(expanded)
		if r, err := filepath.EvalSymlinks(vault); err == nil {
			vault = r
		}
	}

	if vault == "" {
		usage(cfgPath)
		os.Exit(1)
	}
	if titleName == "" {
		titleName = filepath.Base(vault)
	}

	// Flags override config-level filter defaults.
	if *queryFlag != "" {
		opts.AdvancedQuery = *queryFlag
		opts.UseAdvancedQuery = true
	}
	opts.FilterOutTasks = opts.FilterOutTasks || *filterOut
	if *withChildren {
		opts.IncludeChildren = true
	}
	if *noParents {
		opts.IncludeParents = false
	}
	for _, s := range *hideStatuses {
		if err := hideStatus(&opts, s); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}

	initRenderer(cfg.Theme)

	files, allTasks, cache, err := RunWithLoader(vault, marks, true)
	if err != nil {
		fmt.Printf("Error scanning vault: %v\n", err)
		os.Exit(1)
	}

	session := NewFilterSession(marks, opts)

	if *listOnly {
		listTasks(session, allTasks, vault, len(files))
		return
	}

	watcher, err := NewWatcher(vault)
	if err != nil {
		fmt.Printf("Warning: file watching disabled: %v\n", err)
		watcher = nil
	}

	debouncer := NewDebouncer(debounceDelay)

	p := tea.NewProgram(
		newModel(session, allTasks, vault, titleName, cache, watcher, debouncer),
		tea.WithAltScreen(),
	)
	debouncer.SetProgram(p)

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

// listTasks prints the visible tasks grouped by file (non-interactive mode).
func listTasks(session *FilterSession, allTasks []*Task, vault string, fileCount int) {
	matched := session.Match(allTasks)

	var visible []*Task
	for _, t := range allTasks {
		if matched[t] != session.Options.FilterOutTasks {
			visible = append(visible, t)
		}
	}

	if len(visible) == 0 {
		fmt.Printf("No matching tasks (%d files scanned, %d tasks hidden).\n", fileCount, len(allTasks))
		return
	}

	fmt.Printf("Found %d task(s), %d hidden:\n", len(visible), len(allTasks)-len(visible))

	lastFile := ""
	for _, task := range visible {
		if task.FilePath != lastFile {
			lastFile = task.FilePath
			rel := relPath(vault, task.FilePath)
			if termlink.SupportsHyperlinks() {
				fmt.Printf("\n%s\n", termlink.Link(rel, "file://"+task.FilePath))
			} else {
				fmt.Printf("\n%s\n", rel)
			}
		}

		for i := 0; i < depth(task); i++ {
			fmt.Print("  ")
		}
		fmt.Printf("%s (:%d)\n", renderTaskLine(task), task.Line)
	}
}

func usage(cfgPath string) {
	fmt.Println("Usage: tasklens --vault <path> [--query <filter>] [--list]")
	fmt.Println("\nOptions:")
	fmt.Println("  --vault <path>     Path to the markdown vault (or set a profile)")
	fmt.Println("  --profile <name>   Use a profile from the config")
	fmt.Println("  --query <filter>   Advanced filter query")
	fmt.Println("  --list             Print matching tasks without the TUI")
	fmt.Println("  --filter-out       Hide matching tasks instead of showing only them")
	fmt.Println("  --hide <statuses>  Hide statuses (comma separated)")
	fmt.Println("\nFilter query language:")
	fmt.Println("  free text                  case-insensitive substring of the task text")
	fmt.Println("  #tag                       exact tag match (case-insensitive)")
	fmt.Println("  PRIORITY:<op><value>       e.g. PRIORITY:>=#B, PRIORITY:=highest, PRIORITY:>2")
	fmt.Println("  DATE:<op><value>           e.g. DATE:<2025-12-31, DATE:=today")
	fmt.Println("  AND / OR / NOT, (...)      boolean composition and grouping")
	fmt.Println("\nOperators: > < = >= <= !=   Dates: YYYY-MM-DD, DD.MM.YYYY, DD/MM/YYYY,")
	fmt.Println("today, tomorrow, yesterday")
	if cfgPath != "" {
		fmt.Println("\nConfig:")
		fmt.Printf("  %s\n", cfgPath)
		fmt.Println("  Define profiles with vault/query, [marks] to remap checkbox characters,")
		fmt.Println("  and [filter] for startup filter defaults.")
	}
}
