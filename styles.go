package main

import "github.com/charmbracelet/lipgloss"

// Unified color palette
var (
	primaryColor   = lipgloss.Color("109")
	accentColor    = lipgloss.Color("171")
	barBackground  = lipgloss.Color("233")
	mutedColor     = lipgloss.Color("239")
	subtleColor    = lipgloss.Color("244")
	warningColor   = lipgloss.Color("179")
	dangerColor    = lipgloss.Color("167")
	successColor   = lipgloss.Color("65")
	highlightColor = lipgloss.Color("171")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			Background(barBackground)

	titleNameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Background(barBackground)

	selectedStyle = lipgloss.NewStyle().
			Foreground(highlightColor).
			Bold(true)

	doneStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Strikethrough(true)

	abandonedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	inProgressStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	plannedStyle = lipgloss.NewStyle().
			Foreground(primaryColor)

	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	cursorStyle = lipgloss.NewStyle().
			Foreground(highlightColor)

	groupStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginTop(1)

	countStyle = lipgloss.NewStyle().
			Foreground(subtleColor)

	searchStyle = lipgloss.NewStyle().
			Foreground(highlightColor).
			Bold(true).
			Background(barBackground)

	filterPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(mutedColor).
				Padding(0, 1)

	filterOnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(successColor)

	filterOffStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	dangerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(dangerColor)

	// Help bar styles - persistent bottom bar
	helpBarStyle = lipgloss.NewStyle().
			Foreground(subtleColor).
			Background(barBackground)

	helpBarKeyStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	helpBarInfoStyle = lipgloss.NewStyle().
				Foreground(mutedColor)
)
