// Package ui provides helpers for formatting human-readable console output.
//
// ConsoleCommandEventLogger translates GitHub CLI lifecycle events into concise
// log lines, and Palette carries the lipgloss styles used by forker reports.
package ui
