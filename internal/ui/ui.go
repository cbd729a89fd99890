// Package ui provides terminal rendering helpers for logbook output.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

// RenderAccent highlights a primary value or symbol.
func RenderAccent(s string) string { return accentStyle.Render(s) }

// RenderSuccess marks an operation that completed cleanly.
func RenderSuccess(s string) string { return successStyle.Render(s) }

// RenderWarn marks a degraded but non-fatal condition.
func RenderWarn(s string) string { return warnStyle.Render(s) }

// RenderError marks a failure.
func RenderError(s string) string { return errorStyle.Render(s) }

// RenderMuted de-emphasizes supporting detail.
func RenderMuted(s string) string { return mutedStyle.Render(s) }

// RenderHeader styles a section heading.
func RenderHeader(s string) string { return headerStyle.Render(s) }
