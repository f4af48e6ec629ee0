package logging

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// CharmAdapter implements Logger on top of charmbracelet/log for terminal
// output in the CLI.
type CharmAdapter struct {
	*log.Logger
}

// NewCharmAdapter creates a human readable logger writing to w. Timestamps
// are omitted; prefix is shown before every message when non-empty.
func NewCharmAdapter(w io.Writer, level LogLevel, prefix string) *CharmAdapter {
	l := log.NewWithOptions(w, log.Options{Prefix: prefix})
	l.SetTimeFormat("")
	l.SetLevel(charmLevel(level))

	styles := log.DefaultStyles()
	styles.Keys["error"] = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styles.Values["error"] = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	styles.Keys["session_id"] = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	l.SetStyles(styles)

	return &CharmAdapter{Logger: l}
}

// Debug logs a debug message.
func (c *CharmAdapter) Debug(msg string, args ...any) { c.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (c *CharmAdapter) Info(msg string, args ...any) { c.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (c *CharmAdapter) Warn(msg string, args ...any) { c.Logger.Warn(msg, args...) }

// Error logs an error message.
func (c *CharmAdapter) Error(msg string, args ...any) { c.Logger.Error(msg, args...) }

func charmLevel(l LogLevel) log.Level {
	switch l {
	case LogLevelDebug:
		return log.DebugLevel
	case LogLevelWarn:
		return log.WarnLevel
	case LogLevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
