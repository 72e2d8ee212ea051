// Package logger provides the service's structured logging: JSON lines to
// stdout when not attached to a TTY, colorized human-readable output
// otherwise. Access log lines for MCP tool calls carry type:"access" plus
// the full request-context fields (§4.9, §6).
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Level mirrors the LOG_LEVEL environment variable.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func parseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

var (
	mu       sync.RWMutex
	verbose  bool
	output   io.Writer = os.Stdout
	minLevel           = LevelInfo
	colorize           = term.IsTerminal(int(os.Stdout.Fd()))
)

var (
	debugStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	sectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("105")).Bold(true)
)

// Init configures the logger's minimum level from LOG_LEVEL-style strings
// and enables verbose (debug) output when verboseFlag is true.
func Init(levelName string, verboseFlag bool) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = parseLevel(levelName)
	verbose = verboseFlag
}

// SetVerbose enables or disables debug-level logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether debug-level logging is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose || minLevel == LevelDebug
}

// SetOutput sets the destination writer. Useful for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// SetColor forces colorized (true) or JSON (false) output, overriding the
// automatic TTY detection. Useful for tests.
func SetColor(c bool) {
	mu.Lock()
	defer mu.Unlock()
	colorize = c
}

func enabled(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	if l == LevelDebug {
		return verbose || minLevel == LevelDebug
	}
	return l >= minLevel
}

func emit(level Level, msg string) {
	mu.RLock()
	w := output
	useColor := colorize
	mu.RUnlock()

	if useColor {
		var style lipgloss.Style
		switch level {
		case LevelDebug:
			style = debugStyle
		case LevelWarn:
			style = warnStyle
		case LevelError:
			style = errorStyle
		default:
			style = infoStyle
		}
		fmt.Fprintf(w, "%s %s\n", style.Render("["+level.String()+"]"), msg)
		return
	}

	line := map[string]any{
		"level": level.String(),
		"msg":   msg,
		"time":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(line)
	if err != nil {
		fmt.Fprintln(w, msg)
		return
	}
	w.Write(append(data, '\n')) //nolint:errcheck
}

// Debug logs a debug-level message. Suppressed unless verbose/debug level.
func Debug(format string, args ...any) {
	if !enabled(LevelDebug) {
		return
	}
	emit(LevelDebug, fmt.Sprintf(format, args...))
}

// Info logs an informational message.
func Info(format string, args ...any) {
	if !enabled(LevelInfo) {
		return
	}
	emit(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn logs a warning message.
func Warn(format string, args ...any) {
	if !enabled(LevelWarn) {
		return
	}
	emit(LevelWarn, fmt.Sprintf(format, args...))
}

// Error logs an error-level message.
func Error(format string, args ...any) {
	if !enabled(LevelError) {
		return
	}
	emit(LevelError, fmt.Sprintf(format, args...))
}

// Section prints a section header, used for verbose pipeline tracing.
func Section(name string) {
	if !enabled(LevelDebug) {
		return
	}
	mu.RLock()
	w := output
	useColor := colorize
	mu.RUnlock()

	if useColor {
		fmt.Fprintf(w, "\n%s\n", sectionStyle.Render("=== "+name+" ==="))
		return
	}
	emit(LevelDebug, "=== "+name+" ===")
}

// AccessFields are the ambient request-context fields every tool-call
// access log line carries, plus the outcome of the call.
type AccessFields struct {
	RequestID   string
	SessionID   string
	ProductID   string
	ClientInfo  string
	ClientIP    string
	DurationMS  int64
	ResultCount int
	Err         string
}

// Access emits a single structured log line for one MCP tool invocation.
func Access(f AccessFields) {
	mu.RLock()
	w := output
	useColor := colorize
	mu.RUnlock()

	if useColor {
		status := infoStyle.Render("ok")
		if f.Err != "" {
			status = errorStyle.Render("error: " + f.Err)
		}
		fmt.Fprintf(w, "%s product=%s session=%s request=%s duration=%dms results=%d %s\n",
			sectionStyle.Render("[access]"), f.ProductID, f.SessionID, f.RequestID, f.DurationMS, f.ResultCount, status)
		return
	}

	line := map[string]any{
		"type":         "access",
		"request_id":   f.RequestID,
		"session_id":   f.SessionID,
		"product_id":   f.ProductID,
		"client_info":  f.ClientInfo,
		"client_ip":    f.ClientIP,
		"duration_ms":  f.DurationMS,
		"result_count": f.ResultCount,
		"time":         time.Now().UTC().Format(time.RFC3339Nano),
	}
	if f.Err != "" {
		line["error"] = f.Err
	}
	data, err := json.Marshal(line)
	if err != nil {
		return
	}
	w.Write(append(data, '\n')) //nolint:errcheck
}
