// Package output provides consistent CLI output formatting with colors and step indicators.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/Aman-CERP/pluginkit/internal/ui"
)

// Writer provides formatted output for CLI.
type Writer struct {
	out    io.Writer
	styles ui.Styles
}

// Option configures a Writer.
type Option func(*Writer)

// WithColor enables lipgloss styling.
func WithColor(enabled bool) Option {
	return func(w *Writer) {
		w.styles = ui.GetStyles(!enabled)
	}
}

// New creates a new output Writer. Color is off unless WithColor(true) is given.
func New(out io.Writer, opts ...Option) *Writer {
	w := &Writer{
		out:    out,
		styles: ui.NoColorStyles(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Styles returns the styles the writer renders with.
func (w *Writer) Styles() ui.Styles {
	return w.styles
}

// Out returns the underlying io.Writer.
func (w *Writer) Out() io.Writer {
	return w.out
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", w.styles.Success.Render(msg))
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", w.styles.Warning.Render(msg))
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", w.styles.Error.Render(msg))
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Info prints an indented plain line.
func (w *Writer) Info(msg string) {
	w.Status("", msg)
}

// Infof prints a formatted indented plain line.
func (w *Writer) Infof(format string, args ...any) {
	w.Info(fmt.Sprintf(format, args...))
}

// Header prints a bold section header.
func (w *Writer) Header(msg string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Header.Render(msg))
}

// Step prints a "[current/total] msg" progress line.
func (w *Writer) Step(current, total int, msg string) {
	if total <= 0 {
		return
	}
	label := w.styles.Label.Render(fmt.Sprintf("[%d/%d]", current, total))
	_, _ = fmt.Fprintf(w.out, "%s %s\n", label, msg)
}

// Code prints a code block with indentation.
func (w *Writer) Code(content string) {
	_, _ = fmt.Fprintln(w.out)
	for _, line := range strings.Split(content, "\n") {
		_, _ = fmt.Fprintf(w.out, "  %s\n", w.styles.Code.Render(line))
	}
	_, _ = fmt.Fprintln(w.out)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}
