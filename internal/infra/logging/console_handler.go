package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
)

const (
	ansiCodeReset     = "\033[0m"
	ansiCodeRed       = "\033[31m"
	ansiCodeGreen     = "\033[32m"
	ansiCodeYellow    = "\033[33m"
	ansiCodeCyan      = "\033[36m"
	ansiCodeGray      = "\033[90m"
	ansiCodeUnderline = "\033[4m"
)

//nolint:gochecknoglobals
var ansiCodeMap = map[slog.Level]string{
	slog.LevelDebug: ansiCodeCyan,
	slog.LevelInfo:  ansiCodeGreen,
	slog.LevelWarn:  ansiCodeYellow,
	slog.LevelError: ansiCodeRed,
}

// ConsoleHandler renders records as colored single lines followed by the caller,
// for reading logs in a terminal during development.
type ConsoleHandler struct {
	// Output receives the rendered lines.
	Output io.Writer
	// Level is the minimum level of loggers without a PkgLevels entry.
	Level slog.Leveler
	// PkgLevels maps logger name prefixes to their minimum level.
	PkgLevels map[string]slog.Level

	attrs  []slog.Attr
	groups []string
	mu     *sync.Mutex
}

var _ slog.Handler = (*ConsoleHandler)(nil)

// Handle implements slog.Handler.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, r.NumAttrs()+len(h.attrs))

	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)

		return true
	})

	attrs = append(attrs, h.attrs...)

	var name string

	for _, attr := range attrs {
		if attr.Key == LoggerNameKey {
			name = attr.Value.String()

			break
		}
	}

	if r.Level < h.minLevel(name) {
		return nil
	}

	var line strings.Builder

	line.WriteString(ansiCodeGray + r.Time.Format("15:04:05.000000") + ansiCodeReset)
	line.WriteString(" " + ansiCodeMap[r.Level] + "[" + r.Level.String() + "]" + ansiCodeReset)
	line.WriteString(" " + r.Message)

	if len(attrs) > 0 {
		var prefix string
		if len(h.groups) > 0 {
			prefix = strings.Join(h.groups, ".") + "."
		}

		line.WriteString(" " + ansiCodeGray + "|" + ansiCodeReset)
		renderAttrs(&line, prefix, attrs)
	}

	if r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		fn := frame.Function[strings.LastIndex(frame.Function, string(os.PathSeparator))+1:]

		line.WriteString("\n-> " + ansiCodeGray + fn + "()")
		line.WriteString(" in " + ansiCodeUnderline + frame.File + ":" + strconv.Itoa(frame.Line) + ansiCodeReset)
	}

	if h.mu != nil {
		h.mu.Lock()
		defer h.mu.Unlock()
	}

	if _, err := fmt.Fprintln(h.Output, line.String()); err != nil {
		return fmt.Errorf("write log line: %w", err)
	}

	return nil
}

// minLevel resolves the level for a logger name by walking its dotted prefixes,
// "repo.content.sqlite" -> "repo.content" -> "repo" -> "".
func (h *ConsoleHandler) minLevel(name string) slog.Level {
	for key := name; ; {
		if level, ok := h.PkgLevels[key]; ok {
			return level
		}

		if key == "" {
			return h.Level.Level()
		}

		if i := strings.LastIndex(key, "."); i >= 0 {
			key = key[:i]
		} else {
			key = ""
		}
	}
}

func renderAttrs(out *strings.Builder, prefix string, attrs []slog.Attr) {
	for _, attr := range attrs {
		if attr.Value.Kind() == slog.KindGroup {
			renderAttrs(out, prefix+attr.Key+".", attr.Value.Group())

			continue
		}

		out.WriteString(" " + prefix + attr.Key)
		out.WriteString("=" + ansiCodeGray + attr.Value.String() + ansiCodeReset)
	}
}

// WithAttrs implements slog.Handler.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = slices.Concat(h.attrs, attrs)

	return &clone
}

// WithGroup implements slog.Handler.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.groups = slices.Concat(h.groups, []string{name})

	return &clone
}

// Enabled implements slog.Handler. A record below the default level is still
// admitted when some PkgLevels entry is lower; Handle makes the final call.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	if level >= h.Level.Level() {
		return true
	}

	for _, pkgLevel := range h.PkgLevels {
		if level >= pkgLevel {
			return true
		}
	}

	return false
}
