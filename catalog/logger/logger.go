package logger

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorPurple = "\033[35m"
	colorWhite  = "\033[37m"
)

type LogType string

const (
	TypeSync   LogType = "SYNC"
	TypeDB     LogType = "DB"
	TypeHTTP   LogType = "HTTP"
	TypeSystem LogType = "SYS"
	TypeError  LogType = "ERR"
)

type CustomHandler struct {
	tag       string
	opts      *slog.HandlerOptions
	startTime time.Time
	attrs     []slog.Attr
	groups    []string
}

func NewHandler(tag string, level slog.Level) *CustomHandler {
	return &CustomHandler{
		tag:       tag,
		opts:      &slog.HandlerOptions{Level: level},
		startTime: time.Now(),
		attrs:     make([]slog.Attr, 0),
		groups:    make([]string, 0),
	}
}

func (h *CustomHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *CustomHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CustomHandler{
		tag:       h.tag,
		opts:      h.opts,
		startTime: h.startTime,
		attrs:     append(h.attrs, attrs...),
		groups:    h.groups,
	}
}

func (h *CustomHandler) WithGroup(name string) slog.Handler {
	return &CustomHandler{
		tag:       h.tag,
		opts:      h.opts,
		startTime: h.startTime,
		attrs:     h.attrs,
		groups:    append(h.groups, name),
	}
}

func (h *CustomHandler) Handle(_ context.Context, r slog.Record) error {
	if shouldSkipLog(&r) {
		return nil
	}

	timestamp := time.Now().Format("15:04:05")

	var levelColor, levelText string
	switch r.Level {
	case slog.LevelDebug:
		levelColor = colorPurple
		levelText = "DEBUG"
	case slog.LevelInfo:
		levelColor = colorGreen
		levelText = "INFO"
	case slog.LevelWarn:
		levelColor = colorYellow
		levelText = "WARN"
	case slog.LevelError:
		levelColor = colorRed
		levelText = "ERROR"
	}

	logType := h.getLogType(&r)
	status := h.getStatus(&r)
	errorDetails := h.getErrorDetails(&r)
	errorLocation := h.getErrorLocation(&r)
	took := h.getTook(&r)

	message := r.Message
	if r.Level == slog.LevelError {
		if errorLocation != "" {
			message = fmt.Sprintf("%s (%s)", message, errorLocation)
		}
		if errorDetails != "" {
			message = fmt.Sprintf("%s: %s", message, errorDetails)
		}
	}

	if status != "" {
		message = fmt.Sprintf("%s [Status: %s]", message, status)
	}

	if took > 0 {
		message = fmt.Sprintf("%s (took %s)", message, took)
	}

	var attrsStr string
	for _, attr := range h.attrs {
		if !isInternalAttr(attr.Key) {
			attrsStr += fmt.Sprintf(" %s=%v", attr.Key, attr.Value)
		}
	}
	r.Attrs(func(a slog.Attr) bool {
		if !isInternalAttr(a.Key) {
			attrsStr += fmt.Sprintf(" %s=%v", a.Key, a.Value)
		}
		return true
	})

	fmt.Printf("%s[%s] [%s] [%s%s%s] [%s] %s%s%s\n",
		colorWhite,
		h.tag,
		timestamp,
		levelColor,
		levelText,
		colorWhite,
		logType,
		message,
		attrsStr,
		colorReset,
	)

	return nil
}

func shouldSkipLog(r *slog.Record) bool {
	// Pool and driver chatter that drowns out the run logs.
	skippedMessages := []string{
		"acquiring connection",
		"releasing connection",
		"connection pool stats",
		"prepared statement cache",
	}

	for _, skip := range skippedMessages {
		if strings.Contains(strings.ToLower(r.Message), skip) {
			return true
		}
	}

	return false
}

// lookupAttr finds an attribute on the record or, failing that, among the
// handler-level attrs accumulated through WithAttrs. Record attrs win.
func (h *CustomHandler) lookupAttr(r *slog.Record, key string) (slog.Value, bool) {
	var val slog.Value
	found := false
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			val = a.Value
			found = true
			return false
		}
		return true
	})
	if found {
		return val, true
	}
	for _, a := range h.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return val, false
}

func (h *CustomHandler) getLogType(r *slog.Record) LogType {
	val, ok := h.lookupAttr(r, "type")
	if !ok {
		return TypeSystem
	}
	switch val.String() {
	case "sync":
		return TypeSync
	case "db":
		return TypeDB
	case "http":
		return TypeHTTP
	case "error":
		return TypeError
	}
	return TypeSystem
}

func getSourceLocation() (string, int) {
	_, file, line, ok := runtime.Caller(3)
	if !ok {
		return "", 0
	}
	return filepath.Base(file), line
}

func isInternalAttr(key string) bool {
	internal := []string{"type", "status", "error", "error_location", "took"}
	for _, k := range internal {
		if k == key {
			return true
		}
	}
	return false
}

func (h *CustomHandler) getStatus(r *slog.Record) string {
	if val, ok := h.lookupAttr(r, "status"); ok {
		return val.String()
	}
	return ""
}

func (h *CustomHandler) getTook(r *slog.Record) time.Duration {
	if val, ok := h.lookupAttr(r, "took"); ok {
		return val.Duration()
	}
	return 0
}

func (h *CustomHandler) getErrorDetails(r *slog.Record) string {
	if val, ok := h.lookupAttr(r, "error"); ok {
		return fmt.Sprintf("%v", val)
	}
	return ""
}

func (h *CustomHandler) getErrorLocation(r *slog.Record) string {
	if val, ok := h.lookupAttr(r, "error_location"); ok {
		return val.String()
	}
	if r.Level == slog.LevelError {
		if file, line := getSourceLocation(); file != "" {
			return fmt.Sprintf("%s:%d", file, line)
		}
	}
	return ""
}
