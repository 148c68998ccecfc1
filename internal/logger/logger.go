package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the application-wide logger type, aliased to zerolog.Logger.
// Other packages depend on secdash/internal/logger instead of importing zerolog directly.
type Logger = zerolog.Logger

// Event is an alias for zerolog.Event to allow building log entries without importing zerolog.
type Event = zerolog.Event

// Options selects where and how log lines are written.
type Options struct {
	Level    string
	Format   string
	Output   string
	FilePath string
}

const consoleTimeFormat = "2006-01-02 15:04:05"

// Init configures the global logger. Invalid or unusable settings degrade to a
// stdout console writer at info level and are reported once the logger is live.
func Init(opts Options) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	outputMode := strings.ToLower(strings.TrimSpace(opts.Output))
	if outputMode == "" {
		outputMode = "stdout"
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}
	logFilePath := strings.TrimSpace(opts.FilePath)

	stdoutEnabled := outputMode == "stdout" || outputMode == "both"
	fileEnabled := outputMode == "file" || outputMode == "both"

	writers := make([]io.Writer, 0, 2)
	deferredWarnings := make([]string, 0, 2)

	if stdoutEnabled {
		writers = append(writers, formatWriter(os.Stdout, format))
	}
	if fileEnabled {
		if logFilePath == "" {
			deferredWarnings = append(deferredWarnings, "LOG_OUTPUT requires a file but LOG_FILE_PATH is not set; disabling file logging")
		} else {
			file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				deferredWarnings = append(deferredWarnings, fmt.Sprintf("Failed to open log file '%s', disabling file logging: %v", logFilePath, err))
			} else {
				writers = append(writers, formatWriter(file, format))
			}
		}
	}
	if len(writers) == 0 {
		writers = append(writers, formatWriter(os.Stdout, "console"))
		deferredWarnings = append(deferredWarnings, "No valid log output configured, falling back to stdout console")
		stdoutEnabled = true
		fileEnabled = false
		logFilePath = ""
	}

	var output io.Writer
	if len(writers) == 1 {
		output = writers[0]
	} else {
		output = zerolog.MultiLevelWriter(writers...)
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || opts.Level == "" {
		if opts.Level != "" {
			deferredWarnings = append(deferredWarnings, fmt.Sprintf("Invalid log level %q, defaulting to 'info'", opts.Level))
		}
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(output).Level(lvl).With().Timestamp().Logger()

	for _, msg := range deferredWarnings {
		log.Warn().Msg(msg)
	}

	log.Info().
		Str("level", zerolog.GlobalLevel().String()).
		Str("output_mode", outputMode).
		Str("format", format).
		Bool("stdout_enabled", stdoutEnabled).
		Bool("file_enabled", fileEnabled).
		Str("log_file_path", logFilePath).
		Msg("Logger initialized")
}

func formatWriter(out io.Writer, format string) io.Writer {
	if format == "json" {
		return out
	}
	return zerolog.ConsoleWriter{Out: out, TimeFormat: consoleTimeFormat}
}

// Get returns a pointer to the configured logger instance
func Get() *zerolog.Logger {
	return &log.Logger
}

// SetOutput redirects log output, typically to a buffer during tests.
func SetOutput(w io.Writer) {
	log.Logger = log.Output(w)
}

// HTTPEvent logs HTTP request events with standardized fields.
func HTTPEvent(method, path string, status int, durationMs float64) *zerolog.Event {
	return log.Info().
		Str("event_category", "http").
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Float64("duration_ms", durationMs)
}

// HTTPError logs HTTP error events.
func HTTPError(method, path string, status int, err error) *zerolog.Event {
	return log.Error().
		Str("event_category", "http").
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Err(err)
}

// LocaleEvent logs dictionary load outcomes. Failures are logged at error level.
func LocaleEvent(language string, err error) *zerolog.Event {
	event := log.Debug()
	if err != nil {
		event = log.Error().Err(err)
	}
	return event.
		Str("event_category", "locale").
		Str("language", language)
}

// BackendEvent logs calls made to the external backend.
func BackendEvent(operation string, status int, err error) *zerolog.Event {
	event := log.Debug()
	if err != nil {
		event = log.Warn().Err(err)
	}
	return event.
		Str("event_category", "backend").
		Str("operation", operation).
		Int("status", status)
}

// PanicEvent logs panic recovery events.
func PanicEvent(err interface{}, stack string) *zerolog.Event {
	return log.Error().
		Str("event_category", "panic").
		Interface("error", err).
		Str("stack", stack)
}
