package log

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
)

func (l *BaseLogger) log(level Level, msg string, fields ...Field) {
	if level < l.level {
		return
	}
	entry := &Entry{
		Level:     level,
		Message:   msg,
		Fields:    fieldsFrom(l.fields, fields),
		Timestamp: nowFunc(),
	}
	formatted, err := l.formatter.Format(entry)
	if err != nil {
		return
	}
	for _, out := range l.outputs {
		_ = out.Write(entry, formatted)
	}
}

// nowFunc is indirected so tests can freeze time if ever needed; production
// always uses time.Now via the defaultNow assignment below.
var nowFunc = defaultNow

func (l *BaseLogger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields...) }
func (l *BaseLogger) Info(msg string, fields ...Field)  { l.log(InfoLevel, msg, fields...) }
func (l *BaseLogger) Warn(msg string, fields ...Field)  { l.log(WarnLevel, msg, fields...) }
func (l *BaseLogger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields...) }
func (l *BaseLogger) Fatal(msg string, fields ...Field) {
	l.log(FatalLevel, msg, fields...)
	os.Exit(1)
}

func (l *BaseLogger) Debugf(msg string, args ...interface{}) { l.log(DebugLevel, fmt.Sprintf(msg, args...)) }
func (l *BaseLogger) Infof(msg string, args ...interface{})  { l.log(InfoLevel, fmt.Sprintf(msg, args...)) }
func (l *BaseLogger) Warnf(msg string, args ...interface{})  { l.log(WarnLevel, fmt.Sprintf(msg, args...)) }
func (l *BaseLogger) Errorf(msg string, args ...interface{}) { l.log(ErrorLevel, fmt.Sprintf(msg, args...)) }
func (l *BaseLogger) Fatalf(msg string, args ...interface{}) {
	l.log(FatalLevel, fmt.Sprintf(msg, args...))
	os.Exit(1)
}

func (l *BaseLogger) clone() *BaseLogger {
	nl := &BaseLogger{
		level:     l.level,
		fields:    fieldsFrom(l.fields, nil),
		formatter: l.formatter,
		outputs:   l.outputs,
	}
	nl.slogLogger = slog.New(newBridgeHandler(nl))
	return nl
}

func (l *BaseLogger) WithField(key string, value interface{}) Logger {
	nl := l.clone()
	nl.fields[key] = value
	return nl
}

func (l *BaseLogger) WithFields(fields Fields) Logger {
	nl := l.clone()
	for k, v := range fields {
		nl.fields[k] = v
	}
	return nl
}

func (l *BaseLogger) WithError(err error) Logger {
	f := Err(err)
	return l.WithField(f.Key, f.Value)
}

func (l *BaseLogger) With(fields ...Field) Logger {
	nl := l.clone()
	for _, f := range fields {
		nl.fields[f.Key] = f.Value
	}
	return nl
}

func (l *BaseLogger) WithContext(ctx context.Context) Logger {
	return l.WithFields(ContextExtractor(ctx))
}

func (l *BaseLogger) WithComponent(component string) Logger {
	return l.WithField(ComponentKey, component)
}

func (l *BaseLogger) SetLevel(level Level) { l.level = level }
func (l *BaseLogger) GetLevel() Level      { return l.level }

// ParseLevel parses a level name written in all lower-case or all
// upper-case; the empty string parses as info.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "debug", "DEBUG":
		return DebugLevel, nil
	case "info", "INFO", "":
		return InfoLevel, nil
	case "warn", "WARN", "warning", "WARNING":
		return WarnLevel, nil
	case "error", "ERROR":
		return ErrorLevel, nil
	case "fatal", "FATAL":
		return FatalLevel, nil
	default:
		return InfoLevel, fmt.Errorf("log: unknown level %q", s)
	}
}

// Config declaratively configures a process-wide logger.
type Config struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// ApplyConfig builds a Logger from a Config, defaulting to info/text.
func ApplyConfig(cfg *Config) (Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		level = InfoLevel
	}
	var formatter Formatter = &TextFormatter{}
	if cfg.Format == "json" {
		formatter = &JSONFormatter{}
	}
	return NewLogger(WithLevel(level), WithFormatter(formatter), WithOutput(NewConsoleOutput())), nil
}

// JSONFormatter renders entries as single-line JSON objects.
type JSONFormatter struct{}

func (JSONFormatter) Format(entry *Entry) ([]byte, error) {
	m := make(map[string]interface{}, len(entry.Fields)+3)
	for k, v := range entry.Fields {
		m[k] = v
	}
	m["level"] = entry.Level.String()
	m["msg"] = entry.Message
	m["ts"] = entry.Timestamp.Format("2006-01-02T15:04:05.000Z07:00")
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// TextFormatter renders entries as human-readable single lines.
type TextFormatter struct{}

func (TextFormatter) Format(entry *Entry) ([]byte, error) {
	b := []byte(entry.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"))
	b = append(b, ' ')
	b = append(b, []byte(entry.Level.String())...)
	b = append(b, ' ')
	b = append(b, []byte(entry.Message)...)
	for k, v := range entry.Fields {
		b = append(b, ' ')
		b = append(b, []byte(k)...)
		b = append(b, '=')
		b = append(b, []byte(fmt.Sprint(v))...)
	}
	b = append(b, '\n')
	return b, nil
}

// ConsoleOutput writes formatted entries to an io.Writer (stderr by default).
type ConsoleOutput struct {
	w io.Writer
}

// NewConsoleOutput creates a ConsoleOutput writing to stderr.
func NewConsoleOutput() *ConsoleOutput { return &ConsoleOutput{w: os.Stderr} }

func (c *ConsoleOutput) Write(_ *Entry, formatted []byte) error {
	_, err := c.w.Write(formatted)
	return err
}
func (c *ConsoleOutput) Close() error { return nil }

// RedirectStdLog routes the standard library's log package output through
// logger at info level, so third-party code that still calls log.Printf
// (Pebble does, on its internal logger hook) lands in the same sink.
func RedirectStdLog(logger Logger) {
	slog.SetDefault(slog.New(stdRedirectHandler{logger: logger}))
}

type stdRedirectHandler struct{ logger Logger }

func (h stdRedirectHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h stdRedirectHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]Field, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		fields = append(fields, Field{Key: a.Key, Value: a.Value.Any()})
		return true
	})
	switch {
	case r.Level >= slog.LevelError:
		h.logger.Error(r.Message, fields...)
	case r.Level >= slog.LevelWarn:
		h.logger.Warn(r.Message, fields...)
	default:
		h.logger.Info(r.Message, fields...)
	}
	return nil
}
func (h stdRedirectHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h stdRedirectHandler) WithGroup(_ string) slog.Handler      { return h }
