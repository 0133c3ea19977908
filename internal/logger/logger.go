package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

// ParseLevel maps a level name to a LogLevel. Unknown names map to INFO.
func ParseLevel(name string) LogLevel {
	for level, n := range levelNames {
		if n == name {
			return level
		}
	}
	return INFO
}

type Logger struct {
	mu           sync.Mutex
	logger       *log.Logger
	level        LogLevel
	file         *os.File
	enableCaller bool
	debugMode    bool
	exit         func(int)
}

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
)

func current() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// IsDebugEnabled reports whether the global logger runs in debug mode
func IsDebugEnabled() bool {
	l := current()
	if l == nil {
		return false
	}
	return l.IsDebugMode()
}

// InitLogger initializes the global logger writing to logPath only.
// The terminal belongs to the UI, so nothing is written to stdout.
func InitLogger(logPath string, level LogLevel, debugMode bool) error {
	l, err := NewFileOnlyLogger(logPath, level)
	if err != nil {
		return err
	}
	l.debugMode = debugMode
	SetLogger(l)
	return nil
}

// InitConsoleLogger initializes the global logger writing to logPath and stdout
func InitConsoleLogger(logPath string, level LogLevel, debugMode bool) error {
	l, err := NewLogger(logPath, level)
	if err != nil {
		return err
	}
	l.debugMode = debugMode
	SetLogger(l)
	return nil
}

// SetLogger replaces the global logger
func SetLogger(l *Logger) {
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

// GetLogger returns the global logger
func GetLogger() *Logger {
	return current()
}

// CloseLogger closes the global logger
func CloseLogger() error {
	if l := current(); l != nil {
		return l.Close()
	}
	return nil
}

func Debug(format string, args ...interface{}) {
	if l := current(); l != nil && l.IsDebugMode() {
		l.log(DEBUG, format, args...)
	}
}

func Info(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.log(INFO, format, args...)
	}
}

func Warn(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.log(WARN, format, args...)
	}
}

func Error(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.log(ERROR, format, args...)
	}
}

// Fatal logs and exits. Without a global logger the message goes to stderr.
func Fatal(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.log(FATAL, format, args...)
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// NewLogger creates a logger that writes to the file and stdout
func NewLogger(logPath string, level LogLevel) (*Logger, error) {
	file, err := openLogFile(logPath)
	if err != nil {
		return nil, err
	}
	return newLogger(io.MultiWriter(file, os.Stdout), file, level), nil
}

// NewFileOnlyLogger creates a logger that only writes to file
func NewFileOnlyLogger(logPath string, level LogLevel) (*Logger, error) {
	file, err := openLogFile(logPath)
	if err != nil {
		return nil, err
	}
	return newLogger(file, file, level), nil
}

// NewWriterLogger creates a logger over an arbitrary writer. Used by tests.
func NewWriterLogger(w io.Writer, level LogLevel) *Logger {
	return newLogger(w, nil, level)
}

func newLogger(w io.Writer, file *os.File, level LogLevel) *Logger {
	return &Logger{
		logger:       log.New(w, "", 0),
		level:        level,
		file:         file,
		enableCaller: true,
		exit:         os.Exit,
	}
}

func openLogFile(logPath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, nil
}

// Close closes the log file
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// SetLevel sets the minimum log level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// EnableCaller enables/disables caller information in logs
func (l *Logger) EnableCaller(enable bool) {
	l.mu.Lock()
	l.enableCaller = enable
	l.mu.Unlock()
}

// SetDebugMode enables/disables debug mode
func (l *Logger) SetDebugMode(enable bool) {
	l.mu.Lock()
	l.debugMode = enable
	l.mu.Unlock()
}

// IsDebugMode returns whether debug mode is enabled
func (l *Logger) IsDebugMode() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debugMode
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	if level < l.level {
		l.mu.Unlock()
		return
	}
	enableCaller := l.enableCaller
	l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")

	var caller string
	if enableCaller {
		// 0: log, 1: Logger method or package func, 2: the call site
		if _, file, line, ok := runtime.Caller(2); ok {
			caller = fmt.Sprintf(" [%s:%d]", filepath.Base(file), line)
		}
	}

	message := fmt.Sprintf(format, args...)
	l.logger.Printf("%s [%s]%s %s", timestamp, levelNames[level], caller, message)

	if level == FATAL {
		l.exit(1)
	}
}

// Debug logs a debug message (only if debug mode is enabled)
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.IsDebugMode() {
		l.log(DEBUG, format, args...)
	}
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}

// Fatal logs a fatal message and exits the program
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.log(FATAL, format, args...)
}
