package log

import (
	"io"
	"log"
	"os"
)

// WriterCreator is a function to create LogWriters.
type WriterCreator func() LogWriter

// LogWriter is the interface for writing formatted log lines somewhere.
type LogWriter interface {
	Write(string) error
	io.Closer
}

type generalLogger struct {
	creator WriterCreator
	writer  LogWriter
}

// NewLogger returns a generic log handler that can log all types of messages.
func NewLogger(logWriterCreator WriterCreator) Handler {
	return &generalLogger{
		creator: logWriterCreator,
		writer:  logWriterCreator(),
	}
}

func (l *generalLogger) Handle(msg Message) {
	if l.writer == nil {
		return
	}
	l.writer.Write(msg.String() + "\n")
}

func (l *generalLogger) Close() error {
	if l.writer == nil {
		return nil
	}
	return l.writer.Close()
}

type consoleLogWriter struct {
	logger *log.Logger
}

func (w *consoleLogWriter) Write(s string) error {
	w.logger.Print(s)
	return nil
}

func (w *consoleLogWriter) Close() error {
	return nil
}

type fileLogWriter struct {
	file   *os.File
	logger *log.Logger
}

func (w *fileLogWriter) Write(s string) error {
	w.logger.Print(s)
	return nil
}

func (w *fileLogWriter) Close() error {
	return w.file.Close()
}

// CreateStdoutLogWriter returns a WriterCreator that creates LogWriters for stdout.
func CreateStdoutLogWriter() WriterCreator {
	return func() LogWriter {
		return &consoleLogWriter{
			logger: log.New(os.Stdout, "", log.Ldate|log.Ltime),
		}
	}
}

// CreateStderrLogWriter returns a WriterCreator that creates LogWriters for stderr.
func CreateStderrLogWriter() WriterCreator {
	return func() LogWriter {
		return &consoleLogWriter{
			logger: log.New(os.Stderr, "", log.Ldate|log.Ltime),
		}
	}
}

// CreateFileLogWriter returns a WriterCreator that creates LogWriters for the given file.
func CreateFileLogWriter(path string) (WriterCreator, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	file.Close()
	return func() LogWriter {
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil
		}
		return &fileLogWriter{
			file:   file,
			logger: log.New(file, "", log.Ldate|log.Ltime),
		}
	}, nil
}

type severityLogger struct {
	inner       Handler
	maxSeverity Severity
}

// NewSeverityLogger wraps a handler so that only messages at or above the given severity pass.
func NewSeverityLogger(inner Handler, maxSeverity Severity) Handler {
	return &severityLogger{
		inner:       inner,
		maxSeverity: maxSeverity,
	}
}

func (l *severityLogger) Handle(msg Message) {
	if g, ok := msg.(*GeneralMessage); ok && g.Severity > l.maxSeverity {
		return
	}
	l.inner.Handle(msg)
}

func init() {
	RegisterHandler(NewLogger(CreateStdoutLogWriter()))
}
