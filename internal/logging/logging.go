// Package logging provides the logging facility shared by every glovebox
// command, built on top of charmbracelet/log.
package logging

import (
	"io"
	"os"
	"os/exec"

	"github.com/charmbracelet/log"
)

// Output selects where log lines are sent.
type Output string

const (
	OutputStdout   Output = "stdout"
	OutputJournald Output = "journald"
	OutputAuto     Output = "auto"
)

// Logger wraps the charm log.Logger so callers don't import charmbracelet/log directly.
type Logger struct {
	*log.Logger
	output Output
}

// Config configures a Logger.
type Config struct {
	Output Output
	Level  string
	Prefix string
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	return Config{Output: OutputAuto, Level: "info", Prefix: ""}
}

func journaldAvailable() bool {
	if _, err := exec.LookPath("systemd-cat"); err != nil {
		return false
	}
	if _, err := os.Stat("/run/systemd/journal/socket"); err != nil {
		return false
	}
	return true
}

func parseLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// New builds a Logger from cfg.
func New(cfg Config) *Logger {
	var writer io.Writer
	output := OutputStdout

	switch cfg.Output {
	case OutputJournald, OutputAuto:
		if journaldAvailable() {
			writer = newJournaldWriter()
			output = OutputJournald
		} else {
			writer = os.Stdout
		}
	default:
		writer = os.Stdout
	}

	logger := log.NewWithOptions(writer, log.Options{
		Level:           parseLevel(cfg.Level),
		Prefix:          cfg.Prefix,
		ReportTimestamp: true,
	})

	return &Logger{Logger: logger, output: output}
}

// NewDefault builds a Logger with DefaultConfig.
func NewDefault() *Logger {
	return New(DefaultConfig())
}

// Output reports the resolved output destination.
func (l *Logger) Output() Output {
	return l.output
}

type journaldWriter struct{ identifier string }

func newJournaldWriter() *journaldWriter {
	return &journaldWriter{identifier: "glovebox"}
}

func (w *journaldWriter) Write(p []byte) (int, error) {
	cmd := exec.Command("systemd-cat", "-t", w.identifier)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return os.Stdout.Write(p)
	}
	if err := cmd.Start(); err != nil {
		return os.Stdout.Write(p)
	}
	n, err := stdin.Write(p)
	stdin.Close()
	_ = cmd.Wait()
	return n, err
}
