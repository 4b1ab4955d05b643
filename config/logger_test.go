package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggingPrepare_FileLog(t *testing.T) {
	dir := t.TempDir()
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "normal", Destination: filepath.Join(dir, "test.log"), Mode: "overwrite"},
	}

	log, err := conf.Prepare(nil)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	log.Debug("hidden message")
	log.Info("visible message")
	log.Sync() //nolint:errcheck

	data, err := os.ReadFile(conf.FileLogger.Destination)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "visible message") {
		t.Errorf("file log misses info message:\n%s", data)
	}
	if strings.Contains(string(data), "hidden message") {
		t.Errorf("file log has debug message at normal level:\n%s", data)
	}
}

func TestLoggingPrepare_Disabled(t *testing.T) {
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "none"},
	}
	log, err := conf.Prepare(nil)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if log.Core().Enabled(-1) {
		t.Error("disabled logger accepts debug messages")
	}
}

func TestOpenLogFile_Redirect(t *testing.T) {
	f, redirected, err := openLogFile(filepath.Join(t.TempDir(), "missing", "x.log"), "inliner-test.*.log", "append")
	if err != nil {
		t.Fatalf("openLogFile() error = %v", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()
	if !redirected {
		t.Error("expected redirect to temporary file")
	}
}
