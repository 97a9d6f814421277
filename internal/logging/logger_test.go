package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTrayLoggerWritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	l := NewLogger(ModeTray, dir)
	l.Info().Str("op", "upload").Msg("tray started")
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "tray started") {
		t.Errorf("log file missing message: %s", data)
	}
}

func TestCLILoggerHasNoFile(t *testing.T) {
	l := NewDefaultCLILogger()
	if l.file != nil {
		t.Error("CLI logger should not open a log file")
	}
	if err := l.Close(); err != nil {
		t.Errorf("Close on CLI logger: %v", err)
	}
}

func TestChildCarriesField(t *testing.T) {
	var buf bytes.Buffer
	l := NewDefaultCLILogger()
	l.SetOutput(&buf)

	l.Child("op", "1234").Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, "op") || !strings.Contains(out, "1234") {
		t.Errorf("child logger output %q missing op field", out)
	}
}
