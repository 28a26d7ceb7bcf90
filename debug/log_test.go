package debug

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogWritesCategory(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer Disable()

	Log("clock", "tempo %d", 120)

	out := buf.String()
	if !strings.Contains(out, "cat=clock") {
		t.Errorf("Expected category field in %q", out)
	}
	if !strings.Contains(out, "tempo 120") {
		t.Errorf("Expected message in %q", out)
	}
}

func TestLogDisabledIsSilent(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	Disable()

	Log("clock", "dropped")
	if buf.Len() != 0 {
		t.Errorf("Expected no output while disabled, got %q", buf.String())
	}
}

func TestLogEverySamples(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer Disable()

	for i := 0; i < 10; i++ {
		LogEvery(5, "fire", "sampled")
	}
	if got := strings.Count(buf.String(), "sampled"); got != 2 {
		t.Errorf("Expected 2 sampled lines, got %d", got)
	}
}

func TestEnableCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "debug.log")
	if err := Enable(path); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	Log("test", "hello")
	Disable()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("Expected log line in file, got %q", data)
	}
}
