package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	logger, err := Init(Config{Level: "warn", Format: "json", OutputPath: path})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("dropped")
	logger.Warn("kept")
	if err := Sync(); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(b)
	if strings.Contains(out, "dropped") {
		t.Errorf("info entry written at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"kept"`) {
		t.Errorf("warn entry missing: %s", out)
	}

	SetLevel("info")
	L().Info("now kept")
	_ = Sync()
	b, _ = os.ReadFile(path)
	if !strings.Contains(string(b), "now kept") {
		t.Error("SetLevel did not lower the level")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
}
