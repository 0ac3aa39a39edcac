package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/indictl/internal/testutil/testlog"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestTemplateValidates(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteTemplate(path, false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := WriteTemplate(path, false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	cfg, err := Validate(path)
	if err != nil {
		t.Fatalf("validate template: %v", err)
	}
	if cfg.Port != 7624 || cfg.TimeoutEnable == nil || !*cfg.TimeoutEnable {
		t.Fatalf("unexpected template values: %+v", cfg)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	testlog.Start(t)
	path := writeFile(t, "host = \"scope\"\nprot = 7624\n")
	_, err := Load(path)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"duration":  "vector_timeout_max = \"soon\"\n",
		"negative":  "idle_timeout = \"-1s\"\n",
		"port":      "port = 70000\n",
		"blob mode": "blob_mode = \"Sometimes\"\n",
	}
	for name, body := range cases {
		if _, err := Validate(writeFile(t, body)); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected invalid config, got %v", name, err)
		}
	}
}
