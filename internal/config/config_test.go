package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
env: "dev"
http_server:
  address: "localhost:8082"
storage:
  dsn: "storage/test.db"
auth:
  token_secret: "secret"
recovery:
  code: "leo"
`

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Storage.Driver != DriverSQLite {
		t.Errorf("Storage.Driver = %q, want %q", cfg.Storage.Driver, DriverSQLite)
	}
	if cfg.HTTPServer.ReadTimeout != 10*time.Second {
		t.Errorf("ReadTimeout = %v, want 10s", cfg.HTTPServer.ReadTimeout)
	}
	if cfg.HTTPServer.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 5s", cfg.HTTPServer.ShutdownTimeout)
	}
	if cfg.Storage.ConnMaxLifetime != time.Hour {
		t.Errorf("ConnMaxLifetime = %v, want 1h", cfg.Storage.ConnMaxLifetime)
	}
	if cfg.Recovery.BindReset {
		t.Error("Recovery.BindReset should default to false")
	}
	if cfg.Recovery.Code != "leo" {
		t.Errorf("Recovery.Code = %q, want %q", cfg.Recovery.Code, "leo")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("RECOVERY_CODE", "from-env")
	t.Setenv("RECOVERY_BIND_RESET", "true")

	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Recovery.Code != "from-env" {
		t.Errorf("Recovery.Code = %q, want %q", cfg.Recovery.Code, "from-env")
	}
	if !cfg.Recovery.BindReset {
		t.Error("Recovery.BindReset should be true")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_MissingRequiredValue(t *testing.T) {
	body := `
env: "dev"
http_server:
  address: "localhost:8082"
storage:
  dsn: "storage/test.db"
recovery:
  code: "leo"
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("expected error when auth.token_secret is missing")
	}
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	body := minimalConfig + `
`
	path := writeConfig(t, body)
	t.Setenv("STORAGE_DRIVER", "mysql")

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestLoad_RejectsHalfConfiguredAdmin(t *testing.T) {
	body := minimalConfig + `
admin:
  email: "admin@example.com"
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("expected error when admin.password is missing")
	}
}
