package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
backend:
  baseURL: http://backend:9000
`))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != 8080 {
		t.Fatalf("port: got %d", cfg.Server.Port)
	}
	if cfg.BackendTimeout() != 120*time.Second {
		t.Fatalf("timeout: got %v", cfg.BackendTimeout())
	}
	if cfg.Database.Driver != "mysql" {
		t.Fatalf("driver: got %q", cfg.Database.Driver)
	}
	if cfg.Theme.Default != "light" {
		t.Fatalf("theme: got %q", cfg.Theme.Default)
	}
	if cfg.Auth.SigninURL != "/signin" {
		t.Fatalf("signin url: got %q", cfg.Auth.SigninURL)
	}
	if cfg.RateLimit.Capacity != 30 || cfg.RateLimit.RefillRate != 10 {
		t.Fatalf("rate limit: %+v", cfg.RateLimit)
	}
}

func TestLoadExplicitValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  port: 9090
backend:
  baseURL: http://backend:9000
  timeoutSeconds: 30
database:
  driver: postgres
  host: db
  port: 5432
  user: app
  password: secret
  name: organcare
theme:
  default: dark
`))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("port: got %d", cfg.Server.Port)
	}
	if cfg.BackendTimeout() != 30*time.Second {
		t.Fatalf("timeout: got %v", cfg.BackendTimeout())
	}
	if cfg.Theme.Default != "dark" {
		t.Fatalf("theme: got %q", cfg.Theme.Default)
	}

	want := "host=db port=5432 user=app password=secret dbname=organcare sslmode=disable"
	if got := cfg.PostgresDSN(); got != want {
		t.Fatalf("postgres dsn: got %q", got)
	}
}

func TestMySQLDSN(t *testing.T) {
	cfg := &Config{}
	cfg.Database.User = "app"
	cfg.Database.Password = "secret"
	cfg.Database.Host = "db"
	cfg.Database.Port = 3306
	cfg.Database.Name = "organcare"

	want := "app:secret@tcp(db:3306)/organcare?parseTime=true&charset=utf8mb4&loc=UTC"
	if got := cfg.MySQLDSN(); got != want {
		t.Fatalf("mysql dsn: got %q", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error")
	}
}
