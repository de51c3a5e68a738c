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
	if errWrite := os.WriteFile(path, []byte(content), 0o600); errWrite != nil {
		t.Fatalf("write config: %v", errWrite)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  dsn: "file:test.db"
jwt:
  secret: "test-secret"
`)

	cfg, errLoad := Load(path)
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}

	if cfg.Server.Listen != ":8080" {
		t.Fatalf("listen default: got %s", cfg.Server.Listen)
	}
	if cfg.Billing.UploadCost != 5 || cfg.Billing.ChatPrecheckThreshold != 10 {
		t.Fatalf("billing defaults: got %+v", cfg.Billing)
	}
	if cfg.Billing.UsageWaitTimeout() != 30*time.Second {
		t.Fatalf("usage wait default: got %v", cfg.Billing.UsageWaitTimeout())
	}
	if cfg.JWT.Expiry() != 72*time.Hour {
		t.Fatalf("jwt expiry default: got %v", cfg.JWT.Expiry())
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  listen: ":9000"
database:
  dsn: "postgres://localhost/credits"
jwt:
  secret: "s"
  expiry-hours: 24
billing:
  upload-cost: 2
  chat-precheck-threshold: 50
`)

	cfg, errLoad := Load(path)
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if cfg.Server.Listen != ":9000" {
		t.Fatalf("listen: got %s", cfg.Server.Listen)
	}
	if cfg.Billing.UploadCost != 2 || cfg.Billing.ChatPrecheckThreshold != 50 {
		t.Fatalf("billing: got %+v", cfg.Billing)
	}
	if cfg.JWT.Expiry() != 24*time.Hour {
		t.Fatalf("jwt expiry: got %v", cfg.JWT.Expiry())
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	path := writeConfig(t, `
database:
  dsn: "file:test.db"
`)
	if _, errLoad := Load(path); errLoad == nil {
		t.Fatal("missing jwt.secret accepted")
	}

	path = writeConfig(t, `
jwt:
  secret: "s"
database:
  dsn: ""
`)
	if _, errLoad := Load(path); errLoad == nil {
		t.Fatal("empty dsn accepted")
	}
}

func TestIsAdminEmail(t *testing.T) {
	cfg := Default()
	cfg.Admin.Emails = []string{"Admin@Example.com"}

	if !cfg.IsAdminEmail("admin@example.com") {
		t.Fatal("case-insensitive match failed")
	}
	if !cfg.IsAdminEmail("  ADMIN@EXAMPLE.COM  ") {
		t.Fatal("trimmed match failed")
	}
	if cfg.IsAdminEmail("other@example.com") {
		t.Fatal("non-admin matched")
	}
	if cfg.IsAdminEmail("") {
		t.Fatal("empty email matched")
	}
}
