package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("PORT", "")
	p := writeConfig(t, "database:\n  driver: memory\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 8080 || cfg.State.FundsTaskID != "10" || cfg.Digest.HorizonDays != 14 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Auth.TokenTTL != 72*time.Hour {
		t.Fatalf("ttl = %v", cfg.Auth.TokenTTL)
	}
	if cfg.EmailEnabled() || cfg.TelegramEnabled() {
		t.Fatalf("notifiers should be off by default")
	}
}

func TestLoad_File(t *testing.T) {
	p := writeConfig(t, `
server:
  port: 9090
database:
  driver: PGX
  url: postgres://u:p@db/immitrack
auth:
  jwt_secret: file-secret
  token_ttl: 2h
  accounts:
    - name: ariane
      password_hash: "$2a$10$abc"
state:
  funds_task_id: "fonds"
  reconcile_on_failure: true
telegram:
  bot_token: t
  chat_ids: [42]
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9090 || cfg.Database.Driver != "pgx" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Auth.TokenTTL != 2*time.Hour || len(cfg.Auth.Accounts) != 1 {
		t.Fatalf("auth = %+v", cfg.Auth)
	}
	if !cfg.State.ReconcileOnFailure || cfg.State.FundsTaskID != "fonds" {
		t.Fatalf("state = %+v", cfg.State)
	}
	if !cfg.TelegramEnabled() {
		t.Fatalf("telegram should be enabled")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	p := writeConfig(t, "database:\n  url: postgres://file\nauth:\n  jwt_secret: file\n")
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("PORT", "7000")

	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database.DSN != "postgres://env" || cfg.Auth.JWTSecret != "env-secret" || cfg.Server.Port != 7000 {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestLoad_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "memory")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database.Driver != "memory" {
		t.Fatalf("driver = %s", cfg.Database.Driver)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_DRIVER", "")
	cases := map[string]string{
		"bad yaml":       "server: [",
		"unknown driver": "database:\n  driver: mongo\n",
		"missing dsn":    "database:\n  driver: postgres\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv("IMMITRACK_CONFIG", "")
	if Path("") != DefaultPath {
		t.Fatalf("default path")
	}
	t.Setenv("IMMITRACK_CONFIG", "/etc/immitrack.yaml")
	if Path("") != "/etc/immitrack.yaml" || Path("x.yaml") != "x.yaml" {
		t.Fatalf("precedence wrong")
	}
}
