package config

import (
	"testing"
	"time"
)

func TestLoadBuildsDSNFromParts(t *testing.T) {
	t.Setenv("GREENTRADE_APP_ENV", "dev")
	t.Setenv("GREENTRADE_APP_PORT", "8080")
	t.Setenv("GREENTRADE_JWT_SECRET", "secret")
	t.Setenv("GREENTRADE_DB_HOST", "localhost")
	t.Setenv("GREENTRADE_DB_USER", "greentrade")
	t.Setenv("GREENTRADE_DB_PASSWORD", "pw")
	t.Setenv("GREENTRADE_DB_NAME", "greentrade")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	want := "postgres://greentrade:pw@localhost:5432/greentrade?sslmode=disable"
	if cfg.DB.DSN != want {
		t.Fatalf("unexpected DSN %q", cfg.DB.DSN)
	}
	if !cfg.App.IsDev() || cfg.App.IsProd() {
		t.Fatal("expected dev environment")
	}
}

func TestLoadPolicyDefaults(t *testing.T) {
	t.Setenv("GREENTRADE_APP_ENV", "prod")
	t.Setenv("GREENTRADE_APP_PORT", "8080")
	t.Setenv("GREENTRADE_JWT_SECRET", "secret")
	t.Setenv("GREENTRADE_DB_DSN", "postgres://u:p@db:5432/orders")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Orders.PendingTimeout != 30*time.Minute {
		t.Fatalf("unexpected pending timeout %s", cfg.Orders.PendingTimeout)
	}
	if cfg.Orders.ReturnWindow != 168*time.Hour {
		t.Fatalf("unexpected return window %s", cfg.Orders.ReturnWindow)
	}
	if cfg.Outbox.BatchSize != 100 {
		t.Fatalf("unexpected outbox batch size %d", cfg.Outbox.BatchSize)
	}
}

func TestLoadFailsWithoutDBSettings(t *testing.T) {
	t.Setenv("GREENTRADE_APP_ENV", "dev")
	t.Setenv("GREENTRADE_APP_PORT", "8080")
	t.Setenv("GREENTRADE_JWT_SECRET", "secret")
	t.Setenv("GREENTRADE_DB_DSN", "")
	t.Setenv("GREENTRADE_DB_HOST", "")
	t.Setenv("GREENTRADE_DB_USER", "")
	t.Setenv("GREENTRADE_DB_NAME", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when no DB settings provided")
	}
}
