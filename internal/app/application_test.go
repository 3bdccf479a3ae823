package app

import (
	"path/filepath"
	"testing"

	"capsyhub/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Directory.Path = filepath.Join(t.TempDir(), "accounts.db")
	return cfg
}

func TestNewApplication_WiresComponents(t *testing.T) {
	application, err := NewApplication(testConfig(t))
	if err != nil {
		t.Fatalf("failed to create application: %v", err)
	}
	defer func() { _ = application.directory.Close() }()

	if application.registry == nil || application.directory == nil {
		t.Error("core components should be wired")
	}
	if application.apiServer == nil || application.mobileServer == nil || application.deviceServer == nil {
		t.Error("all three listeners should be configured")
	}
	if application.apiServer.Addr == application.mobileServer.Addr {
		t.Error("listeners must not share an address")
	}
}

func TestNewApplication_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.MobileWS.Port = cfg.API.Port

	if _, err := NewApplication(cfg); err == nil {
		t.Error("expected error for colliding listener ports")
	}
}

func TestNewApplication_RejectsBadCatalogFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "absent.toml")

	if _, err := NewApplication(cfg); err == nil {
		t.Error("expected error for a missing catalog file")
	}
}
