package main

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"alliancedash/services/dashboard/internal/config"
)

func TestRunReturnsListenErrorAfterCleanup(t *testing.T) {
	busy, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	defer busy.Close()
	port := busy.Addr().(*net.TCPAddr).Port

	t.Setenv("DASHBOARD_PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DASHBOARD_LOGS_DIR", "")
	dir := t.TempDir()
	logsDir := filepath.Join(dir, "logs")
	cfgPath := filepath.Join(dir, "config.yaml")
	yaml := fmt.Sprintf(`port: "%d"
logsDir: %q
databaseURL: %q
sessionSecret: "run-test-secret-0123456789"
archiveDir: %q
`, port, logsDir, "sqlite:"+filepath.Join(dir, "dashboard.db"), filepath.Join(dir, "archive"))
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	prev := config.ConfigPath
	config.ConfigPath = cfgPath
	t.Cleanup(func() { config.ConfigPath = prev })

	err = run()
	if err == nil || !strings.Contains(err.Error(), "listen on") {
		t.Fatalf("expected listen error, got %v", err)
	}
	data, err := os.ReadFile(filepath.Join(logsDir, "app.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "dashboard stopped") {
		t.Fatalf("expected shutdown error in app.log, got %s", data)
	}
}

func TestRunRejectsMissingConfig(t *testing.T) {
	prev := config.ConfigPath
	config.ConfigPath = filepath.Join(t.TempDir(), "absent.yaml")
	t.Cleanup(func() { config.ConfigPath = prev })

	if err := run(); err == nil {
		t.Fatalf("expected missing config to fail")
	}
}
