package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init without --overwrite to refuse an existing file")
	}
}

func TestConfigShowPrintsEffectiveConfig(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "[lifecycle]")
	requireContains(t, out, env.cfg.Paths.StateDir)
}

func TestInvalidConfigIsReported(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(env.configPath, []byte("[lifecycle]\naudit_threshold = 400\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := runCLI(t, []string{"preflight"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "audit_threshold") {
		t.Fatalf("expected audit_threshold validation error, got %v", err)
	}
}

func TestPreflightCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"preflight"}, env.configPath)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	requireContains(t, out, "== Preflight ==")
	requireContains(t, out, "State directory:")
	requireContains(t, out, "[OK]")
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Notifications are disabled")
}

func TestHistoryEmptyJournal(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No journal entries")
}

func TestSimulateClearsEverySampleAndJournalsIt(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"simulate", "--count", "6", "--timeout", "30s"}, env.configPath)
	if err != nil {
		t.Fatalf("simulate: %v\n%s", err, out)
	}
	requireContains(t, out, "Declarations")
	requireContains(t, out, "Shenzhen Precision Co")
	requireContains(t, out, "audit completed")

	out, _, err = runCLI(t, []string{"history", "--limit", "100"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "Recent activity")
	requireContains(t, out, "audit completed")
	requireContains(t, out, "Audit Required -> Cleared")
}

func TestSimulateRejectsBadFlags(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"simulate", "--count", "0"}, env.configPath); err == nil {
		t.Fatal("expected error for zero count")
	}
	if _, _, err := runCLI(t, []string{"simulate", "--speed", "-1"}, env.configPath); err == nil {
		t.Fatal("expected error for negative speed")
	}
}

func TestFeedCommandPrintsSummary(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"feed", "--duration", "200ms"}, env.configPath)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	requireContains(t, out, "Recent anomalies")
}
