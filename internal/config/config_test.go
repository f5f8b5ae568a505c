package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{EnvDB, EnvMirror, EnvLogLevel, EnvCheckInterval} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if cfg.DBPath != filepath.Join(home, ".locknote", "notes.db") {
		t.Errorf("DBPath: got %s", cfg.DBPath)
	}
	if cfg.MirrorDir != "" || cfg.LogLevel != DefaultLogLevel || cfg.CheckInterval != DefaultCheckInterval {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv(EnvDB, "/tmp/x.db")
	t.Setenv(EnvMirror, "/tmp/mirror")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvCheckInterval, "250ms")

	cfg := FromEnv()
	if cfg.DBPath != "/tmp/x.db" || cfg.MirrorDir != "/tmp/mirror" || cfg.LogLevel != "debug" {
		t.Errorf("Overrides not applied: %+v", cfg)
	}
	if cfg.CheckInterval != 250*time.Millisecond {
		t.Errorf("CheckInterval: got %v", cfg.CheckInterval)
	}

	t.Setenv(EnvCheckInterval, "soon")
	if got := FromEnv().CheckInterval; got != DefaultCheckInterval {
		t.Errorf("Invalid interval should fall back to default, got %v", got)
	}
}

func TestExpandHome(t *testing.T) {
	if got := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("Absolute path changed: %s", got)
	}
	if got := ExpandHome("~user/x"); got != "~user/x" {
		t.Errorf("~user form should be left alone: %s", got)
	}
}

func TestPasswordFromEnv(t *testing.T) {
	t.Setenv(EnvPassword, "")
	if PasswordFromEnv() != nil {
		t.Error("Expected nil for unset password")
	}
	t.Setenv(EnvPassword, "s3cret")
	if string(PasswordFromEnv()) != "s3cret" {
		t.Error("Password not read from env")
	}
}
