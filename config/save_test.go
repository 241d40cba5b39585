package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func readYAML(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var saved map[string]interface{}
	if err := yaml.Unmarshal(data, &saved); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	return saved
}

func TestSaveConfig_SaveGlobal(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)
	cfg := DefaultSaveConfig()
	configPath := filepath.Join(tmpHome, ".config", "relstage", "config.yaml")

	t.Run("creates owner-only file", func(t *testing.T) {
		if err := cfg.SaveGlobal(KeyToken, "secret"); err != nil {
			t.Fatalf("SaveGlobal() error = %v", err)
		}
		if saved := readYAML(t, configPath); saved[KeyToken] != "secret" {
			t.Errorf("token = %v, want secret", saved[KeyToken])
		}
		info, err := os.Stat(configPath)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Errorf("perm = %o, want 600", perm)
		}
	})

	t.Run("updates existing config", func(t *testing.T) {
		if err := cfg.SaveGlobal(KeyTimeout, "20m"); err != nil {
			t.Fatalf("SaveGlobal() error = %v", err)
		}
		saved := readYAML(t, configPath)
		if saved[KeyToken] != "secret" || saved[KeyTimeout] != "20m" {
			t.Errorf("saved = %v", saved)
		}
	})

	t.Run("rejects repository keys", func(t *testing.T) {
		err := cfg.SaveGlobal(KeyOwner, "acme")
		if !errors.Is(err, ErrUnknownKey) {
			t.Errorf("error = %v, want ErrUnknownKey", err)
		}
	})

	t.Run("no global config dir", func(t *testing.T) {
		if err := (SaveConfig{}).SaveGlobal("key", "value"); err == nil {
			t.Error("expected error when GlobalConfigDir not set")
		}
	})

	t.Run("custom config filename", func(t *testing.T) {
		custom := SaveConfig{GlobalConfigDir: "customfile", GlobalConfigFile: "settings.yaml"}
		if err := custom.SaveGlobal("key", "value"); err != nil {
			t.Fatalf("SaveGlobal() error = %v", err)
		}
		if _, err := os.Stat(filepath.Join(tmpHome, ".config", "customfile", "settings.yaml")); err != nil {
			t.Errorf("expected settings.yaml to be created: %v", err)
		}
	})
}

func TestSaveConfig_SaveLocal(t *testing.T) {
	cfg := DefaultSaveConfig()

	t.Run("creates and updates local config", func(t *testing.T) {
		root := t.TempDir()
		if err := cfg.SaveLocal(root, KeyOwner, "acme"); err != nil {
			t.Fatalf("SaveLocal() error = %v", err)
		}
		if err := cfg.SaveLocal(root, KeyRepo, "widgets"); err != nil {
			t.Fatalf("SaveLocal() error = %v", err)
		}
		saved := readYAML(t, filepath.Join(root, LocalConfigName))
		if saved[KeyOwner] != "acme" || saved[KeyRepo] != "widgets" {
			t.Errorf("saved = %v", saved)
		}
	})

	t.Run("rejects token", func(t *testing.T) {
		err := cfg.SaveLocal(t.TempDir(), KeyToken, "secret")
		if !errors.Is(err, ErrUnknownKey) {
			t.Errorf("error = %v, want ErrUnknownKey", err)
		}
	})

	t.Run("empty git root", func(t *testing.T) {
		if err := cfg.SaveLocal("", KeyOwner, "acme"); err == nil {
			t.Error("expected error when git root empty")
		}
	})

	t.Run("overwrites malformed file", func(t *testing.T) {
		root := t.TempDir()
		path := filepath.Join(root, LocalConfigName)
		os.WriteFile(path, []byte("not: valid: yaml: [[["), 0o644)

		if err := cfg.SaveLocal(root, KeyWorkflow, "CI"); err != nil {
			t.Fatalf("SaveLocal() error = %v", err)
		}
		if saved := readYAML(t, path); saved[KeyWorkflow] != "CI" {
			t.Errorf("saved = %v", saved)
		}
	})
}

func TestSaveConfig_DeleteKeys(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)
	cfg := DefaultSaveConfig()

	t.Run("deletes global key", func(t *testing.T) {
		cfg.SaveGlobal(KeyToken, "secret")
		cfg.SaveGlobal(KeyWorkflow, "CI")

		if err := cfg.DeleteGlobalKey(KeyToken); err != nil {
			t.Fatalf("DeleteGlobalKey() error = %v", err)
		}
		saved := readYAML(t, filepath.Join(tmpHome, ".config", "relstage", "config.yaml"))
		if _, exists := saved[KeyToken]; exists {
			t.Error("token should have been deleted")
		}
		if saved[KeyWorkflow] != "CI" {
			t.Errorf("workflow = %v, want CI", saved[KeyWorkflow])
		}
	})

	t.Run("deletes local key", func(t *testing.T) {
		root := t.TempDir()
		cfg.SaveLocal(root, KeyOwner, "acme")

		if err := cfg.DeleteLocalKey(root, KeyOwner); err != nil {
			t.Fatalf("DeleteLocalKey() error = %v", err)
		}
		if saved := readYAML(t, filepath.Join(root, LocalConfigName)); len(saved) != 0 {
			t.Errorf("saved = %v, want empty", saved)
		}
	})

	t.Run("missing file is not an error", func(t *testing.T) {
		if err := cfg.DeleteLocalKey(t.TempDir(), KeyOwner); err != nil {
			t.Errorf("DeleteLocalKey() error = %v, want nil", err)
		}
	})
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		input string
		want  interface{}
	}{
		{"true", true},
		{"TRUE", true},
		{"false", false},
		{"15m", "15m"},
		{"123", "123"}, // Numbers stay as strings
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseValue(tt.input); got != tt.want {
				t.Errorf("parseValue(%q) = %v (%T), want %v (%T)",
					tt.input, got, got, tt.want, tt.want)
			}
		})
	}
}
