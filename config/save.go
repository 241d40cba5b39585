package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownKey is returned when a key is not accepted by the target file.
var ErrUnknownKey = errors.New("unknown config key")

// SaveConfig writes values into the global or local config file.
type SaveConfig struct {
	// GlobalConfigDir is the directory under ~/.config/ for global config.
	GlobalConfigDir string

	// GlobalConfigFile is the filename. Defaults to "config.yaml".
	GlobalConfigFile string

	// LocalConfigName is the filename for local config in git root.
	LocalConfigName string

	// ValidGlobalKeys lists keys that can be set in global config.
	ValidGlobalKeys []string

	// ValidLocalKeys lists keys that can be set in local config.
	ValidLocalKeys []string
}

func (c SaveConfig) globalConfigFile() string {
	if c.GlobalConfigFile != "" {
		return c.GlobalConfigFile
	}
	return "config.yaml"
}

// GlobalPath returns the global config file location.
func (c SaveConfig) GlobalPath() (string, error) {
	if c.GlobalConfigDir == "" {
		return "", fmt.Errorf("global config directory not configured")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", c.GlobalConfigDir, c.globalConfigFile()), nil
}

// LocalPath returns the local config file location under gitRoot.
func (c SaveConfig) LocalPath(gitRoot string) (string, error) {
	if gitRoot == "" {
		return "", fmt.Errorf("git root not found")
	}
	if c.LocalConfigName == "" {
		return "", fmt.Errorf("local config name not configured")
	}
	return filepath.Join(gitRoot, c.LocalConfigName), nil
}

// SaveGlobal saves a key-value pair to the global config file.
// The file may hold a credential, so it is written owner-only.
func (c SaveConfig) SaveGlobal(key, value string) error {
	if err := checkKey("global", c.ValidGlobalKeys, key); err != nil {
		return err
	}
	path, err := c.GlobalPath()
	if err != nil {
		return err
	}
	return updateFile(path, 0o600, func(m map[string]interface{}) {
		m[key] = parseValue(value)
	})
}

// SaveLocal saves a key-value pair to the local config file in the git root.
func (c SaveConfig) SaveLocal(gitRoot, key, value string) error {
	if err := checkKey("local", c.ValidLocalKeys, key); err != nil {
		return err
	}
	path, err := c.LocalPath(gitRoot)
	if err != nil {
		return err
	}
	// Local config is shared and should be readable
	return updateFile(path, 0o644, func(m map[string]interface{}) {
		m[key] = parseValue(value)
	})
}

// DeleteGlobalKey removes a key from the global config.
// A missing file is not an error.
func (c SaveConfig) DeleteGlobalKey(key string) error {
	path, err := c.GlobalPath()
	if err != nil {
		return err
	}
	return deleteKey(path, 0o600, key)
}

// DeleteLocalKey removes a key from the local config.
func (c SaveConfig) DeleteLocalKey(gitRoot, key string) error {
	path, err := c.LocalPath(gitRoot)
	if err != nil {
		return err
	}
	return deleteKey(path, 0o644, key)
}

func checkKey(scope string, valid []string, key string) error {
	if len(valid) > 0 && !contains(valid, key) {
		return fmt.Errorf("%w for %s config: %s\n\nValid keys: %s",
			ErrUnknownKey, scope, key, strings.Join(valid, ", "))
	}
	return nil
}

func deleteKey(path string, perm os.FileMode, key string) error {
	if _, err := os.Stat(path); err != nil {
		return nil // Nothing to delete
	}
	return updateFile(path, perm, func(m map[string]interface{}) {
		delete(m, key)
	})
}

// updateFile reads path as a YAML map, applies mutate, and writes it back.
// An unparseable file is replaced rather than merged.
func updateFile(path string, perm os.FileMode, mutate func(map[string]interface{})) error {
	var existing map[string]interface{}
	if data, err := os.ReadFile(path); err == nil {
		_ = yaml.Unmarshal(data, &existing)
	}
	if existing == nil {
		existing = make(map[string]interface{})
	}

	mutate(existing)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(existing)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, perm) //nolint:gosec
}

// parseValue converts string values to appropriate types for YAML.
func parseValue(value string) interface{} {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	return value
}
