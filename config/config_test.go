package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Limits.MaxIDLength != 256 {
		t.Errorf("Expected MaxIDLength=256, got %d", cfg.Limits.MaxIDLength)
	}
	if cfg.Limits.InitialStringBuffer != 1024 {
		t.Errorf("Expected InitialStringBuffer=1024, got %d", cfg.Limits.InitialStringBuffer)
	}
	if cfg.Limits.HashTableMaxLoad != 0.75 {
		t.Errorf("Expected HashTableMaxLoad=0.75, got %v", cfg.Limits.HashTableMaxLoad)
	}

	if cfg.Diagnostics.Color != "auto" {
		t.Errorf("Expected Color=auto, got %s", cfg.Diagnostics.Color)
	}

	if cfg.Assemble.Timeout != 30*time.Second {
		t.Errorf("Expected Timeout=30s, got %v", cfg.Assemble.Timeout)
	}
	if cfg.Assemble.Skip {
		t.Error("Expected Skip=false")
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()

	if path == "" {
		t.Error("GetConfigPath returned empty string")
	}

	if filepath.Base(path) != "simplc.toml" {
		t.Errorf("Expected path to end with simplc.toml, got %s", path)
	}

	switch runtime.GOOS {
	case "windows":
		if !filepath.IsAbs(path) && path != "simplc.toml" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}

	case "darwin", "linux":
		dir := filepath.Dir(path)
		if filepath.Base(dir) != "simplc" && path != "simplc.toml" {
			t.Errorf("Expected path in simplc directory or fallback, got %s", path)
		}
	}
}

func TestGetLogPath(t *testing.T) {
	path := GetLogPath()

	if path == "" {
		t.Error("GetLogPath returned empty string")
	}

	switch runtime.GOOS {
	case "windows":
		if !filepath.IsAbs(path) && path != "logs" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}

	case "darwin", "linux":
		if filepath.Base(path) != "logs" {
			t.Errorf("Expected path to end with logs, got %s", path)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.toml")

	cfg := DefaultConfig()
	cfg.Limits.MaxIDLength = 64
	cfg.Diagnostics.Color = "never"
	cfg.Assemble.JasminJar = "/opt/jasmin/jasmin.jar"
	cfg.Assemble.Skip = true

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.Limits.MaxIDLength != 64 {
		t.Errorf("Expected MaxIDLength=64, got %d", loaded.Limits.MaxIDLength)
	}
	if loaded.Diagnostics.Color != "never" {
		t.Errorf("Expected Color=never, got %s", loaded.Diagnostics.Color)
	}
	if loaded.Assemble.JasminJar != "/opt/jasmin/jasmin.jar" {
		t.Errorf("Expected JasminJar=/opt/jasmin/jasmin.jar, got %s", loaded.Assemble.JasminJar)
	}
	if !loaded.Assemble.Skip {
		t.Error("Expected Skip=true")
	}
}

func TestLoadNonExistent(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nonexistent.toml")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom should not error on non-existent file: %v", err)
	}

	if cfg.Limits.MaxIDLength != 256 {
		t.Error("Expected default config when file doesn't exist")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.toml")

	invalidTOML := `
[limits]
max_id_length = "not a number"
`
	if err := os.WriteFile(configPath, []byte(invalidTOML), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	_, err := LoadFrom(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid TOML")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()

	configPath := filepath.Join(tempDir, "subdir1", "subdir2", "config.toml")

	cfg := DefaultConfig()
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}

	dir := filepath.Dir(configPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("Parent directories were not created")
	}
}
