package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "vellum.json")

	content := `{
		"spansEnabled": true,
		"emitConstantFoldedAST": true
	}`

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.SpansEnabled == nil || *cfg.SpansEnabled != true {
		t.Errorf("SpansEnabled: got %v, want true", cfg.SpansEnabled)
	}
	if cfg.EmitConstantFoldedAST == nil || *cfg.EmitConstantFoldedAST != true {
		t.Errorf("EmitConstantFoldedAST: got %v, want true", cfg.EmitConstantFoldedAST)
	}
}

func TestLoadSearchesParentDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "project", "src")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatalf("failed to create dirs: %v", err)
	}

	configPath := filepath.Join(tmpDir, "project", "vellum.json")
	if err := os.WriteFile(configPath, []byte(`{"spansEnabled": true}`), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, foundPath, err := Load(subDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected config, got nil")
	}
	if foundPath != configPath {
		t.Errorf("found config at %s, expected %s", foundPath, configPath)
	}
}

func TestLoadNoConfig(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, path, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil config, got %v", cfg)
	}
	if path != "" {
		t.Errorf("expected empty path, got %s", path)
	}
}

func TestToOptionsLeavesUnsetFieldsAtDefault(t *testing.T) {
	trueVal := true
	cfg := &Config{SpansEnabled: &trueVal}

	opts := cfg.ToOptions()
	if opts.SpansEnabled != true {
		t.Errorf("SpansEnabled: got %v, want true", opts.SpansEnabled)
	}
	if opts.ConstantFoldedAST != nil {
		t.Errorf("ConstantFoldedAST: expected nil (unset in config), got %v", opts.ConstantFoldedAST)
	}
}

func TestMergeCLIOverridesConfig(t *testing.T) {
	falseVal := false
	trueVal := true
	cfg := &Config{SpansEnabled: &falseVal}

	opts := cfg.Merge(MergeOptions{SpansEnabled: &trueVal})
	if opts.SpansEnabled != true {
		t.Errorf("SpansEnabled: got %v, want true (CLI override)", opts.SpansEnabled)
	}
}

func TestConfigFileNamesPriority(t *testing.T) {
	tmpDir := t.TempDir()

	rcPath := filepath.Join(tmpDir, ".vellumrc")
	if err := os.WriteFile(rcPath, []byte(`{"spansEnabled": true}`), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, foundPath, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if filepath.Base(foundPath) != ".vellumrc" {
		t.Errorf("expected .vellumrc, got %s", filepath.Base(foundPath))
	}

	jsonPath := filepath.Join(tmpDir, "vellum.json")
	if err := os.WriteFile(jsonPath, []byte(`{"spansEnabled": false}`), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, foundPath, err = Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if filepath.Base(foundPath) != "vellum.json" {
		t.Errorf("expected vellum.json (higher priority), got %s", filepath.Base(foundPath))
	}
}
