package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.Remote = "https://artifacts.example.org/softsim"
	cfg.Datasets[0].Name = "bbcsport"

	if err := Save(root, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if got.Remote != cfg.Remote {
		t.Errorf("Remote = %q, want %q", got.Remote, cfg.Remote)
	}
	if got.Datasets[0].Name != "bbcsport" {
		t.Errorf("dataset name = %q", got.Datasets[0].Name)
	}
	// Defaults are filled in on load.
	if got.Datasets[0].ValidationFraction != 0.2 {
		t.Errorf("validation fraction = %v, want 0.2", got.Datasets[0].ValidationFraction)
	}
	if got.Seed != 42 {
		t.Errorf("seed = %d, want 42", got.Seed)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected error for missing config")
	}
}

func TestGetEnvValue(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(DotEnvPath(root), []byte(EnvRemoteToken+"=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	v, err := GetEnvValue(root, EnvRemoteToken)
	if err != nil {
		t.Fatal(err)
	}
	if v != "from-file" {
		t.Errorf("value = %q, want from-file", v)
	}

	// Process environment wins.
	t.Setenv(EnvRemoteToken, "from-env")
	v, err = GetEnvValue(root, EnvRemoteToken)
	if err != nil {
		t.Fatal(err)
	}
	if v != "from-env" {
		t.Errorf("value = %q, want from-env", v)
	}
}

func TestEnsureDotEnvTemplate(t *testing.T) {
	root := t.TempDir()
	if err := EnsureDotEnvTemplate(root); err != nil {
		t.Fatal(err)
	}
	body, err := os.ReadFile(filepath.Join(root, ".env"))
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != EnvRemoteToken+"=\n" {
		t.Errorf("template body = %q", body)
	}

	// Existing file is left alone.
	if err := os.WriteFile(DotEnvPath(root), []byte("custom"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := EnsureDotEnvTemplate(root); err != nil {
		t.Fatal(err)
	}
	body, _ = os.ReadFile(DotEnvPath(root))
	if string(body) != "custom" {
		t.Error("template overwrote existing .env")
	}
}
