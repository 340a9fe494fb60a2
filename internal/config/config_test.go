package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load returned error for missing file: %v", err)
	}
	if c.Barrel.AutosaveIntervalSec != 60 {
		t.Fatalf("expected default autosave interval 60, got %d", c.Barrel.AutosaveIntervalSec)
	}
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "googol.yaml")
	content := `
rmi:
  host: 10.0.0.1
  port: 4321
barrels:
  count: 3
  prefix: node
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if c.RMI.Host != "10.0.0.1" || c.RMI.Port != 4321 {
		t.Fatalf("unexpected rmi config: %+v", c.RMI)
	}
	if c.Barrels.Count != 3 || c.Barrels.Prefix != "node" {
		t.Fatalf("unexpected barrels config: %+v", c.Barrels)
	}
	if c.BarrelName(1) != "node1" {
		t.Fatalf("BarrelName(1) = %q, want node1", c.BarrelName(1))
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("BARRELS_COUNT", "7")
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.Barrels.Count != 7 {
		t.Fatalf("expected env override to set Barrels.Count=7, got %d", c.Barrels.Count)
	}
}
