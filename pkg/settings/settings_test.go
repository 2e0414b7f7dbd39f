package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSettings_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")

	s := &Settings{
		DefaultDevice: "srx-edge-1",
		InventoryPath: "/etc/srxprov/inventory.yaml",
		HistoryPath:   "/var/lib/srxprov/history.jsonl",
	}
	if err := s.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.DefaultDevice != "srx-edge-1" {
		t.Errorf("DefaultDevice = %q", loaded.DefaultDevice)
	}
	if loaded.InventoryPath != "/etc/srxprov/inventory.yaml" {
		t.Errorf("InventoryPath = %q", loaded.InventoryPath)
	}
	if loaded.HistoryPath != "/var/lib/srxprov/history.jsonl" {
		t.Errorf("HistoryPath = %q", loaded.HistoryPath)
	}
}

func TestSettings_LoadMissingFile(t *testing.T) {
	s, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadFrom on missing file: %v", err)
	}
	if s.DefaultDevice != "" || s.InventoryPath != "" || s.HistoryPath != "" {
		t.Errorf("missing file should yield empty settings, got %+v", s)
	}
}

func TestSettings_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{corrupt"), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("LoadFrom accepted corrupt JSON")
	}
}
