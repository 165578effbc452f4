package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTargets(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "targets.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing targets file: %v", err)
	}
	return path
}

func TestLoadTargets(t *testing.T) {
	path := writeTargets(t, `
targets:
  - pincode: "461001"
  - district_id: "302"
    min_age: 45
    tweet_threshold: 10
`)

	targets, err := LoadTargets(path)
	if err != nil {
		t.Fatalf("loading targets: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(targets))
	}
	if targets[0].Pincode != "461001" {
		t.Errorf("unexpected first target: %+v", targets[0])
	}
	if targets[1].DistrictID != "302" || targets[1].MinAge != 45 || targets[1].TweetThreshold != 10 {
		t.Errorf("unexpected second target: %+v", targets[1])
	}
}

func TestLoadTargets_Empty(t *testing.T) {
	path := writeTargets(t, "targets: []\n")
	if _, err := LoadTargets(path); err == nil {
		t.Fatal("expected error for empty targets list")
	}
}

func TestLoadTargets_MissingKeys(t *testing.T) {
	path := writeTargets(t, "targets:\n  - min_age: 18\n")
	if _, err := LoadTargets(path); err == nil {
		t.Fatal("expected error for target without pincode or district_id")
	}
}

func TestLoadTargets_BothKeys(t *testing.T) {
	path := writeTargets(t, "targets:\n  - pincode: \"1\"\n    district_id: \"2\"\n")
	if _, err := LoadTargets(path); err == nil {
		t.Fatal("expected error for target with both pincode and district_id")
	}
}

func TestLoadTargets_MissingFile(t *testing.T) {
	if _, err := LoadTargets(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
