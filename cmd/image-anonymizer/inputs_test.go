package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/image-anonymizer/internal/config"
)

func TestCollectInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.jpg", "a.PNG", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	single := filepath.Join(dir, "notes.txt")
	missing := filepath.Join(dir, "missing.png")

	got, err := collectInputs([]string{dir, single, missing})
	if err != nil {
		t.Fatalf("collectInputs: %v", err)
	}

	want := []string{
		filepath.Join(dir, "a.PNG"),
		filepath.Join(dir, "b.jpg"),
		single,
		missing,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("inputs mismatch (-want +got):\n%s", diff)
	}
}

func TestOverrides(t *testing.T) {
	ov := overrides{outputDir: "/tmp/out", workers: 4, logLevel: "debug", noObjects: true}

	cfg := config.GetDefaults()
	ov.apply(cfg)
	if cfg.Output.Dir != "/tmp/out" || cfg.Pipeline.Workers != 4 || cfg.Logging.Level != "debug" || cfg.Objects.Enabled {
		t.Errorf("overrides not applied: %+v", cfg)
	}

	// A reloaded file that re-enables objects still honors --no-objects
	reloaded := config.GetDefaults()
	reloaded.Objects.Enabled = true
	reloaded.Output.Dir = "from-file"
	ov.apply(reloaded)
	if reloaded.Objects.Enabled || reloaded.Output.Dir != "/tmp/out" {
		t.Errorf("overrides not reapplied on reload: objects=%v dir=%s", reloaded.Objects.Enabled, reloaded.Output.Dir)
	}

	cfg = config.GetDefaults()
	overrides{}.apply(cfg)
	if diff := cmp.Diff(config.GetDefaults(), cfg); diff != "" {
		t.Errorf("zero overrides changed config (-want +got):\n%s", diff)
	}
}
