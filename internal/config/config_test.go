package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Scenario != "harmonic" {
		t.Errorf("expected scenario harmonic, got %s", cfg.Scenario)
	}
	if cfg.Integrator != "verlet" {
		t.Errorf("expected integrator verlet, got %s", cfg.Integrator)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.T1 <= cfg.T0 {
		t.Error("t1 should follow t0")
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := []byte(`
scenario: kepler
dt: 0.002
particles:
  mass: [1, 0.001]
force:
  softening: 0
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scenario != "kepler" || cfg.Dt != 0.002 {
		t.Errorf("got scenario %s dt %v", cfg.Scenario, cfg.Dt)
	}
	if cfg.Integrator != DefaultIntegrator || cfg.T1 != DefaultT1 {
		t.Errorf("defaults lost: integrator %s t1 %v", cfg.Integrator, cfg.T1)
	}
	if cfg.Force.Softening != 0 || cfg.Force.G != DefaultG {
		t.Errorf("force = %+v", cfg.Force)
	}
	if len(cfg.Particles.Mass) != 2 || cfg.Particles.Mass[1] != 0.001 {
		t.Errorf("mass = %v", cfg.Particles.Mass)
	}
}

func TestLoadOver_KeepsBase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	if err := os.WriteFile(path, []byte("t1: 4\n"), 0644); err != nil {
		t.Fatal(err)
	}

	base := GetPreset("harmonic", "stiff")
	cfg, err := LoadOver(path, base)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.T1 != 4 {
		t.Errorf("t1 = %v, want 4", cfg.T1)
	}
	if cfg.Force.K != 100 || cfg.Dt != 0.001 {
		t.Errorf("preset values lost: k %v dt %v", cfg.Force.K, cfg.Dt)
	}
	if base.T1 != 10 {
		t.Error("base was modified")
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("dt: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	cfg := GetPreset("constant", "projectile")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Scenario != "constant" || got.Dt != 0.001 {
		t.Errorf("got %+v", got)
	}
	if v := got.Particles.Velocities; len(v) != 1 || v[0][1] != 10 {
		t.Errorf("velocities = %v", v)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("harmonic", "stiff")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Force.K != 100 {
		t.Errorf("expected k 100, got %f", cfg.Force.K)
	}
}

func TestGetPreset_ReturnsCopy(t *testing.T) {
	a := GetPreset("constant", "projectile")
	a.Particles.Velocities[0][0] = 99
	a.Dt = 1

	b := GetPreset("constant", "projectile")
	if b.Particles.Velocities[0][0] != 5 || b.Dt != 0.001 {
		t.Error("editing a preset copy leaked into the table")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("harmonic", "nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("nonexistent", "unit") != nil {
		t.Error("expected nil for nonexistent scenario")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("harmonic")
	want := []string{"coarse", "stiff", "unit"}
	if len(presets) != len(want) {
		t.Fatalf("got %v, want %v", presets, want)
	}
	for i := range want {
		if presets[i] != want[i] {
			t.Errorf("got %v, want %v", presets, want)
		}
	}

	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent scenario")
	}
}

func TestPresetsMatchScenario(t *testing.T) {
	for _, scenario := range Scenarios() {
		for _, name := range ListPresets(scenario) {
			cfg := GetPreset(scenario, name)
			if cfg.Scenario != scenario {
				t.Errorf("%s/%s has scenario %s", scenario, name, cfg.Scenario)
			}
			if cfg.Dt <= 0 || cfg.T1 <= cfg.T0 {
				t.Errorf("%s/%s has bad time range", scenario, name)
			}
		}
	}
}
