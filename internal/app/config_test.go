package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewConfigDefaults(t *testing.T) {
	config := NewConfig()
	if len(config.Suites) != 1 || config.Suites[0].Name != "nestest" || config.Suites[0].StartPC != "C000" {
		t.Errorf("Unexpected default suites %+v", config.Suites)
	}
	if config.Run.Parallel != 1 || config.Run.ResetCycles != 7 {
		t.Errorf("Unexpected run defaults %+v", config.Run)
	}
	if config.Trace.Color != ColorAuto || !config.Trace.StopOnMismatch {
		t.Errorf("Unexpected trace defaults %+v", config.Trace)
	}
	if config.IsLoaded() {
		t.Error("Default config should not be marked loaded")
	}
}

func TestLoadFromFileWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "locones.json")
	config := NewConfig()
	if err := config.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Expected defaults written: %v", err)
	}
	if config.GetConfigPath() != path {
		t.Errorf("GetConfigPath() = %q", config.GetConfigPath())
	}
}

func TestLoadFromFileDefaultPathsStable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "config")
	path := filepath.Join(dir, "locones.json")

	first := NewConfig()
	if err := first.LoadFromFile(path); err != nil {
		t.Fatalf("first LoadFromFile failed: %v", err)
	}
	second := NewConfig()
	if err := second.LoadFromFile(path); err != nil {
		t.Fatalf("second LoadFromFile failed: %v", err)
	}

	want := filepath.Join(dir, "testdata", "nestest.nes")
	if first.Suites[0].ROM != want || second.Suites[0].ROM != want {
		t.Errorf("ROM paths differ between runs: first %q, second %q, want %q",
			first.Suites[0].ROM, second.Suites[0].ROM, want)
	}
	if first.Suites[0].Log != second.Suites[0].Log {
		t.Errorf("Log paths differ between runs: %q vs %q", first.Suites[0].Log, second.Suites[0].Log)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "locones.json")
	data := `{
  "suites": [
    {"rom": "roms/nestest.nes", "log": "/abs/nestest.log", "start_pc": "$C000", "max_steps": -4},
    {"name": "other", "rom": "other.nes", "log": "other.log"}
  ],
  "trace": {"color": "sometimes", "context": -1},
  "run": {"parallel": 0, "reset_cycles": 7}
}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	config := NewConfig()
	if err := config.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if !config.IsLoaded() {
		t.Error("Expected loaded config")
	}
	if len(config.Suites) != 2 {
		t.Fatalf("Expected 2 suites, got %d", len(config.Suites))
	}

	s := config.Suites[0]
	if s.Name != "nestest" {
		t.Errorf("Expected name derived from ROM, got %q", s.Name)
	}
	if s.ROM != filepath.Join(dir, "roms", "nestest.nes") || s.Log != "/abs/nestest.log" {
		t.Errorf("Unexpected paths rom=%q log=%q", s.ROM, s.Log)
	}
	if s.MaxSteps != 0 {
		t.Errorf("Expected negative max_steps normalised to 0, got %d", s.MaxSteps)
	}
	if config.Trace.Color != ColorAuto || config.Trace.Context != 0 || config.Run.Parallel != 1 {
		t.Errorf("Expected normalised settings, got %+v %+v", config.Trace, config.Run)
	}
	if _, ok := config.Suite("other"); !ok {
		t.Error("Expected suite lookup by name")
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		field string
	}{
		{"missing rom", `{"suites": [{"log": "a.log"}]}`, "suites[0].rom"},
		{"missing log", `{"suites": [{"rom": "a.nes"}]}`, "suites[0].log"},
		{"bad start", `{"suites": [{"rom": "a.nes", "log": "a.log", "start_pc": "zz"}]}`, "suites[0].start_pc"},
		{"duplicate", `{"suites": [{"rom": "a.nes", "log": "a.log"}, {"rom": "x/a.nes", "log": "b.log"}]}`, "suites[1].name"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.json")
			if err := os.WriteFile(path, []byte(test.data), 0644); err != nil {
				t.Fatal(err)
			}
			err := NewConfig().LoadFromFile(path)
			var cerr *ConfigError
			if !errors.As(err, &cerr) || cerr.Field != test.field {
				t.Errorf("Expected ConfigError on %s, got %v", test.field, err)
			}
		})
	}

	t.Run("bad json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "c.json")
		if err := os.WriteFile(path, []byte("{"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := NewConfig().LoadFromFile(path); err == nil {
			t.Error("Expected parse error")
		}
	})
}

func TestEntryPoint(t *testing.T) {
	tests := []struct {
		in     string
		pc     uint16
		ok     bool
		hasErr bool
	}{
		{"", 0, false, false},
		{"C000", 0xC000, true, false},
		{"0xc000", 0xC000, true, false},
		{"$8000", 0x8000, true, false},
		{" 1234 ", 0x1234, true, false},
		{"10000", 0, false, true},
		{"nope", 0, false, true},
	}
	for _, test := range tests {
		pc, ok, err := SuiteConfig{StartPC: test.in}.EntryPoint()
		if pc != test.pc || ok != test.ok || (err != nil) != test.hasErr {
			t.Errorf("EntryPoint(%q) = %04X, %v, %v", test.in, pc, ok, err)
		}
	}
}

func TestSaveAndClone(t *testing.T) {
	config := NewConfig()
	config.Trace.PrintTrace = true

	path := filepath.Join(t.TempDir(), "c.json")
	if err := config.SaveToFile(path); err != nil {
		t.Fatal(err)
	}
	clone := config.Clone()
	clone.Suites[0].Name = "changed"
	if config.Suites[0].Name != "nestest" || !clone.Trace.PrintTrace || clone.GetConfigPath() != path {
		t.Errorf("Clone is not a deep copy")
	}
	if err := clone.SaveToFile(path); err != nil {
		t.Fatal(err)
	}

	reloaded := NewConfig()
	if err := reloaded.LoadFromFile(path); err != nil {
		t.Fatal(err)
	}
	if _, ok := reloaded.Suite("changed"); !ok {
		t.Error("Expected saved clone to be reloaded")
	}
}

func TestUseSuite(t *testing.T) {
	config := NewConfig()
	if err := config.UseSuite(SuiteConfig{ROM: "x/cpu.nes", Log: "x/cpu.log", StartPC: "8000"}); err != nil {
		t.Fatalf("UseSuite failed: %v", err)
	}
	if len(config.Suites) != 1 || config.Suites[0].Name != "cpu" {
		t.Errorf("Unexpected suites %+v", config.Suites)
	}
	if err := config.UseSuite(SuiteConfig{ROM: "x/cpu.nes"}); err == nil {
		t.Error("Expected missing log to be rejected")
	}
}
