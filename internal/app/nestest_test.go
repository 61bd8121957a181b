package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// requireTestFile skips the test when a ROM or log that cannot be shipped
// with the source is missing.
func requireTestFile(t *testing.T, path string) string {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Skipf("missing test artifact %s (copy nestest.nes and nestest.log into testdata/)", path)
	}
	return path
}

func TestNestestConformance(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping nestest in short mode")
	}
	root := filepath.Join("..", "..", "testdata")
	suite := SuiteConfig{
		Name:     "nestest",
		ROM:      requireTestFile(t, filepath.Join(root, "nestest.nes")),
		Log:      requireTestFile(t, filepath.Join(root, "nestest.log")),
		StartPC:  "C000",
		CheckPPU: true,
	}
	config := testConfig(suite)
	config.Trace.Context = 10

	res, err := NewRunner(config, nil).RunSuite(context.Background(), suite)
	if err != nil {
		t.Fatalf("nestest aborted after %d instructions: %v", res.Steps, err)
	}
	for _, f := range res.Failures {
		for _, e := range f.Context {
			t.Logf("  %s", e)
		}
		t.Errorf("%v", f.Mismatch)
	}
	if res.Steps < 8991 {
		t.Errorf("Expected the whole log (8991 lines), ran %d", res.Steps)
	}
}
