package application

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/cleanse/internal/config"
	"github.com/JonMunkholm/cleanse/internal/core"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Pipeline: config.PipelineConfig{
			CountriesFile:  writeFile(t, dir, "countries.txt", "United States\nFrance\n"),
			AliasesFile:    writeFile(t, dir, "aliases.yaml", "USA: United States\n"),
			LogDir:         filepath.Join(dir, "logs"),
			MatchThreshold: 90,
			EmailDomain:    "corp.io",
		},
	}
}

func TestOpen_InMemory(t *testing.T) {
	cfg := testConfig(t)
	app, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer app.Close()

	if _, ok := app.History.(*core.MemoryHistory); !ok {
		t.Errorf("History = %T, want *core.MemoryHistory", app.History)
	}
	if app.Pipeline.Threshold() != 90 || app.Pipeline.Countries().Len() != 2 {
		t.Errorf("pipeline threshold %d, countries %d", app.Pipeline.Threshold(), app.Pipeline.Countries().Len())
	}
	if got := filepath.Dir(app.Logs.Detection.Path()); got != cfg.Pipeline.LogDir {
		t.Errorf("log dir = %q, want %q", got, cfg.Pipeline.LogDir)
	}

	r := app.Resetter()
	if r.History != nil {
		t.Error("memory history should not be resettable")
	}
}

func TestNewPipeline_MissingReference(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.CountriesFile = filepath.Join(t.TempDir(), "missing.txt")

	if _, err := NewPipeline(cfg); !errors.Is(err, core.ErrReferenceFile) {
		t.Errorf("NewPipeline() error = %v, want ErrReferenceFile", err)
	}
}

func TestConnect_BadURL(t *testing.T) {
	_, err := Connect(context.Background(), config.DatabaseConfig{URL: "postgres://%zz"})
	if err == nil {
		t.Error("Connect() with malformed URL succeeded")
	}
}
