package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T, base string) string {
	t.Helper()
	dataDir := filepath.Join(base, "data")
	logDir := filepath.Join(base, "logs")
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nlog_dir = %q\n\n[tmdb]\napi_key = \"test\"\n\n[logging]\nformat = \"json\"\nlevel = \"error\"\n",
		dataDir,
		logDir,
	)
	configPath := filepath.Join(base, "config.toml")
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestCLIInitAndStatus(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)

	out, _, err := runCLI(t, configPath, "init")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	requireContains(t, out, "Ready")

	out, _, err = runCLI(t, configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Watch entries:     0")
	requireContains(t, out, "No enrichment run recorded")
}

func TestCLIImportCommand(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)

	csvPath := filepath.Join(base, "ratings.csv")
	csvData := "Const,Your Rating,Date Rated,Title,Title Type,Year\n" +
		"tt0133093,9,2024-03-10,The Matrix,Movie,1999\n" +
		"tt0234215,7,2024-03-11,The Matrix Reloaded,Movie,2003\n"
	if err := os.WriteFile(csvPath, []byte(csvData), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	out, _, err := runCLI(t, configPath, "import", csvPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	requireContains(t, out, "Imported 2 of 2 rows")

	out, _, err = runCLI(t, configPath, "import", csvPath)
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	requireContains(t, out, "(2 already present)")

	out, _, err = runCLI(t, configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Watch entries:     2")
}

func TestCLIEnrichEmptyBacklog(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)

	if _, _, err := runCLI(t, configPath, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}

	out, _, err := runCLI(t, configPath, "enrich")
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	requireContains(t, out, "processed 0")
}

func TestCLIEnrichRejectsUnknownProvider(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)

	_, _, err := runCLI(t, configPath, "enrich", "imdb")
	if err == nil || !strings.Contains(err.Error(), "unknown provider") {
		t.Fatalf("expected unknown provider error, got %v", err)
	}
}

func TestCLIShowMissingRecord(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)

	_, _, err := runCLI(t, configPath, "show", "tt9999999")
	if err == nil || !strings.Contains(err.Error(), "no record found") {
		t.Fatalf("expected lookup failure, got %v", err)
	}
}

func TestCLIConfigShowRedactsKeys(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)

	out, _, err := runCLI(t, configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "[paths]")
	requireContains(t, out, "****")
	if strings.Contains(out, "api_key = 'test'") || strings.Contains(out, `api_key = "test"`) {
		t.Fatalf("expected api key to be redacted: %q", out)
	}
}

func TestCLIConfigInit(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "cinescope.toml")

	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, stdout.String(), "Wrote sample configuration")

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample config: %v", err)
	}
	requireContains(t, string(data), "[tmdb]")

	cmd = newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected overwrite refusal, got %v", err)
	}
}
