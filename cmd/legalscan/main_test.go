package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"legalscan/internal/legal"
	"legalscan/internal/testsupport"
)

type cliTestEnv struct {
	base       string
	staging    string
	outputRoot string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	for _, key := range []string{"LEGALSCAN_STAGING", "LEGALSCAN_FILTER", "LEGALSCAN_OUTPUT_ROOT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	refs, err := legal.LoadReferences()
	if err != nil {
		t.Fatalf("LoadReferences: %v", err)
	}
	apache, _ := refs.Lookup("asl-2.0")

	staging := filepath.Join(base, "staging")
	testsupport.WriteZip(t, filepath.Join(staging, "a.jar"))
	testsupport.WriteJar(t, filepath.Join(staging, "b.jar"), testsupport.Entry("LICENSE", apache))

	return &cliTestEnv{
		base:       base,
		staging:    staging,
		outputRoot: filepath.Join(base, "out"),
		configPath: filepath.Join(base, "missing.toml"),
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--config", env.configPath, "--env-file", filepath.Join(env.base, "missing.env")}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}

func TestRunCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "run", env.staging, env.outputRoot, "--filter", ".*", "--json")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var report runReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if len(report.Archives) != 2 {
		t.Fatalf("expected 2 archives, got %d", len(report.Archives))
	}
	if len(report.Entities) != 1 {
		t.Fatalf("expected 1 entity, got %+v", report.Entities)
	}
	entity := report.Entities[0]
	if entity.Reference != "asl-2.0" || len(entity.Archives) != 1 || entity.Archives[0] != "b.jar" {
		t.Fatalf("unexpected entity: %+v", entity)
	}
	for _, a := range report.Archives {
		if a.Path == "b.jar" && a.License != entity.ID {
			t.Fatalf("b.jar license = %q, want %q", a.License, entity.ID)
		}
	}
	if report.Catalog == "" {
		t.Fatal("expected catalog path in report")
	}
}

func TestRunCommandTable(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "run", env.staging, env.outputRoot, "--filter", ".*", "--no-catalog")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "b.jar")
	requireContains(t, out, "Undeclared")
	requireContains(t, out, "2 archives")
	if strings.Contains(out, "Catalog:") {
		t.Fatalf("catalog disabled but reported:\n%s", out)
	}
}

func TestRunCommandRequiresStaging(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, env, "run")
	if err == nil || !strings.Contains(err.Error(), "staging.url") {
		t.Fatalf("expected staging.url error, got %v", err)
	}
}

func TestRunCommandReadsEnvFile(t *testing.T) {
	env := setupCLITestEnv(t)
	envFile := filepath.Join(env.base, "test.env")
	content := "LEGALSCAN_STAGING=" + env.staging + "\nLEGALSCAN_OUTPUT_ROOT=" + env.outputRoot + "\nLEGALSCAN_FILTER=.*\n"
	testsupport.WriteFile(t, envFile, content)
	t.Cleanup(func() {
		for _, key := range []string{"LEGALSCAN_STAGING", "LEGALSCAN_FILTER", "LEGALSCAN_OUTPUT_ROOT"} {
			os.Unsetenv(key)
		}
	})

	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", env.configPath, "--env-file", envFile, "run", "--no-catalog"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, stdout.String(), "2 archives")
	if _, err := os.Stat(filepath.Join(env.outputRoot, "repo", "b.jar")); err != nil {
		t.Fatalf("expected mirrored b.jar: %v", err)
	}
}

func TestCrawlCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "crawl", env.staging, "--filter", ".*", "--json")
	if err != nil {
		t.Fatalf("crawl: %v", err)
	}
	var items []resourceJSON
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("decode crawl output: %v", err)
	}
	if len(items) != 2 || items[0].Path != "a.jar" || items[1].Path != "b.jar" {
		t.Fatalf("unexpected resources: %+v", items)
	}
	if _, err := os.Stat(filepath.Join(env.base, "staging", "repo")); !os.IsNotExist(err) {
		t.Fatal("crawl should not mirror anything")
	}
}

func TestScanCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, env, "run", env.staging, env.outputRoot, "--filter", ".*", "--no-catalog"); err != nil {
		t.Fatalf("run: %v", err)
	}

	out, _, err := runCLI(t, env, "scan", env.outputRoot, "--no-catalog", "--json")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	var report runReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(report.Archives) != 2 || len(report.Entities) != 1 {
		t.Fatalf("unexpected scan report: %+v", report)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.base, "config.toml")

	out, _, err := runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}

	// The sample leaves staging.url empty, so validation fails until it is set.
	env.configPath = target
	if _, _, err := runCLI(t, env, "config", "validate"); err == nil {
		t.Fatal("expected validation failure without staging url")
	}

	configured := "[staging]\nurl = \"https://repo.example.org/staging/\"\n"
	testsupport.WriteFile(t, target, configured)
	out, _, err = runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Output root: ")
	requireContains(t, out, "staging")
}

func TestWriteJSONKeepsLicenseTextVerbatim(t *testing.T) {
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	text := "Copyright <Acme & Sons>"
	if err := writeJSON(cmd, map[string]string{"text": text}); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}
	requireContains(t, out.String(), `"text": "Copyright <Acme & Sons>"`)
}
