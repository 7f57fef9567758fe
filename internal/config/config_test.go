package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/lvillar/pdfgen"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv(PathEnvVar, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Addr() != "0.0.0.0:3000" {
		t.Errorf("addr = %q", cfg.Addr())
	}
	if diff := cmp.Diff([]string{"GET", "POST"}, cfg.CORS.AllowedMethods); diff != "" {
		t.Errorf("methods (-want +got):\n%s", diff)
	}
	if cfg.NocoBase.BreakerOpenTimeout != 30*time.Second {
		t.Errorf("open timeout = %v", cfg.NocoBase.BreakerOpenTimeout)
	}
	if cfg.NocoBase.Directory.Configured() {
		t.Error("directory should not be configured by default")
	}
}

func TestLoadFile(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "pdfgen.yaml")
	yaml := `
server:
  port: 8080
  write_timeout: 45s
rate_limit:
  enabled: false
nocobase:
  directory:
    url: https://directory.example.com/
    token: dir-token
    app: directory
  breaker_failure_ratio: 0.25
logging:
  level: debug
  format: console
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Server.WriteTimeout != 45*time.Second {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("read timeout lost its default: %v", cfg.Server.ReadTimeout)
	}
	if cfg.RateLimit.Enabled {
		t.Error("rate limit should be disabled")
	}
	if !cfg.NocoBase.Directory.Configured() || cfg.NocoBase.Directory.App != "directory" {
		t.Errorf("directory = %+v", cfg.NocoBase.Directory)
	}
	if cfg.NocoBase.BreakerFailureRatio != 0.25 {
		t.Errorf("ratio = %v", cfg.NocoBase.BreakerFailureRatio)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoadFileFromEnv(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "elsewhere.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(PathEnvVar, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
}

func TestLoadLegacyEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv(PathEnvVar, "")
	t.Setenv("PORT", "4000")
	t.Setenv("USERNOCOURL", "https://users.example.com/")
	t.Setenv("USERNOCOTOKEN", "legacy")
	t.Setenv("USERNOCOHOST", "users.example.com")
	t.Setenv("DATABASE_URI", "https://data.example.com/")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := StoreConfig{URL: "https://users.example.com/", Token: "legacy", Host: "users.example.com"}
	if diff := cmp.Diff(want, cfg.NocoBase.Directory); diff != "" {
		t.Errorf("directory (-want +got):\n%s", diff)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("port = %d, want 4000", cfg.Server.Port)
	}
	if cfg.NocoBase.Default.URL != "https://data.example.com/" {
		t.Errorf("default url = %q", cfg.NocoBase.Default.URL)
	}
}

func TestPrefixedEnvWins(t *testing.T) {
	chdirTemp(t)
	t.Setenv(PathEnvVar, "")
	t.Setenv("PORT", "4000")
	t.Setenv("PDFGEN_SERVER__PORT", "5000")
	t.Setenv("PDFGEN_NOCOBASE__DIRECTORY__APP", "crm")
	t.Setenv("PDFGEN_CORS__ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.NocoBase.Directory.App != "crm" {
		t.Errorf("app = %q", cfg.NocoBase.Directory.App)
	}
	if diff := cmp.Diff([]string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins); diff != "" {
		t.Errorf("origins (-want +got):\n%s", diff)
	}
}

func TestListEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv(PathEnvVar, "")
	t.Setenv("PDFGEN_ASSETS__ALLOWED_HOSTS", " cdn.example.com , *.images.example.com,")
	t.Setenv("PDFGEN_CORS__ALLOWED_METHODS", "GET,POST,OPTIONS")
	t.Setenv("PDFGEN_NOCOBASE__DEFAULT__APP", "crm,erp")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff([]string{"cdn.example.com", "*.images.example.com"}, cfg.Assets.AllowedHosts); diff != "" {
		t.Errorf("hosts (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"GET", "POST", "OPTIONS"}, cfg.CORS.AllowedMethods); diff != "" {
		t.Errorf("methods (-want +got):\n%s", diff)
	}
	if cfg.NocoBase.Default.App != "crm,erp" {
		t.Errorf("scalar value split: %q", cfg.NocoBase.Default.App)
	}
}

func TestLoadInvalid(t *testing.T) {
	chdirTemp(t)
	t.Setenv(PathEnvVar, "")
	t.Setenv("PDFGEN_SERVER__PORT", "70000")

	_, err := Load("")
	var verr *pdfgen.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *pdfgen.ValidationError", err)
	}
	if !verr.HasField("Server.Port") {
		t.Errorf("fields = %+v", verr.Fields)
	}
}

func TestLoadMissingFile(t *testing.T) {
	chdirTemp(t)
	if _, err := Load("does-not-exist.yaml"); err == nil {
		t.Fatal("expected an error for an explicit missing file")
	}
}
