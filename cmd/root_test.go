package cmd

import (
	goruntime "runtime"
	"slices"
	"testing"

	"github.com/mj1618/desktop-pilot/internal/platform"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	expected := []string{"run", "interactive", "do", "parse", "ground", "screenshot", "models", "serve"}
	commands := rootCmd.Commands()

	found := make(map[string]bool)
	for _, c := range commands {
		found[c.Name()] = true
	}

	for _, name := range expected {
		if !found[name] {
			t.Errorf("expected subcommand %q not found", name)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	if rootCmd.Version == "" {
		t.Error("root command version should be set")
	}
}

func TestRootCommand_FlagsBoundToConfig(t *testing.T) {
	for _, name := range []string{"config", "format", "pretty", "log-level", "provider", "model", "backend", "max-retries"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("persistent flag --%s missing", name)
		}
	}
	for _, name := range []string{"transport", "port", "metrics-addr"} {
		if serveCmd.Flags().Lookup(name) == nil {
			t.Errorf("serve flag --%s missing", name)
		}
	}
}

func TestBackendsRegistered(t *testing.T) {
	backends := platform.Backends()
	if !slices.Contains(backends, "browser") {
		t.Errorf("browser backend should be available on every host, got %v", backends)
	}
	if goruntime.GOOS != "darwin" && slices.Contains(backends, "desktop") {
		t.Errorf("desktop backend registered on %s", goruntime.GOOS)
	}
}
