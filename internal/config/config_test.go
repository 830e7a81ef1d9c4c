package config

import (
	"os"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func validConfig(t *testing.T) Config {
	t.Helper()
	return Config{Token: "secret", Port: 8000, Workdir: t.TempDir(), ExecTimeout: 30}
}

func TestValidateOK(t *testing.T) {
	cfg := validConfig(t)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateMissingToken(t *testing.T) {
	cfg := validConfig(t)
	cfg.Token = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "GOSESSION_TOKEN") {
		t.Fatalf("err = %v", err)
	}
}

func TestValidatePortRange(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := validConfig(t)
		cfg.Port = port
		if err := cfg.Validate(); err == nil {
			t.Fatalf("port %d accepted", port)
		}
	}
}

func TestValidateNegativeTimeout(t *testing.T) {
	cfg := validConfig(t)
	cfg.ExecTimeout = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative timeout accepted")
	}

	cfg = validConfig(t)
	cfg.ExecTimeout = 0 // disables timeouts, still valid
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero timeout rejected: %v", err)
	}
}

func TestValidateWorkdir(t *testing.T) {
	cfg := validConfig(t)
	cfg.Workdir = "/no/such/directory"
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing workdir accepted")
	}

	// Empty workdir defaults to the process cwd.
	cfg = validConfig(t)
	cfg.Workdir = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	cwd, _ := os.Getwd()
	if cfg.Workdir != cwd {
		t.Fatalf("workdir = %q, want %q", cfg.Workdir, cwd)
	}
}

func TestLoadReadsViperKeys(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("token", "tok")
	viper.Set("port", 9001)
	viper.Set("workdir", "/tmp")
	viper.Set("exec_timeout", 5)

	cfg := Load()
	if cfg.Token != "tok" || cfg.Port != 9001 || cfg.Workdir != "/tmp" || cfg.ExecTimeout != 5 {
		t.Fatalf("cfg = %+v", cfg)
	}
}
