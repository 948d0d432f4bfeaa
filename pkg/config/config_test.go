package config

import (
	"strings"
	"testing"

	"github.com/lemonberrylabs/webrpg-engine/pkg/chat"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Host != "0.0.0.0" || cfg.Port != 8787 || cfg.GRPCPort != 8788 {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Mode() != chat.ModeAdditive {
		t.Errorf("mode = %q", cfg.Mode())
	}
	if cfg.Addr() != "0.0.0.0:8787" || cfg.GRPCAddr() != "0.0.0.0:8788" {
		t.Errorf("addrs = %s %s", cfg.Addr(), cfg.GRPCAddr())
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("WEBRPG_HOST", "127.0.0.1")
	t.Setenv("WEBRPG_PORT", "9000")
	t.Setenv("WEBRPG_GRPC_PORT", "9001")
	t.Setenv("WEBRPG_RULESETS_DIR", "/srv/rules")
	t.Setenv("WEBRPG_DEFAULT_MODE", "eote")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr() != "127.0.0.1:9000" || cfg.RuleSetsDir != "/srv/rules" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Mode() != chat.ModeNarrative {
		t.Errorf("mode = %q, want narrative-pool", cfg.Mode())
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad port", map[string]string{"WEBRPG_PORT": "not-an-int"}, "parse env:"},
		{"port range", map[string]string{"WEBRPG_PORT": "70000"}, "invalid port"},
		{"same ports", map[string]string{"WEBRPG_PORT": "9000", "WEBRPG_GRPC_PORT": "9000"}, "must differ"},
		{"bad mode", map[string]string{"WEBRPG_DEFAULT_MODE": "gurps"}, "unknown dice mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}
