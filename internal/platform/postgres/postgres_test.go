package postgres

import (
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() err=%v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
}

func TestConfigValidate_Rejects(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{name: "missing url", cfg: Config{PingTimeout: time.Second, MaxOpenConns: 1}},
		{name: "zero ping", cfg: Config{URL: "postgres://x", MaxOpenConns: 1}},
		{name: "idle above open", cfg: Config{URL: "postgres://x", PingTimeout: time.Second, MaxOpenConns: 1, MaxIdleConns: 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); err == nil {
				t.Fatalf("Validate() expected error")
			}
		})
	}
}

func TestSchemaDeclaresTables(t *testing.T) {
	for _, table := range []string{"wizard_sessions", "audit_events"} {
		if !strings.Contains(schemaSQL, "CREATE TABLE IF NOT EXISTS "+table) {
			t.Fatalf("schema missing %s", table)
		}
	}
}
