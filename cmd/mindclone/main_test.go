package main

import (
	"testing"
	"time"

	"github.com/sasa-gamer47/mindclone/config"
)

func TestResolveDBPathPrefersFlagThenConfig(t *testing.T) {
	cfg := &config.AppConfig{Database: "from-config.db"}

	if got := resolveDBPath("from-flag.db", cfg); got != "from-flag.db" {
		t.Errorf("flag set: %q", got)
	}
	if got := resolveDBPath("", cfg); got != "from-config.db" {
		t.Errorf("flag unset: %q", got)
	}
	if got := resolveDBPath("", &config.AppConfig{}); got != "mindclone.db" {
		t.Errorf("nothing configured: %q", got)
	}
}

func TestInferenceTimeoutFromConfig(t *testing.T) {
	if got := inferenceTimeout(&config.AppConfig{InferenceTimeout: 120}); got != 2*time.Minute {
		t.Errorf("configured timeout = %v", got)
	}
	// Zero defers to the session default instead of disabling the timeout.
	if got := inferenceTimeout(&config.AppConfig{}); got != 0 {
		t.Errorf("unset timeout = %v", got)
	}
}
