package commands

import (
	"strings"
	"testing"
)

func TestConfigValidateOK(t *testing.T) {
	setupTestEnv(t)

	path := writeTestFile(t, "good.yaml", `
policy:
  voice_ok: 0.70
  voice_strong: 0.85
`)
	stdout, stderr, code := runCmd(t, "config", "validate", path)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "0.70/0.85") {
		t.Fatalf("expected resolved thresholds, got: %s", stdout)
	}
}

func TestConfigValidateBadThresholds(t *testing.T) {
	setupTestEnv(t)

	path := writeTestFile(t, "bad.yaml", `
policy:
  voice_ok: 0.90
  voice_strong: 0.60
`)
	_, stderr, code := runCmd(t, "config", "validate", path)
	if code == 0 {
		t.Fatal("expected failure for ok > strong")
	}
	if !strings.Contains(stderr, "voice") {
		t.Fatalf("expected voice threshold error, got: %s", stderr)
	}
}

func TestConfigShow(t *testing.T) {
	setupTestEnv(t)

	stdout, _, code := runCmd(t, "config", "show")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, "voice_ok") {
		t.Fatalf("expected yaml config dump, got: %s", stdout)
	}
}
