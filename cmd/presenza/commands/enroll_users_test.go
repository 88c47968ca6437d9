package commands

import (
	"strings"
	"testing"
)

func embeddingFile(t *testing.T, name string) string {
	t.Helper()
	return writeTestFile(t, name, "[0.1, 0.2, 0.3]\n")
}

func enrollTestUser(t *testing.T, name string) {
	t.Helper()
	v := embeddingFile(t, "v.yaml")
	f := embeddingFile(t, "f.yaml")
	_, stderr, code := runCmd(t, "enroll", "--name", name,
		"--voice", v, "--voice", v, "--voice", v,
		"--face", f, "--face", f, "--face", f)
	if code != 0 {
		t.Fatalf("enroll failed: %s", stderr)
	}
}

func TestEnrollAndList(t *testing.T) {
	setupTestEnv(t)

	enrollTestUser(t, "maria lopez")

	stdout, _, code := runCmd(t, "users", "list")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, "Maria Lopez") {
		t.Fatalf("expected 'Maria Lopez' in list, got: %s", stdout)
	}
}

func TestEnrollIncomplete(t *testing.T) {
	setupTestEnv(t)

	v := embeddingFile(t, "v.yaml")
	_, stderr, code := runCmd(t, "enroll", "--name", "maria", "--voice", v)
	if code == 0 {
		t.Fatal("expected failure with too few samples")
	}
	if !strings.Contains(stderr, "--partial") {
		t.Fatalf("expected hint about --partial, got: %s", stderr)
	}

	// --partial accepts whatever was collected.
	_, stderr, code = runCmd(t, "enroll", "--name", "maria", "--voice", v, "--partial")
	if code != 0 {
		t.Fatalf("partial enroll failed: %s", stderr)
	}
}

func TestEnrollBadName(t *testing.T) {
	setupTestEnv(t)

	_, _, code := runCmd(t, "enroll", "--name", "12345", "--partial")
	if code == 0 {
		t.Fatal("expected failure for name with no alphabetic words")
	}
}

func TestUsersShowAndDelete(t *testing.T) {
	mem := setupTestEnv(t)

	enrollTestUser(t, "maria lopez")
	users, err := mem.Users(t.Context())
	if err != nil || len(users) != 1 {
		t.Fatalf("want 1 user, got %d (err %v)", len(users), err)
	}
	id := users[0].ID

	stdout, _, code := runCmd(t, "users", "show", id)
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, "voiceprints: 3") {
		t.Fatalf("expected 3 voiceprints, got: %s", stdout)
	}

	if _, _, code = runCmd(t, "users", "delete", id); code != 0 {
		t.Fatalf("delete exit %d", code)
	}
	if _, _, code = runCmd(t, "users", "show", id); code == 0 {
		t.Fatal("show after delete should fail")
	}
}

func TestUsersDeleteUnknown(t *testing.T) {
	setupTestEnv(t)

	_, stderr, code := runCmd(t, "users", "delete", "nope")
	if code == 0 {
		t.Fatalf("expected failure, got success (stderr %s)", stderr)
	}
}
