package audit

import (
	"os"
	"testing"
)

func TestSanitiseKey(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"secret with value", "QDRANT_API_KEY", "qd-secret-1", "set"},
		{"secret empty", "QDRANT_API_KEY", "", "unset"},
		{"plain with value", "MODEL_PROVIDER", "ollama", "ollama"},
		{"plain empty", "MODEL_PROVIDER", "", "unset"},
		{"unknown key passes through", "SOME_OTHER_VAR", "hello", "hello"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitiseKey(tc.key, tc.value); got != tc.want {
				t.Errorf("SanitiseKey(%q, %q) = %q, want %q", tc.key, tc.value, got, tc.want)
			}
		})
	}
}

func TestSanitiseKey_AllSecretsCovered(t *testing.T) {
	t.Parallel()

	for key := range secretEnvKeys {
		if got := SanitiseKey(key, "value-that-must-not-leak"); got != "set" {
			t.Errorf("secret key %s leaked through SanitiseKey: %q", key, got)
		}
	}
}

func TestSanitiseConfigPath(t *testing.T) {
	t.Parallel()

	if got := sanitiseConfigPath(""); got != "none" {
		t.Errorf("empty path: expected none, got %q", got)
	}
	if got := sanitiseConfigPath("/etc/deskai/config.yaml"); got != "/etc/deskai/config.yaml" {
		t.Errorf("absolute path should pass through, got %q", got)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	if got := sanitiseConfigPath(home + "/.deskai/config.yaml"); got != "~/.deskai/config.yaml" {
		t.Errorf("home-relative path: expected ~/.deskai/config.yaml, got %q", got)
	}
}
