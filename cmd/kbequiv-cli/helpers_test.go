package main

import (
	"strings"
	"testing"
)

// resetFlags restores global flag state after each test.
func resetFlags(t *testing.T) {
	t.Helper()
	orig := struct{ url, key, fmt string }{flagURL, flagKey, flagFmt}
	t.Cleanup(func() {
		flagURL = orig.url
		flagKey = orig.key
		flagFmt = orig.fmt
		apiClient = nil
	})
}

// isolateEnv points HOME at a temp dir and clears the kbequiv variables.
func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("KBEQUIV_URL", "")
	t.Setenv("KBEQUIV_API_KEY", "")
	return home
}

// execute runs a fresh root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(t)

	var out strings.Builder
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&strings.Builder{})
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	_, err := root.ExecuteC()
	return out.String(), err
}
