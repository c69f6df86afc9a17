// Package memotest holds small fixtures shared across the memo package's
// scenario tests: a fake compiler action body, standing in for the kind of
// external toolchain step this module is meant to memoize, without pulling
// in an actual compiler.
package memotest

import (
	"os"
	"path/filepath"
	"testing"
)

// Compile simulates a one-file toolchain step by copying src's content to
// out, the way a real compiler would turn a source file into an object
// file. It has no dependency on the memo package itself so it can be
// imported from memo's own in-package tests without an import cycle.
func Compile(src, out string) (string, error) {
	content, err := os.ReadFile(src)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(out, content, 0o644); err != nil {
		return "", err
	}
	return out, nil
}

// WriteFile writes content to dir/name and returns the full path, failing
// the test immediately on error rather than forcing every call site to
// check it.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
