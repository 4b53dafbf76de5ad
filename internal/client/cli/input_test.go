package cli

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

func TestGetSimpleText(t *testing.T) {
	t.Run("trims the line", func(t *testing.T) {
		var w bytes.Buffer
		r := bufio.NewReader(strings.NewReader("  Dr. Who  \n"))
		got, err := GetSimpleText(r, "Enter full name", &w)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "Dr. Who" {
			t.Fatalf("got %q, want %q", got, "Dr. Who")
		}
		if !strings.Contains(w.String(), "Enter full name") {
			t.Fatalf("prompt not written: %q", w.String())
		}
	})

	t.Run("partial line at EOF is returned", func(t *testing.T) {
		var w bytes.Buffer
		r := bufio.NewReader(strings.NewReader("PSY9-3N6R"))
		got, err := GetSimpleText(r, "Enter your access code", &w)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "PSY9-3N6R" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("empty input at EOF is an error", func(t *testing.T) {
		var w bytes.Buffer
		r := bufio.NewReader(strings.NewReader(""))
		if _, err := GetSimpleText(r, "Enter email", &w); err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}

func TestGetPassword(t *testing.T) {
	orig := readPassword
	defer func() { readPassword = orig }()
	readPassword = func(int) ([]byte, error) { return []byte("secret1"), nil }

	var w bytes.Buffer
	pw, err := GetPassword(&w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(pw) != "secret1" {
		t.Fatalf("got %q", pw)
	}
	if !strings.Contains(w.String(), "Enter password") {
		t.Fatalf("prompt not written: %q", w.String())
	}
}

func TestGetMultiline(t *testing.T) {
	var w bytes.Buffer
	r := bufio.NewReader(strings.NewReader("line one\nline two\n\nignored\n"))
	got, err := GetMultiline(r, "Enter analysis", &w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "line one\nline two" {
		t.Fatalf("got %q", got)
	}
}
