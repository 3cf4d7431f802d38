package main

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
)

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("failed to read stdout: %v", err)
	}
	return buf.String()
}

func TestMustInt(t *testing.T) {
	if got := mustInt("42"); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestPrintResponseIndentsJSON(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(`{"user_id":1,"balance":"100.00"}`)),
	}

	out := captureOutput(t, func() {
		printResponse(resp)
	})

	if !strings.Contains(out, "\"user_id\": 1") {
		t.Fatalf("expected indented JSON, got %q", out)
	}
}
