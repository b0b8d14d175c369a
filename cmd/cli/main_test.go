package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
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

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected short unchanged, got %q", got)
	}

	if got := truncate("longerstring", 6); got != "lon..." {
		t.Fatalf("expected lon..., got %q", got)
	}
}

func TestPrintJSON(t *testing.T) {
	out := captureOutput(t, func() {
		printJSON(struct {
			A int `json:"a"`
		}{A: 1})
	})

	expected := "{\n  \"a\": 1\n}\n"
	if out != expected {
		t.Fatalf("unexpected json output:\n%s", out)
	}
}

func TestRatesGetCmd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/rates/USD/EUR" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"from_currency":"USD","to_currency":"EUR","rate":"0.92"}`))
	}))
	defer server.Close()

	root := newRootCmd()
	root.SetArgs([]string{"rates", "get", "USD", "EUR", "--url", server.URL})

	out := captureOutput(t, func() {
		if err := root.Execute(); err != nil {
			t.Fatalf("command failed: %v", err)
		}
	})

	if !strings.Contains(out, `"rate": "0.92"`) {
		t.Fatalf("expected rate in output, got %q", out)
	}
}

func TestTransactionsCmdErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	root := newRootCmd()
	root.SetArgs([]string{"transactions", "--url", server.URL})
	root.SilenceUsage = true
	root.SilenceErrors = true

	if err := root.Execute(); err == nil {
		t.Fatalf("expected error for 500 response")
	}
}

func TestPrintTransactionTable(t *testing.T) {
	out := captureOutput(t, func() {
		printTransactionTable(map[string]any{
			"transactions": []any{
				map[string]any{
					"number":   "TRX-20250115-00001",
					"kind":     "income",
					"status":   "completed",
					"amount":   "500",
					"currency": "USD",
				},
			},
			"total": float64(1),
		})
	})

	if !strings.Contains(out, "TRX-20250115-00001") || !strings.Contains(out, "Total: 1") {
		t.Fatalf("unexpected table output:\n%s", out)
	}
}
