// Package testutil provides common utility functions for testing.
package testutil

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/iwvelando/price-optimizer/pkg/optimization"
)

// FindResult finds a recommendation by product name in the results slice.
// Returns a pointer to the result if found, nil otherwise.
func FindResult(results []optimization.Result, productName string) *optimization.Result {
	for i := range results {
		if results[i].ProductName == productName {
			return &results[i]
		}
	}
	return nil
}

// CaptureStdout runs fn and returns everything it printed to standard output.
func CaptureStdout(t testing.TB, fn func()) string {
	t.Helper()
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	defer func() { os.Stdout = oldStdout }()
	fn()
	_ = w.Close()
	return <-done
}
