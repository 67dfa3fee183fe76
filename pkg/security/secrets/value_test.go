package secrets

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestValue_NeverPrints(t *testing.T) {
	v := NewValue("hunter2")

	outputs := []string{
		v.String(),
		fmt.Sprintf("%v", v),
		fmt.Sprintf("%s", v),
		fmt.Sprintf("%#v", v),
	}
	for _, out := range outputs {
		if strings.Contains(out, "hunter2") {
			t.Errorf("secret leaked through formatting: %q", out)
		}
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logger.Info("loaded", "password", v)
	if strings.Contains(buf.String(), "hunter2") {
		t.Errorf("secret leaked through slog: %s", buf.String())
	}
	if !strings.Contains(buf.String(), redacted) {
		t.Errorf("expected redaction marker in %s", buf.String())
	}
}

func TestValue_Zero(t *testing.T) {
	v := NewValue("changeit")
	alias := v.Bytes()

	v.Zero()

	for i, b := range alias {
		if b != 0 {
			t.Fatalf("byte %d not zeroed", i)
		}
	}
	if v.Len() != len("changeit") {
		t.Errorf("Zero should not change length")
	}
}

func TestValue_CloneAndEqual(t *testing.T) {
	v := NewValue("changeit")
	c := v.Clone()

	if !v.Equal(c) {
		t.Error("clone should equal original")
	}

	v.Zero()
	if v.Equal(c) {
		t.Error("clone should be independent of the original")
	}
	if string(c) != "changeit" {
		t.Error("clone was modified by zeroing the original")
	}

	var nilValue Value
	if nilValue.Clone() != nil {
		t.Error("clone of nil should be nil")
	}
}
