// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf).With(String("run_id", "abc"))

	log.Info("fetched series", String("series", "GDP"), Int("observations", 240), Float("lambda", 1600), Bool("snapshot", false))

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if line["message"] != "fetched series" {
		t.Errorf("message = %v", line["message"])
	}
	if line["run_id"] != "abc" {
		t.Errorf("run_id = %v, want abc", line["run_id"])
	}
	if line["series"] != "GDP" {
		t.Errorf("series = %v, want GDP", line["series"])
	}
	if line["observations"] != float64(240) {
		t.Errorf("observations = %v, want 240", line["observations"])
	}
	if line["snapshot"] != false {
		t.Errorf("snapshot = %v, want false", line["snapshot"])
	}
}

func TestLoggerErrorField(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf).Warn("fetch failed", Error(errors.New("boom")))

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if line["error"] != "boom" {
		t.Errorf("error = %v, want boom", line["error"])
	}
	if line["level"] != "warn" {
		t.Errorf("level = %v, want warn", line["level"])
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNopDiscards(t *testing.T) {
	// must not panic
	Nop().Error("nothing", String("k", "v"))
}
