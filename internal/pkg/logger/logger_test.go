package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func TestRedactEmail(t *testing.T) {
	if got := RedactEmail("john.doe@example.com"); got != "j***@example.com" {
		t.Errorf("RedactEmail = %q", got)
	}
	if got := RedactEmail("not-an-email"); got != "not-an-email" {
		t.Errorf("non-email mangled: %q", got)
	}
}

func TestRedactPhone(t *testing.T) {
	if got := RedactPhone("(512) 555-1234"); got != "(***) ***-1234" {
		t.Errorf("RedactPhone = %q", got)
	}
	if got := RedactPhone("123"); got != "***" {
		t.Errorf("short phone: %q", got)
	}
}

func TestLogRedactsPIIFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetRedactPII(true)
	defer SetOutput(os.Stderr)

	Info("clinic imported",
		"email", "owner@clinic.com",
		"phone", "(512) 555-1234",
		"city", "Austin")

	var entry map[string]string
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["email"] != "o***@clinic.com" {
		t.Errorf("email not redacted: %q", entry["email"])
	}
	if entry["phone"] != "(***) ***-1234" {
		t.Errorf("phone not redacted: %q", entry["phone"])
	}
	if entry["city"] != "Austin" {
		t.Errorf("non-PII field changed: %q", entry["city"])
	}
	if entry["level"] != "INFO" || entry["msg"] != "clinic imported" {
		t.Errorf("entry metadata wrong: %v", entry)
	}
}

func TestLogLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(WARN)
	defer func() {
		SetOutput(os.Stderr)
		SetLevel(INFO)
	}()

	Info("should be dropped")
	Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should be dropped") {
		t.Error("INFO emitted above WARN level")
	}
	if !strings.Contains(out, "should appear") {
		t.Error("WARN entry missing")
	}
}
