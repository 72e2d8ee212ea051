package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"
)

func resetState() {
	SetVerbose(false)
	SetOutput(os.Stdout)
	SetColor(false)
	Init("info", false)
}

func TestSetVerbose(t *testing.T) {
	defer resetState()

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false initially")
	}

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose to be true after SetVerbose(true)")
	}

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false after SetVerbose(false)")
	}
}

func TestDebug_WhenVerbose(t *testing.T) {
	defer resetState()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetColor(false)
	SetVerbose(true)

	Debug("test message %s", "arg")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected valid JSON line, got %q: %v", buf.String(), err)
	}
	if line["msg"] != "test message arg" {
		t.Errorf("unexpected msg: %v", line["msg"])
	}
	if line["level"] != "debug" {
		t.Errorf("unexpected level: %v", line["level"])
	}
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	defer resetState()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Debug("test message")

	if buf.Len() > 0 {
		t.Error("expected no output when verbose is disabled")
	}
}

func TestInfo(t *testing.T) {
	defer resetState()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetColor(false)

	Info("info message %d", 42)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected valid JSON line: %v", err)
	}
	if line["msg"] != "info message 42" {
		t.Errorf("unexpected msg: %v", line["msg"])
	}
}

func TestWarn(t *testing.T) {
	defer resetState()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetColor(false)

	Warn("warning message")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected valid JSON line: %v", err)
	}
	if line["level"] != "warn" {
		t.Errorf("unexpected level: %v", line["level"])
	}
}

func TestAccessLine(t *testing.T) {
	defer resetState()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetColor(false)

	Access(AccessFields{
		RequestID:   "req-1",
		SessionID:   "sess-1",
		ProductID:   "spreadjs",
		ClientInfo:  "test-client",
		ClientIP:    "127.0.0.1",
		DurationMS:  12,
		ResultCount: 3,
	})

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected valid JSON line: %v", err)
	}
	if line["type"] != "access" {
		t.Errorf("expected type=access, got %v", line["type"])
	}
	if line["product_id"] != "spreadjs" {
		t.Errorf("unexpected product_id: %v", line["product_id"])
	}
	if _, hasErr := line["error"]; hasErr {
		t.Error("expected no error field on success")
	}
}

func TestAccessLine_WithError(t *testing.T) {
	defer resetState()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetColor(false)

	Access(AccessFields{RequestID: "req-2", Err: "boom"})

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected valid JSON line: %v", err)
	}
	if line["error"] != "boom" {
		t.Errorf("expected error field, got %v", line["error"])
	}
}

func TestLevelFiltering(t *testing.T) {
	defer resetState()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetColor(false)
	Init("warn", false)

	Info("should be suppressed")
	if buf.Len() > 0 {
		t.Error("expected info to be suppressed at warn level")
	}

	Warn("should appear")
	if buf.Len() == 0 {
		t.Error("expected warn to appear at warn level")
	}
}

func TestConcurrentAccess(t *testing.T) {
	defer resetState()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetColor(false)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		i := i
		go func() {
			SetVerbose(true)
			Debug("concurrent %d", i)
			IsVerbose()
			SetVerbose(false)
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}
