package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestNew_JSONOutsideDev(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "prod", "debug")
	logger.Debug().Str("doctor_id", "d-1").Msg("booking")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if line["doctor_id"] != "d-1" || line["env"] != "prod" || line["message"] != "booking" {
		t.Fatalf("unexpected fields %v", line)
	}
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "prod", "chatty")
	logger.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered at info level, got %q", buf.String())
	}
	logger.Info().Msg("shown")
	if buf.Len() == 0 {
		t.Fatal("info should be written")
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "prod", "info")
	ctx := WithContext(context.Background(), logger)
	FromContext(ctx).Info().Msg("from ctx")
	if buf.Len() == 0 {
		t.Fatal("expected logger from context to write")
	}
}
