package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARNING", zerolog.WarnLevel},
		{"disabled", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitJSON(t *testing.T) {
	prev := Logger()
	defer SetLogger(prev)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Output: &buf})
	Info().Msg("hidden")
	l := WithComponent("api")
	l.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info entry logged at warn level: %s", out)
	}
	if !strings.Contains(out, `"component":"api"`) || !strings.Contains(out, `"message":"shown"`) {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestRequestIDContext(t *testing.T) {
	prev := Logger()
	defer SetLogger(prev)

	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))

	ctx := context.Background()
	if id := RequestIDFromContext(ctx); id != "" {
		t.Errorf("empty context has request id %q", id)
	}
	id := GenerateRequestID()
	if len(id) != 36 {
		t.Errorf("request id %q is not a UUID", id)
	}
	ctx = ContextWithRequestID(ctx, id)
	if got := RequestIDFromContext(ctx); got != id {
		t.Errorf("request id = %q, want %q", got, id)
	}

	zerolog.Ctx(ctx).Info().Msg("from library")
	Ctx(ctx).Info().Msg("from service")
	if n := strings.Count(buf.String(), `"request_id":"`+id+`"`); n != 2 {
		t.Errorf("request id logged %d times: %s", n, buf.String())
	}
}

func TestCtxFallsBackToGlobal(t *testing.T) {
	prev := Logger()
	defer SetLogger(prev)

	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	Ctx(context.Background()).Info().Msg("plain")
	if !strings.Contains(buf.String(), "plain") {
		t.Errorf("global logger not used: %q", buf.String())
	}
}
