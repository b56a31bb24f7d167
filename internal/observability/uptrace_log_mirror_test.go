package observability

import (
	"errors"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	"go.uber.org/zap/zapcore"
)

func TestBuildOTelLogAttributes(t *testing.T) {
	attrs := buildOTelLogAttributes([]any{"carnival_id", int64(42), "state", "QLD", "dangling"})
	if len(attrs) != 3 {
		t.Fatalf("expected 3 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "carnival_id" || attrs[0].Value.AsInt64() != 42 {
		t.Fatalf("unexpected carnival_id attribute")
	}
	if attrs[1].Key != "state" || attrs[1].Value.AsString() != "QLD" {
		t.Fatalf("unexpected state attribute")
	}
	if attrs[2].Key != "dangling" || attrs[2].Value.Kind() != otellog.KindEmpty {
		t.Fatalf("unexpected dangling attribute")
	}
}

func TestBuildOTelLogAttributes_NonStringKey(t *testing.T) {
	attrs := buildOTelLogAttributes([]any{7, "value"})
	if len(attrs) != 1 || attrs[0].Key != "arg_0" {
		t.Fatalf("expected positional key for non-string key, got %+v", attrs)
	}
}

func TestToOTelSeverity(t *testing.T) {
	tests := []struct {
		level zapcore.Level
		want  otellog.Severity
	}{
		{zapcore.DebugLevel, otellog.SeverityDebug},
		{zapcore.InfoLevel, otellog.SeverityInfo},
		{zapcore.WarnLevel, otellog.SeverityWarn},
		{zapcore.ErrorLevel, otellog.SeverityError},
		{zapcore.PanicLevel, otellog.SeverityFatal},
	}
	for _, tt := range tests {
		if got := toOTelSeverity(tt.level); got != tt.want {
			t.Fatalf("toOTelSeverity(%s) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestToOTelLogValue(t *testing.T) {
	if v := toOTelLogValue(errors.New("relay down")); v.AsString() != "relay down" {
		t.Fatalf("unexpected error value: %q", v.AsString())
	}
	if v := toOTelLogValue(90 * time.Second); v.AsString() != "1m30s" {
		t.Fatalf("unexpected duration value: %q", v.AsString())
	}
	if v := toOTelLogValue(true); !v.AsBool() {
		t.Fatalf("expected bool value")
	}
}
