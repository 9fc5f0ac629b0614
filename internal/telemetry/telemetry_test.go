package telemetry

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/vinayprograms/plugtree/internal/config"
)

func TestSetup_Disabled(t *testing.T) {
	for name, cfg := range map[string]config.TelemetryConfig{
		"disabled":     {Protocol: "grpc", Endpoint: "localhost:4317"},
		"enabled noop": {Enabled: true, Protocol: "noop"},
	} {
		t.Run(name, func(t *testing.T) {
			p, err := Setup(context.Background(), cfg, "test")
			if err != nil {
				t.Fatalf("Setup: %v", err)
			}
			if p != nil {
				t.Errorf("expected no provider, got %v", p)
			}
			if err := p.Shutdown(context.Background()); err != nil {
				t.Errorf("nil provider Shutdown: %v", err)
			}
		})
	}
}

func TestSetup_UnknownProtocol(t *testing.T) {
	_, err := Setup(context.Background(), config.TelemetryConfig{Enabled: true, Protocol: "zipkin"}, "test")
	if err == nil {
		t.Fatal("expected error for unknown protocol")
	}
}

func TestSetup_InstallsGlobalProvider(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	for _, protocol := range []string{"grpc", "http"} {
		t.Run(protocol, func(t *testing.T) {
			cfg := config.TelemetryConfig{
				Enabled:  true,
				Protocol: protocol,
				Endpoint: "127.0.0.1:4317",
				Insecure: true,
				Headers:  map[string]string{"x-team": "ops"},
			}
			p, err := Setup(context.Background(), cfg, "test")
			if err != nil {
				t.Fatalf("Setup: %v", err)
			}
			if p.TracerProvider() == nil {
				t.Fatal("expected an SDK provider")
			}
			if otel.GetTracerProvider() != p.TracerProvider() {
				t.Error("provider was not installed globally")
			}

			// Nothing was recorded, so shutdown has nothing to send.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := p.Shutdown(ctx); err != nil {
				t.Errorf("Shutdown: %v", err)
			}
		})
	}
}
