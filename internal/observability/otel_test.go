package observability

import (
	"context"
	"testing"

	"github.com/skein-ai/skein/internal/config"
	"github.com/skein-ai/skein/internal/log"
)

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.OtelConfig{}, log.NewNop())
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if shutdown == nil {
		t.Fatal("Setup() returned nil shutdown")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

func TestSetupWithEndpoint(t *testing.T) {
	// The exporter connects lazily; pointing at a dead endpoint must
	// not fail setup, only drop spans later.
	cfg := config.OtelConfig{
		Endpoint:    "localhost:4318",
		ServiceName: "skein-test",
		Environment: "test",
	}

	ctx := context.Background()
	shutdown, err := Setup(ctx, cfg, log.NewNop())
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if err := shutdown(ctx); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}
