package app

import (
	"testing"

	"github.com/skein-ai/skein/internal/config"
	"github.com/skein-ai/skein/internal/log"
)

func TestProvideValidators(t *testing.T) {
	t.Run("default workspace", func(t *testing.T) {
		a := &App{Config: &config.Config{}, Logger: log.NewNop()}
		if err := provideValidators(a); err != nil {
			t.Fatalf("provideValidators() error = %v", err)
		}
		if a.PathValidator == nil || a.HTTPValidator == nil {
			t.Error("validators not set")
		}
	})

	t.Run("explicit workspace", func(t *testing.T) {
		a := &App{Config: &config.Config{Workspace: t.TempDir()}, Logger: log.NewNop()}
		if err := provideValidators(a); err != nil {
			t.Fatalf("provideValidators() error = %v", err)
		}
	})
}
