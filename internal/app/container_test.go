package app

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
)

func TestBuildFallsBackToMemoryStore(t *testing.T) {
	c, err := Build(context.Background(), config.Config{}, zap.NewNop())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer c.Close()
	if _, ok := c.Store.(*memory.Store); !ok {
		t.Errorf("store = %T, want *memory.Store", c.Store)
	}
	if c.Redis != nil || c.kafka != nil {
		t.Error("optional backends enabled without configuration")
	}
}

func TestBuildRequiresRedisForOutbox(t *testing.T) {
	cfg := config.Config{Notification: config.NotificationConfig{Backend: "redis"}}
	if _, err := Build(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatal("Build() succeeded without a redis address")
	}
}
