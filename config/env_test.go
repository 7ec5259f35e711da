package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"REDIS_HOST", "REDIS_DB", "REDIS_ENABLED", "RECIPE_TOTALS_TTL", "UNCONSUMED_MATCH", "INGREDIENT_SEPARATOR", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	if cfg.Redis.Addr() != "localhost:6379" {
		t.Errorf("Expected redis addr localhost:6379, got %s", cfg.Redis.Addr())
	}
	if !cfg.Redis.Enabled {
		t.Error("Expected redis to be enabled by default")
	}
	if cfg.Consumption.RecipeTotalsTTL != 5*time.Minute {
		t.Errorf("Expected 5m recipe totals ttl, got %s", cfg.Consumption.RecipeTotalsTTL)
	}
	if cfg.Consumption.UnconsumedMatch != "first" {
		t.Errorf("Expected unconsumed match first, got %s", cfg.Consumption.UnconsumedMatch)
	}
	if cfg.Consumption.IngredientSeparator != " - " {
		t.Errorf("Expected separator %q, got %q", " - ", cfg.Consumption.IngredientSeparator)
	}
	if len(cfg.Gateway.AllowedOrigins) != 1 || cfg.Gateway.AllowedOrigins[0] != "*" {
		t.Errorf("Expected allowed origins [*], got %v", cfg.Gateway.AllowedOrigins)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("RECIPE_TOTALS_TTL", "90s")
	t.Setenv("UNCONSUMED_MATCH", "any")
	t.Setenv("INGREDIENT_SEPARATOR", "|")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.local, http://b.local,")

	cfg := LoadConfig()

	if cfg.Redis.DB != 3 || cfg.Redis.Enabled {
		t.Errorf("Expected redis db 3 disabled, got db %d enabled %v", cfg.Redis.DB, cfg.Redis.Enabled)
	}
	if cfg.Consumption.RecipeTotalsTTL != 90*time.Second {
		t.Errorf("Expected 90s ttl, got %s", cfg.Consumption.RecipeTotalsTTL)
	}
	if cfg.Consumption.UnconsumedMatch != "any" || cfg.Consumption.IngredientSeparator != "|" {
		t.Errorf("Unexpected consumption config %+v", cfg.Consumption)
	}
	if len(cfg.Gateway.AllowedOrigins) != 2 || cfg.Gateway.AllowedOrigins[1] != "http://b.local" {
		t.Errorf("Expected 2 trimmed origins, got %v", cfg.Gateway.AllowedOrigins)
	}
}

func TestNewLogger_Level(t *testing.T) {
	if lvl := NewLogger("debug").GetLevel(); lvl != logrus.DebugLevel {
		t.Errorf("Expected debug level, got %s", lvl)
	}
	if lvl := NewLogger("loud").GetLevel(); lvl != logrus.InfoLevel {
		t.Errorf("Expected fallback to info, got %s", lvl)
	}
}
