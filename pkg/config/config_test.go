package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("PGHOST", "db.internal")
	t.Setenv("PGPASSWORD", "secret")
	t.Setenv("AI_MAX_TOKENS", "500")

	cfg, err := Load("v1.2.3")
	require.NoError(t, err)

	assert.Equal(t, "v1.2.3", cfg.Version)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, 500, cfg.AI.MaxTokens)
	assert.Equal(t, "domains", cfg.Domain.Dir)
	assert.Equal(t, "engineering", cfg.Domain.DefaultCode)
	assert.Equal(t, 8, cfg.Domain.CacheSize)
}

func TestAIConfig_IsAvailable(t *testing.T) {
	openai := AIConfig{Provider: "openai", BaseURL: "http://localhost:8000/v1", Model: "qwen3"}
	assert.True(t, openai.IsAvailable())

	openai.BaseURL = ""
	assert.False(t, openai.IsAvailable())

	anthropic := AIConfig{Provider: "anthropic", APIKey: "k", Model: "claude-sonnet-4-20250514"}
	assert.True(t, anthropic.IsAvailable())

	anthropic.APIKey = ""
	assert.False(t, anthropic.IsAvailable())
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	c := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "ethos",
		Password: "pw",
		Database: "ethos_engine",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=ethos password=pw dbname=ethos_engine sslmode=disable",
		c.ConnectionString())
}
