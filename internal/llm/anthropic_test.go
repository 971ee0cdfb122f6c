package llm

import (
	"testing"
	"time"
)

func TestNewAnthropicClientDefaults(t *testing.T) {
	c := NewAnthropicClient(AnthropicConfig{APIKey: "key"})

	if c.GetModel() != "claude-haiku-4-5-20251001" {
		t.Errorf("model = %q", c.GetModel())
	}
	if c.cfg.Timeout != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", c.cfg.Timeout)
	}
}

func TestNewAnthropicClientOverrides(t *testing.T) {
	c := NewAnthropicClient(AnthropicConfig{
		APIKey:  "key",
		Model:   "claude-sonnet-4-5",
		Timeout: 5 * time.Second,
	})

	if c.GetModel() != "claude-sonnet-4-5" {
		t.Errorf("model = %q", c.GetModel())
	}
	if c.cfg.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", c.cfg.Timeout)
	}
}
