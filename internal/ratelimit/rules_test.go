package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/salarysms/salary-bot/pkg/config"
)

func TestNewRules_ResolvesConfiguredBudgets(t *testing.T) {
	rules := NewRules(config.RateLimitConfig{
		Enabled: true,
		PerUser: config.RateLimitRule{Limit: 20, Window: "30s"},
		Commands: config.RateLimitCommands{
			Wage:   config.RateLimitRule{Limit: 5, Window: "1m"},
			Import: config.RateLimitRule{Limit: 2, Window: "10m"},
		},
		Whitelist: []int64{7},
	})

	assert.True(t, rules.Enabled())
	assert.True(t, rules.Whitelisted(7))
	assert.False(t, rules.Whitelisted(8))

	assert.Equal(t, Rule{Limit: 5, Window: time.Minute}, rules.ForCategory("wage"))
	assert.Equal(t, Rule{Limit: 2, Window: 10 * time.Minute}, rules.ForCategory("import"))
	assert.Equal(t, Rule{Limit: 20, Window: 30 * time.Second}, rules.ForCategory("default"))
}

func TestNewRules_FallsBackOnBadValues(t *testing.T) {
	rules := NewRules(config.RateLimitConfig{
		Enabled: true,
		PerUser: config.RateLimitRule{Limit: 0, Window: "not-a-duration"},
	})

	rule := rules.ForCategory("default")
	assert.Equal(t, 30, rule.Limit)
	assert.Equal(t, time.Minute, rule.Window)

	// Unconfigured command categories carry their own defaults.
	assert.Equal(t, 3, rules.ForCategory("import").Limit)
}

func TestRules_NilReceiverIsSafe(t *testing.T) {
	var rules *Rules

	assert.False(t, rules.Enabled())
	assert.False(t, rules.Whitelisted(1))
	assert.Equal(t, 30, rules.ForCategory("wage").Limit)
}
