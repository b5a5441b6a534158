package ratelimit

import (
	"time"

	"github.com/salarysms/salary-bot/pkg/config"
)

const defaultWindow = time.Minute

// Rule is a resolved budget: at most Limit requests per Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Rules resolves configured limits per command category. Categories are
// "wage" for report queries, "import" for file uploads, "export" for CSV
// downloads; everything else falls back to the per-user budget.
type Rules struct {
	enabled   bool
	perUser   Rule
	commands  map[string]Rule
	whitelist map[int64]struct{}
}

// NewRules compiles the configuration into lookup form.
func NewRules(cfg config.RateLimitConfig) *Rules {
	rules := &Rules{
		enabled:   cfg.Enabled,
		perUser:   resolveRule(cfg.PerUser, Rule{Limit: 30, Window: defaultWindow}),
		commands:  make(map[string]Rule),
		whitelist: make(map[int64]struct{}, len(cfg.Whitelist)),
	}

	rules.commands["wage"] = resolveRule(cfg.Commands.Wage, Rule{Limit: 10, Window: defaultWindow})
	rules.commands["import"] = resolveRule(cfg.Commands.Import, Rule{Limit: 3, Window: 5 * time.Minute})
	rules.commands["export"] = resolveRule(cfg.Commands.Export, Rule{Limit: 5, Window: defaultWindow})

	for _, chatID := range cfg.Whitelist {
		rules.whitelist[chatID] = struct{}{}
	}

	return rules
}

// Enabled reports whether rate limiting is turned on at all.
func (r *Rules) Enabled() bool {
	return r != nil && r.enabled
}

// Whitelisted reports whether the chat is exempt from all limits.
func (r *Rules) Whitelisted(chatID int64) bool {
	if r == nil {
		return false
	}

	_, ok := r.whitelist[chatID]
	return ok
}

// ForCategory returns the rule for a command category, falling back to the
// per-user budget for unknown categories.
func (r *Rules) ForCategory(category string) Rule {
	if r == nil {
		return Rule{Limit: 30, Window: defaultWindow}
	}

	if rule, ok := r.commands[category]; ok {
		return rule
	}

	return r.perUser
}

func resolveRule(raw config.RateLimitRule, fallback Rule) Rule {
	rule := fallback

	if raw.Limit > 0 {
		rule.Limit = raw.Limit
	}
	if raw.Window != "" {
		if window, err := time.ParseDuration(raw.Window); err == nil && window > 0 {
			rule.Window = window
		}
	}

	return rule
}
