package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"answerdesk/chat-api/internal/domain/tenant"
)

// PlanSettings is the per-tier behaviour table: system prompt variant,
// context sizing, and optional overrides of the deployment-level rate limits
// and confidence thresholds. Zero / nil fields fall back to deployment values.
type PlanSettings struct {
	SystemPrompt       string   `yaml:"system_prompt"`
	ContextBudgetChars int      `yaml:"context_budget_chars"`
	HistoryWindow      int      `yaml:"history_window"`
	RateLimitPerMinute int      `yaml:"rate_limit_per_minute"`
	RateLimitPerDay    int      `yaml:"rate_limit_per_day"`
	RefuseThreshold    *float64 `yaml:"refuse_threshold"`
	EscalateThreshold  *float64 `yaml:"escalate_threshold"`
}

// PlanTable maps plan tiers to their settings. Selection happens once per
// request; components receive resolved settings, not the table.
type PlanTable struct {
	Plans map[tenant.PlanTier]PlanSettings `yaml:"plans"`
}

const (
	tinySystemPrompt = "You are a support assistant for this company's customers. " +
		"Answer only from the provided context. If the context does not contain " +
		"the answer, say you do not know."

	proSystemPrompt = "You are a knowledgeable support assistant for this company's customers. " +
		"Answer only from the provided context, cite which source you used, and keep answers " +
		"concise. If the context does not contain the answer, say you do not know."

	proPlusSystemPrompt = "You are a senior support specialist for this company's customers. " +
		"Answer only from the provided context, cite the sources you used, offer related " +
		"follow-up steps when helpful, and keep a professional tone. If the context does not " +
		"contain the answer, say you do not know and offer to connect the visitor with the team."
)

func defaultPlanTable() *PlanTable {
	return &PlanTable{
		Plans: map[tenant.PlanTier]PlanSettings{
			tenant.PlanTiny: {
				SystemPrompt:       tinySystemPrompt,
				ContextBudgetChars: 3000,
				HistoryWindow:      4,
			},
			tenant.PlanPro: {
				SystemPrompt:       proSystemPrompt,
				ContextBudgetChars: 6000,
				HistoryWindow:      6,
			},
			tenant.PlanProPlus: {
				SystemPrompt:       proPlusSystemPrompt,
				ContextBudgetChars: 10000,
				HistoryWindow:      10,
				RateLimitPerMinute: 60,
				RateLimitPerDay:    2000,
			},
		},
	}
}

// LoadPlanTable returns the built-in plan table, overlaid with entries from
// the YAML file at path when one is configured.
func LoadPlanTable(path string) (*PlanTable, error) {
	table := defaultPlanTable()
	if path == "" {
		return table, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan config %s: %w", path, err)
	}

	var overlay PlanTable
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return nil, fmt.Errorf("parse plan config %s: %w", path, err)
	}

	for tier, settings := range overlay.Plans {
		if !tier.Valid() {
			return nil, fmt.Errorf("plan config %s: unknown plan tier %q", path, tier)
		}
		base := table.Plans[tier]
		if settings.SystemPrompt != "" {
			base.SystemPrompt = settings.SystemPrompt
		}
		if settings.ContextBudgetChars > 0 {
			base.ContextBudgetChars = settings.ContextBudgetChars
		}
		if settings.HistoryWindow > 0 {
			base.HistoryWindow = settings.HistoryWindow
		}
		if settings.RateLimitPerMinute > 0 {
			base.RateLimitPerMinute = settings.RateLimitPerMinute
		}
		if settings.RateLimitPerDay > 0 {
			base.RateLimitPerDay = settings.RateLimitPerDay
		}
		if settings.RefuseThreshold != nil {
			base.RefuseThreshold = settings.RefuseThreshold
		}
		if settings.EscalateThreshold != nil {
			base.EscalateThreshold = settings.EscalateThreshold
		}
		table.Plans[tier] = base
	}

	return table, nil
}

// Validate checks every tier's thresholds as they would resolve against the
// deployment fallbacks in cfg. An overlay that inverts the refuse/escalate
// ordering or leaves the [0,1] band is rejected; partial overrides are
// checked against the values they will actually pair with at request time.
func (t *PlanTable) Validate(cfg *Config) error {
	for tier := range t.Plans {
		settings := t.Resolve(tier, cfg)
		refuse, escalate := *settings.RefuseThreshold, *settings.EscalateThreshold
		if refuse < 0 || refuse > 1 || escalate < 0 || escalate > 1 {
			return fmt.Errorf("plan %s: thresholds must be in [0,1], got refuse=%v escalate=%v",
				tier, refuse, escalate)
		}
		if refuse >= escalate {
			return fmt.Errorf("plan %s: refuse threshold (%v) must be below escalate threshold (%v)",
				tier, refuse, escalate)
		}
	}
	return nil
}

// Resolve returns the settings for plan with deployment-level fallbacks from
// cfg applied. Unknown tiers resolve to the tiny plan.
func (t *PlanTable) Resolve(plan tenant.PlanTier, cfg *Config) PlanSettings {
	settings, ok := t.Plans[plan]
	if !ok {
		settings = t.Plans[tenant.PlanTiny]
	}
	if settings.ContextBudgetChars <= 0 {
		settings.ContextBudgetChars = cfg.ContextBudgetChars
	}
	if settings.HistoryWindow <= 0 {
		settings.HistoryWindow = cfg.HistoryWindow
	}
	if settings.RateLimitPerMinute <= 0 {
		settings.RateLimitPerMinute = cfg.RateLimitPerMinute
	}
	if settings.RateLimitPerDay <= 0 {
		settings.RateLimitPerDay = cfg.RateLimitPerDay
	}
	if settings.RefuseThreshold == nil {
		v := cfg.RefuseThreshold
		settings.RefuseThreshold = &v
	}
	if settings.EscalateThreshold == nil {
		v := cfg.EscalateThreshold
		settings.EscalateThreshold = &v
	}
	return settings
}
