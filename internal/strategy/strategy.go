// Package strategy builds and validates declarative rule-based trading
// strategies and turns them into per-bar signal sequences.
package strategy

import (
	"fmt"
	"strings"

	"github.com/img0j0/tradewise-ai-sub003/internal/domain"
	"github.com/img0j0/tradewise-ai-sub003/internal/models"
)

// MaxRecommendedPositionSize is the position-size fraction above which
// validation warns.
const MaxRecommendedPositionSize = 0.25

// RuleConfig is one rule as submitted by a caller.
type RuleConfig struct {
	Action  string `json:"action"`
	Trigger string `json:"trigger"`
}

// Config is the raw strategy definition as submitted by a caller.
type Config struct {
	Name            string             `json:"name"`
	Rules           []RuleConfig       `json:"rules"`
	MaxPositionSize float64            `json:"max_position_size"`
	StopLossPct     float64            `json:"stop_loss_pct"`
	Params          map[string]float64 `json:"params"`
}

// New normalizes the config into a Strategy and validates it. Validation
// never fails the call; the outcome lives in Strategy.Validation so callers
// can distinguish blocking issues from warnings.
func New(cfg Config) *models.Strategy {
	s := &models.Strategy{
		Name:   strings.TrimSpace(cfg.Name),
		Rules:  make([]models.Rule, 0, len(cfg.Rules)),
		Risk:   models.RiskConfig{MaxPositionSize: cfg.MaxPositionSize, StopLossPct: cfg.StopLossPct},
		Params: cfg.Params,
	}
	if s.Name == "" {
		s.Name = "unnamed"
	}

	v := models.Validation{Valid: true}
	for i, rc := range cfg.Rules {
		action, ok := domain.ParseRuleAction(rc.Action)
		if !ok {
			v.Valid = false
			v.Issues = append(v.Issues, fmt.Sprintf("rule %d: unknown action %q", i, rc.Action))
			continue
		}
		s.Rules = append(s.Rules, models.Rule{Action: action, Trigger: strings.TrimSpace(rc.Trigger)})
	}

	if len(cfg.Rules) == 0 {
		v.Valid = false
		v.Issues = append(v.Issues, "strategy has no rules")
	}

	hasEntry, hasExit := false, false
	for _, r := range s.Rules {
		switch r.Action {
		case domain.ActionBuy:
			hasEntry = true
		case domain.ActionSell, domain.ActionStopLoss:
			hasExit = true
		}
	}
	if len(s.Rules) > 0 && !hasEntry {
		v.Warnings = append(v.Warnings, "no BUY rule: strategy never enters a position")
	}
	if len(s.Rules) > 0 && !hasExit {
		v.Warnings = append(v.Warnings, "no SELL or STOP_LOSS rule: strategy never exits")
	}
	if cfg.MaxPositionSize > MaxRecommendedPositionSize {
		v.Warnings = append(v.Warnings, fmt.Sprintf("max position size %.2f exceeds recommended %.2f", cfg.MaxPositionSize, MaxRecommendedPositionSize))
	}

	s.Validation = v
	return s
}
