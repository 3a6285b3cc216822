package strategy

import (
	"strings"
	"testing"

	"github.com/img0j0/tradewise-ai-sub003/internal/domain"
	"github.com/img0j0/tradewise-ai-sub003/internal/models"
)

func TestNewValidStrategy(t *testing.T) {
	s := New(Config{
		Name: "crossover",
		Rules: []RuleConfig{
			{Action: "buy", Trigger: "sma_10 > sma_30"},
			{Action: "sell", Trigger: "sma_10 < sma_30"},
		},
		MaxPositionSize: 0.2,
	})
	if !s.Validation.Valid {
		t.Fatalf("valid strategy rejected: %v", s.Validation.Issues)
	}
	if len(s.Validation.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", s.Validation.Warnings)
	}
	if len(s.Rules) != 2 || s.Rules[0].Action != domain.ActionBuy {
		t.Errorf("rules not normalized: %+v", s.Rules)
	}
}

func TestNewEmptyRulesInvalid(t *testing.T) {
	s := New(Config{Name: "empty"})
	if s.Validation.Valid {
		t.Fatal("strategy with no rules validated")
	}
	if len(s.Validation.Issues) == 0 {
		t.Error("no blocking issue recorded")
	}
}

func TestNewWarnings(t *testing.T) {
	noExit := New(Config{
		Name:  "entries-only",
		Rules: []RuleConfig{{Action: "BUY", Trigger: "rsi_14 < 30"}},
	})
	if !noExit.Validation.Valid {
		t.Fatal("warning-only strategy marked invalid")
	}
	if !hasWarning(noExit.Validation, "never exits") {
		t.Errorf("missing no-exit warning: %v", noExit.Validation.Warnings)
	}

	noEntry := New(Config{
		Name:  "exits-only",
		Rules: []RuleConfig{{Action: "STOP_LOSS", Trigger: "close < 90"}},
	})
	if !hasWarning(noEntry.Validation, "never enters") {
		t.Errorf("missing no-entry warning: %v", noEntry.Validation.Warnings)
	}

	oversized := New(Config{
		Name:            "big",
		Rules:           []RuleConfig{{Action: "BUY"}, {Action: "SELL"}},
		MaxPositionSize: 0.5,
	})
	if !hasWarning(oversized.Validation, "position size") {
		t.Errorf("missing position-size warning: %v", oversized.Validation.Warnings)
	}
}

func TestNewUnknownActionBlocks(t *testing.T) {
	s := New(Config{
		Name:  "bad",
		Rules: []RuleConfig{{Action: "SHORT", Trigger: "close < 90"}},
	})
	if s.Validation.Valid {
		t.Fatal("unknown action accepted")
	}
}

func hasWarning(v models.Validation, substr string) bool {
	for _, w := range v.Warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}
