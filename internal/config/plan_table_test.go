package config

import (
	"os"
	"path/filepath"
	"testing"

	"answerdesk/chat-api/internal/domain/tenant"
)

func baseConfig() *Config {
	return &Config{
		ContextBudgetChars: 6000,
		HistoryWindow:      6,
		RateLimitPerMinute: 20,
		RateLimitPerDay:    500,
		RefuseThreshold:    0.3,
		EscalateThreshold:  0.6,
	}
}

func TestPlanTableDefaults(t *testing.T) {
	table, err := LoadPlanTable("")
	if err != nil {
		t.Fatalf("LoadPlanTable() error = %v", err)
	}

	cfg := baseConfig()

	tiny := table.Resolve(tenant.PlanTiny, cfg)
	if tiny.SystemPrompt == "" {
		t.Error("tiny plan has no system prompt")
	}
	if tiny.RateLimitPerMinute != 20 {
		t.Errorf("tiny rate limit = %d, want deployment default 20", tiny.RateLimitPerMinute)
	}
	if *tiny.RefuseThreshold != 0.3 || *tiny.EscalateThreshold != 0.6 {
		t.Errorf("tiny thresholds = %v/%v, want 0.3/0.6", *tiny.RefuseThreshold, *tiny.EscalateThreshold)
	}

	proPlus := table.Resolve(tenant.PlanProPlus, cfg)
	if proPlus.RateLimitPerMinute != 60 {
		t.Errorf("pro_plus rate limit = %d, want plan override 60", proPlus.RateLimitPerMinute)
	}
	if proPlus.ContextBudgetChars <= tiny.ContextBudgetChars {
		t.Error("pro_plus context budget should exceed tiny")
	}
	if proPlus.SystemPrompt == tiny.SystemPrompt {
		t.Error("pro_plus should carry a richer prompt variant than tiny")
	}
}

func TestPlanTableUnknownTierFallsBackToTiny(t *testing.T) {
	table, err := LoadPlanTable("")
	if err != nil {
		t.Fatalf("LoadPlanTable() error = %v", err)
	}
	cfg := baseConfig()

	got := table.Resolve(tenant.PlanTier("enterprise"), cfg)
	want := table.Resolve(tenant.PlanTiny, cfg)
	if got.SystemPrompt != want.SystemPrompt {
		t.Error("unknown tier should resolve to tiny plan settings")
	}
}

func TestPlanTableYAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plans.yaml")
	content := `plans:
  pro:
    system_prompt: "Custom pro prompt."
    rate_limit_per_minute: 45
    refuse_threshold: 0.25
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	table, err := LoadPlanTable(path)
	if err != nil {
		t.Fatalf("LoadPlanTable() error = %v", err)
	}
	cfg := baseConfig()

	pro := table.Resolve(tenant.PlanPro, cfg)
	if pro.SystemPrompt != "Custom pro prompt." {
		t.Errorf("overlay prompt not applied, got %q", pro.SystemPrompt)
	}
	if pro.RateLimitPerMinute != 45 {
		t.Errorf("overlay rate limit = %d, want 45", pro.RateLimitPerMinute)
	}
	if *pro.RefuseThreshold != 0.25 {
		t.Errorf("overlay refuse threshold = %v, want 0.25", *pro.RefuseThreshold)
	}
	// Untouched fields keep defaults.
	if *pro.EscalateThreshold != 0.6 {
		t.Errorf("escalate threshold = %v, want deployment 0.6", *pro.EscalateThreshold)
	}
}

func TestPlanTableRejectsUnknownTier(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plans.yaml")
	if err := os.WriteFile(path, []byte("plans:\n  platinum:\n    history_window: 3\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPlanTable(path); err == nil {
		t.Fatal("expected error for unknown plan tier")
	}
}

func TestPlanTableValidateRejectsInvertedThresholds(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig()

	tests := []struct {
		name    string
		overlay string
		wantErr bool
	}{
		{
			// Refuse 0.9 pairs with the deployment escalate 0.6: the
			// escalate band would vanish.
			name:    "override above deployment escalate",
			overlay: "plans:\n  pro:\n    refuse_threshold: 0.9\n",
			wantErr: true,
		},
		{
			name:    "explicit inverted pair",
			overlay: "plans:\n  pro:\n    refuse_threshold: 0.7\n    escalate_threshold: 0.5\n",
			wantErr: true,
		},
		{
			name:    "threshold outside unit interval",
			overlay: "plans:\n  pro:\n    escalate_threshold: 1.4\n",
			wantErr: true,
		},
		{
			name:    "ordered pair accepted",
			overlay: "plans:\n  pro:\n    refuse_threshold: 0.2\n    escalate_threshold: 0.5\n",
			wantErr: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "plans.yaml")
			if err := os.WriteFile(path, []byte(tt.overlay), 0o600); err != nil {
				t.Fatal(err)
			}
			table, err := LoadPlanTable(path)
			if err != nil {
				t.Fatalf("LoadPlanTable() error = %v", err)
			}
			err = table.Validate(cfg)
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
		})
	}
}

func TestStoreReloadKeepsPreviousOnFailure(t *testing.T) {
	cfg := baseConfig()
	store := NewStore(cfg)

	// DATABASE_URL unset makes Load fail; the store must keep serving cfg.
	t.Setenv("DATABASE_URL", "")
	if _, err := store.Reload(); err == nil {
		t.Fatal("expected reload failure without DATABASE_URL")
	}
	if store.Get() != cfg {
		t.Error("failed reload replaced the active config")
	}
}

func TestLoadValidatesThresholdOrdering(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("CONFIDENCE_REFUSE_THRESHOLD", "0.7")
	t.Setenv("CONFIDENCE_ESCALATE_THRESHOLD", "0.6")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when refuse threshold >= escalate threshold")
	}
}
