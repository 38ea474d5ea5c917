package config

import (
	"os"
	"path/filepath"
	"testing"

	"cafesched/internal/model"
	"cafesched/internal/schedule"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "cafe.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Webhooks.MaxAttempts != 10 || !cfg.Database.Migrate {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.Menu.IsSandwich(model.Sandwich) {
		t.Fatalf("default menu missing sandwich")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	p := writeFile(t, `
server:
  port: "9090"
  rateRps: 5
menu:
  sandwiches: [sandwich, toastie]
  extras: [drink]
durations:
  make_sandwich: 120
serveStyle: numbered
log:
  level: debug
`)
	t.Setenv("PORT", "7000")
	t.Setenv("WEBHOOK_MAX_ATTEMPTS", "3")
	t.Setenv("DB_MIGRATE", "false")

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "7000" {
		t.Fatalf("env should override port, got %q", cfg.Server.Port)
	}
	if cfg.Server.RateRPS != 5 || cfg.Webhooks.MaxAttempts != 3 || cfg.Database.Migrate {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	d, err := cfg.TaskDurations()
	if err != nil || d.Of(model.MakeSandwich) != 120 || d.Of(model.Serve) != 60 {
		t.Fatalf("durations: %v %v", d, err)
	}

	s := schedule.New(cfg.SchedulerOptions()...)
	s.AddOrder(1, []model.ItemType{"toastie"})
	want := "1.\t00:00\tMake sandwich 1\n2.\t02:00\tServe sandwich 1\n3.\t03:00\tTake a break"
	if got := s.PrintableSchedule(); got != want {
		t.Fatalf("schedule from config:\n%s", got)
	}
}

func TestValidateErrors(t *testing.T) {
	cases := map[string]string{
		"bad_duration_key": "durations:\n  lunch: 10\n",
		"negative":         "durations:\n  SERVE: -1\n",
		"bad_style":        "serveStyle: sideways\n",
		"empty_menu":       "menu:\n  sandwiches: []\n",
		"bad_yaml":         "server: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeFile(t, body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
