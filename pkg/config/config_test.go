package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalTOML = `
[exchange]
api_root = "http://dex.local"

[signer]
endpoint = "http://signer.local"

[bot]
account = "ladderbot"
%STRATEGY%

[[bot.grid_bot.pairs]]
symbol = "XPR_XMD"
upper_limit = 0.2
lower_limit = 0.1
grid_levels = 4
bid_amount_per_level = 10

[[bot.market_maker.pairs]]
symbol = "XPR_XMD"
grid_levels = 3
grid_interval = 0.005
base = "BID"
order_side = "BOTH"
bid_amount_per_level = 10
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, strings.Replace(minimalTOML, "%STRATEGY%", "", 1)))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServiceName != "ladderbot" || cfg.Environment != "dev" {
		t.Errorf("service = %q env = %q", cfg.ServiceName, cfg.Environment)
	}
	if cfg.Bot.Strategy != "gridBot" || cfg.Bot.TradeInterval() != 5*time.Second || cfg.Bot.BatchSize != 30 {
		t.Errorf("bot = %+v", cfg.Bot)
	}
	if cfg.Bot.AccountReportInterval() != time.Minute || cfg.Bot.OrderHistoryLimit != 100 {
		t.Errorf("account report = %v, history limit = %d", cfg.Bot.AccountReportInterval(), cfg.Bot.OrderHistoryLimit)
	}
	if cfg.Exchange.RequestTimeout() != 10*time.Second || cfg.Exchange.PageSize != 150 {
		t.Errorf("exchange = %+v", cfg.Exchange)
	}
	if cfg.HTTP.Addr() != "0.0.0.0:8080" {
		t.Errorf("http addr = %s", cfg.HTTP.Addr())
	}
	pairs := cfg.Bot.ActivePairs()
	if len(pairs) != 1 || pairs[0]["symbol"] != "XPR_XMD" {
		t.Errorf("active pairs = %v", pairs)
	}
	if _, ok := pairs[0]["upper_limit"]; !ok {
		t.Error("grid pair lost upper_limit")
	}
}

func TestLoadMarketMakerPairs(t *testing.T) {
	cfg, err := Load(writeConfig(t, strings.Replace(minimalTOML, "%STRATEGY%", `strategy = "marketMaker"`, 1)))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	pairs := cfg.Bot.ActivePairs()
	if len(pairs) != 1 || pairs[0]["base"] != "BID" {
		t.Errorf("active pairs = %v", pairs)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("APP_BOT_ACCOUNT", "override")
	cfg, err := Load(writeConfig(t, strings.Replace(minimalTOML, "%STRATEGY%", "", 1)))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Bot.Account != "override" {
		t.Errorf("account = %q, want override", cfg.Bot.Account)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"unknown strategy", strings.Replace(minimalTOML, "%STRATEGY%", `strategy = "scalper"`, 1), "unknown bot.strategy"},
		{"missing account", strings.Replace(strings.Replace(minimalTOML, `account = "ladderbot"`, "", 1), "%STRATEGY%", "", 1), "bot.account"},
		{"missing signer", strings.Replace(strings.Replace(minimalTOML, `endpoint = "http://signer.local"`, "", 1), "%STRATEGY%", "", 1), "signer.endpoint"},
		{"bad interval", strings.Replace(minimalTOML, "%STRATEGY%", "trade_interval_ms = 0", 1), "trade_interval_ms"},
		{"negative account report", strings.Replace(minimalTOML, "%STRATEGY%", "account_report_interval_ms = -1", 1), "account_report_interval_ms"},
		{"no pairs", "[exchange]\napi_root = \"x\"\n[signer]\nendpoint = \"y\"\n[bot]\naccount = \"z\"\n", "no pairs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadShippedConfig(t *testing.T) {
	cfg, err := Load("../../configs/ladderbot/config.toml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Bot.GridBot.Pairs) != 2 || len(cfg.Bot.MarketMaker.Pairs) != 1 {
		t.Errorf("pairs = %d grid, %d market maker", len(cfg.Bot.GridBot.Pairs), len(cfg.Bot.MarketMaker.Pairs))
	}
}
