package config

import (
	"errors"
	"os"
	"testing"
	"time"

	apperrors "github.com/lueurxax/telegram-post-ranker/internal/core/errors"
)

// Test environment variable keys.
const (
	testEnvBotToken  = "BOT_TOKEN"
	testEnvTGAPIID   = "TG_API_ID"
	testEnvTGAPIHash = "TG_API_HASH"
)

// Test values.
const (
	testBotToken  = "123456:ABC-DEF"
	testTGAPIID   = "12345"
	testTGAPIHash = "abcdef123456"
	testErrLoad   = "Load() error = %v"
)

func setRequiredEnvVars(t *testing.T) {
	t.Helper()

	t.Setenv(testEnvBotToken, testBotToken)
	t.Setenv(testEnvTGAPIID, testTGAPIID)
	t.Setenv(testEnvTGAPIHash, testTGAPIHash)
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv(testEnvBotToken)
	os.Unsetenv(testEnvTGAPIID)
	os.Unsetenv(testEnvTGAPIHash)

	_, err := Load()
	if err == nil {
		t.Error("expected error for missing required env vars")
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.BotToken != testBotToken {
		t.Errorf("BotToken = %q, want %q", cfg.BotToken, testBotToken)
	}

	if cfg.TGAPIID != 12345 {
		t.Errorf("TGAPIID = %d, want %d", cfg.TGAPIID, 12345)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.TopK != 10 {
		t.Errorf("TopK = %d, want 10", cfg.TopK)
	}

	if cfg.FetchBufferMin != 200 || cfg.FetchBufferMax != 2000 || cfg.FetchBufferMult != 6 {
		t.Errorf("fetch buffer = %d/%d/%d, want 200/2000/6", cfg.FetchBufferMin, cfg.FetchBufferMax, cfg.FetchBufferMult)
	}

	if cfg.ScoreSpacing != 100*time.Millisecond {
		t.Errorf("ScoreSpacing = %v, want 100ms", cfg.ScoreSpacing)
	}

	if cfg.AdThreshold != 7 {
		t.Errorf("AdThreshold = %d, want 7", cfg.AdThreshold)
	}

	if cfg.StoreBackend != StoreBackendFile {
		t.Errorf("StoreBackend = %q, want %q", cfg.StoreBackend, StoreBackendFile)
	}
}

func TestLoad_LegacyAliases(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("BRIDGE_CHAT_ID", "-1009876543210")
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.RelayChatID != -1009876543210 {
		t.Errorf("RelayChatID = %d, want %d", cfg.RelayChatID, int64(-1009876543210))
	}

	if cfg.GoogleAPIKey != "gemini-key" {
		t.Errorf("GoogleAPIKey = %q, want %q", cfg.GoogleAPIKey, "gemini-key")
	}
}

func TestLoad_ListsParsed(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("ADMIN_IDS", "1,2,3")
	t.Setenv("AD_DENY_SENDERS", "spam_shop,@promo")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if len(cfg.AdminIDs) != 3 || cfg.AdminIDs[2] != 3 {
		t.Errorf("AdminIDs = %v, want [1 2 3]", cfg.AdminIDs)
	}

	if len(cfg.AdDenySenders) != 2 {
		t.Errorf("AdDenySenders = %v, want 2 entries", cfg.AdDenySenders)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "postgres without dsn", env: map[string]string{"STORE_BACKEND": "postgres"}},
		{name: "unknown backend", env: map[string]string{"STORE_BACKEND": "redis"}},
		{name: "top k above max", env: map[string]string{"TOP_K": "500"}},
		{name: "top k zero", env: map[string]string{"TOP_K": "0"}},
		{name: "inverted fetch buffer", env: map[string]string{"FETCH_BUFFER_MIN": "3000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnvVars(t)

			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if !errors.Is(err, apperrors.ErrInvalidInput) {
				t.Errorf("Load() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}
