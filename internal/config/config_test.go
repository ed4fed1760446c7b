package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefault(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DEFAULT_STORE_ID", "")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("port = %s, want 8080", cfg.Port)
	}
	if cfg.StoreID != "store-1" {
		t.Fatalf("store id = %s, want store-1", cfg.StoreID)
	}
	if cfg.AccessTokenTTLMinutes != 480 {
		t.Fatalf("token ttl = %d, want 480", cfg.AccessTokenTTLMinutes)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("address = %s", cfg.Address())
	}
}

func TestLoadRejectsBadTokenTTL(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "-10")

	cfg := Load()
	if cfg.AccessTokenTTLMinutes != 480 {
		t.Fatalf("token ttl = %d, want fallback 480", cfg.AccessTokenTTLMinutes)
	}
}
