package config

import (
	"testing"
	"time"
)

func validBase() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "autodialer", SSLMode: ""},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLModeAndTwilio(t *testing.T) {
	c := validBase()
	c.App.Env = "production"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE and Twilio credentials")
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validBase()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Dialer.DefaultPacingSeconds != 30 {
		t.Fatalf("expected default pacing 30, got %d", c.Dialer.DefaultPacingSeconds)
	}
	if c.Dialer.RetryCooldown != 10*time.Minute {
		t.Fatalf("expected default retry cooldown 10m, got %v", c.Dialer.RetryCooldown)
	}
	if c.Dialer.TickRetryDelay != 5*time.Second {
		t.Fatalf("expected default tick retry delay 5s, got %v", c.Dialer.TickRetryDelay)
	}
}

func TestValidate_RejectsNegativePacing(t *testing.T) {
	c := validBase()
	c.Dialer.DefaultPacingSeconds = -1
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for negative pacing")
	}
}
