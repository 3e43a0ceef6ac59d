package config

import (
	"testing"
	"time"
)

func TestDatasetConfigNormalize(t *testing.T) {
	d := DatasetConfig{}.Normalize()
	if d.Mode != "api" {
		t.Errorf("mode = %q, want api", d.Mode)
	}
	if d.BatchSize != 12 {
		t.Errorf("batch size = %d, want 12", d.BatchSize)
	}
	if d.BatchTimeout != 8*time.Second {
		t.Errorf("batch timeout = %v, want 8s", d.BatchTimeout)
	}
	if d.CacheTTL != 15*time.Minute {
		t.Errorf("cache ttl = %v, want 15m", d.CacheTTL)
	}
}

func TestDatasetConfigValidate(t *testing.T) {
	if err := (DatasetConfig{Mode: "api"}).Validate(); err == nil {
		t.Error("api mode without endpoint should fail")
	}
	if err := (DatasetConfig{Mode: "csv"}).Validate(); err == nil {
		t.Error("csv mode without url should fail")
	}
	if err := (DatasetConfig{Mode: "store"}).Validate(); err != nil {
		t.Errorf("store mode should validate: %v", err)
	}
	if err := (DatasetConfig{Mode: "bogus"}).Validate(); err == nil {
		t.Error("unknown mode should fail")
	}
	ok := DatasetConfig{Mode: "csv", CSVURL: "https://blob.example.com/questions.csv"}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid csv config rejected: %v", err)
	}
}

func TestRateLimitConfigNormalize(t *testing.T) {
	r := RateLimitConfig{}.Normalize()
	if r.MaxPerHour != 3 || r.MaxPerDay != 10 || r.CooldownMinutes != 5 {
		t.Fatalf("unexpected defaults: %+v", r)
	}
	custom := RateLimitConfig{MaxPerHour: 1, MaxPerDay: 2, CooldownMinutes: 3}.Normalize()
	if custom.MaxPerHour != 1 || custom.MaxPerDay != 2 || custom.CooldownMinutes != 3 {
		t.Fatalf("explicit values overridden: %+v", custom)
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", DBName: "questiond", User: "app", Password: "secret"}
	dsn, err := p.DSN()
	if err != nil {
		t.Fatalf("DSN: %v", err)
	}
	want := "postgres://app:secret@db:5432/questiond?sslmode=disable"
	if dsn != want {
		t.Errorf("dsn = %q, want %q", dsn, want)
	}

	if _, err := (PostgresConfig{}).DSN(); err == nil {
		t.Error("unconfigured postgres should fail")
	}

	explicit := PostgresConfig{URL: "postgres://u:p@h/db"}
	if dsn, _ := explicit.DSN(); dsn != explicit.URL {
		t.Errorf("explicit url ignored: %q", dsn)
	}
}

func TestRedisAddr(t *testing.T) {
	r := RedisConfig{Host: "cache"}
	if !r.Enabled() {
		t.Fatal("host set, expected enabled")
	}
	if r.Addr() != "cache:6379" {
		t.Errorf("addr = %q", r.Addr())
	}
	if (RedisConfig{}).Enabled() {
		t.Error("empty host should disable the cache")
	}
}
