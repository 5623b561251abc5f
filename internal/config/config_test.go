package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// isolate points the loader at a non-existent env file so a developer's
// .env never leaks into the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HUB_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func expectPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected a panic")
		}
	}()
	fn()
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	t.Setenv("HUB_REDIS_ADDR", "localhost:6379")
	t.Setenv("HUB_STORE_DRIVER", "memory")

	cfg := Load()

	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %q", cfg.ListenPort)
	}
	if cfg.CacheDuration != 24*time.Hour {
		t.Errorf("CacheDuration = %v", cfg.CacheDuration)
	}
	if cfg.DeadlineGrace != 7*24*time.Hour || cfg.RetentionWindow != 30*24*time.Hour {
		t.Errorf("retention = %v / %v", cfg.DeadlineGrace, cfg.RetentionWindow)
	}
	if cfg.RequestDelay != 500*time.Millisecond {
		t.Errorf("RequestDelay = %v", cfg.RequestDelay)
	}
	if cfg.RefreshSchedule != "@every 1h" || cfg.CleanupSchedule != "@every 24h" {
		t.Errorf("schedules = %q / %q", cfg.RefreshSchedule, cfg.CleanupSchedule)
	}
	if !reflect.DeepEqual(cfg.AllowedOrigins, []string{"*"}) {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.AdminSecret != "" {
		t.Errorf("AdminSecret should default to empty")
	}
	if cfg.MongoURI != "" {
		t.Errorf("memory driver should not read a mongo URI")
	}
}

func TestLoadRequired(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "redis address missing",
			env:  map[string]string{"HUB_STORE_DRIVER": "memory"},
		},
		{
			name: "mongo driver without URI",
			env:  map[string]string{"HUB_REDIS_ADDR": "localhost:6379"},
		},
		{
			name: "unknown driver",
			env:  map[string]string{"HUB_REDIS_ADDR": "localhost:6379", "HUB_STORE_DRIVER": "postgres"},
		},
		{
			name: "redis password required but empty",
			env: map[string]string{
				"HUB_REDIS_ADDR":              "localhost:6379",
				"HUB_STORE_DRIVER":            "memory",
				"HUB_REDIS_PASSWORD_REQUIRED": "true",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv("HUB_REDIS_ADDR", "")
			t.Setenv("HUB_MONGO_URI", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			expectPanic(t, func() { Load() })
		})
	}
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "HUB_REDIS_ADDR=redis:6379\nHUB_STORE_DRIVER=memory\nHUB_LOG_LEVEL=warn\nHUB_OPS_CIDRS=10.0.0.0/8, 192.168.0.0/16\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	t.Setenv("HUB_ENV_FILE", path)
	t.Setenv("HUB_LOG_LEVEL", "error")
	// variables set by the env file must not leak into other tests
	for _, k := range []string{"HUB_REDIS_ADDR", "HUB_STORE_DRIVER", "HUB_OPS_CIDRS"} {
		t.Setenv(k, "")
		if err := os.Unsetenv(k); err != nil {
			t.Fatalf("failed to unset %s: %v", k, err)
		}
	}

	cfg := Load()

	if cfg.RedisAddr != "redis:6379" {
		t.Errorf("RedisAddr = %q, want value from env file", cfg.RedisAddr)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, real env must win over env file", cfg.LogLevel)
	}
	if !reflect.DeepEqual(cfg.AllowedCIDRS, []string{"10.0.0.0/8", "192.168.0.0/16"}) {
		t.Errorf("AllowedCIDRS = %v", cfg.AllowedCIDRS)
	}
}

func TestRedacted(t *testing.T) {
	cfg := Config{
		RedisUser:     "default",
		RedisPassword: "pw",
		AdminSecret:   "token",
		MongoURI:      "mongodb://user:pw@db",
		AdzunaAppKey:  "key",
		AdzunaAppID:   "id",
	}

	r := cfg.Redacted()
	for name, v := range map[string]string{
		"RedisUser": r.RedisUser, "RedisPassword": r.RedisPassword,
		"AdminSecret": r.AdminSecret, "MongoURI": r.MongoURI, "AdzunaAppKey": r.AdzunaAppKey,
	} {
		if v != redacted {
			t.Errorf("%s was not redacted: %q", name, v)
		}
	}
	if r.AdzunaAppID != "id" {
		t.Errorf("AdzunaAppID should be kept")
	}
	if cfg.AdminSecret != "token" {
		t.Errorf("Redacted must not modify the receiver")
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{"valid duration", "5s", time.Second, 5 * time.Second},
		{"invalid duration uses default", "invalid", 10 * time.Second, 10 * time.Second},
		{"missing variable uses default", "", 15 * time.Second, 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			if got := mustDuration("TEST_DURATION", tt.def); got != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      bool
		expected bool
	}{
		{"true value", "true", false, true},
		{"false value", "false", true, false},
		{"invalid value uses default", "invalid", true, true},
		{"missing variable uses default", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)
			if got := mustBool("TEST_BOOL", tt.def); got != tt.expected {
				t.Errorf("mustBool() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{` "https://a.example" , 'b', ,c `, []string{"https://a.example", "b", "c"}},
	}
	for _, tt := range tests {
		if got := splitAndTrim(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitAndTrim(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
