package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("expected default port 5000, got %d", cfg.Server.Port)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Errorf("expected postgres driver, got %q", cfg.Database.Driver)
	}
	if cfg.JWT.ExpiresIn != 24*time.Hour {
		t.Errorf("expected 24h token lifetime, got %s", cfg.JWT.ExpiresIn)
	}
	if cfg.Session.Name != "focuswin_session" {
		t.Errorf("unexpected session name %q", cfg.Session.Name)
	}
	if cfg.Redis.Enabled {
		t.Errorf("redis should be disabled by default")
	}
	if !cfg.App.IsDevelopment() {
		t.Errorf("expected development environment")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("DB_DRIVER", DriverSQLite)
	t.Setenv("DB_SQLITE_PATH", "/tmp/focuswin-test.db")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_USER_TTL", "90s")
	t.Setenv("SMTP_HOST", "smtp.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8081 {
		t.Errorf("expected port 8081, got %d", cfg.Server.Port)
	}
	if cfg.Database.Driver != DriverSQLite || cfg.Database.SQLitePath != "/tmp/focuswin-test.db" {
		t.Errorf("unexpected database config %+v", cfg.Database)
	}
	if !cfg.Redis.Enabled || cfg.Redis.UserTTL != 90*time.Second {
		t.Errorf("unexpected redis config %+v", cfg.Redis)
	}
	if cfg.SMTP.Host != "smtp.example.com" {
		t.Errorf("unexpected smtp host %q", cfg.SMTP.Host)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "unknown driver",
			env:  map[string]string{"DB_DRIVER": "mongo"},
			want: "unsupported database driver",
		},
		{
			name: "default secret in production",
			env:  map[string]string{"APP_ENVIRONMENT": "production", "SESSION_SECRET": "s3cret"},
			want: "JWT secret",
		},
		{
			name: "empty session secret",
			env:  map[string]string{"SESSION_SECRET": ""},
			want: "secrets must not be empty",
		},
		{
			name: "empty jwt secret",
			env:  map[string]string{"JWT_SECRET": ""},
			want: "secrets must not be empty",
		},
		{
			name: "port out of range",
			env:  map[string]string{"PORT": "70000"},
			want: "server port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestGetDSN(t *testing.T) {
	postgres := DatabaseConfig{Driver: DriverPostgres, Host: "db", Port: 5432, User: "u", Password: "p", Name: "focuswin", SSLMode: "disable"}
	if got := postgres.GetDSN(); !strings.Contains(got, "host=db") || !strings.Contains(got, "dbname=focuswin") {
		t.Errorf("unexpected postgres dsn %q", got)
	}

	sqlite := DatabaseConfig{Driver: DriverSQLite, SQLitePath: "data/app.db"}
	if got := sqlite.GetDSN(); got != "data/app.db" {
		t.Errorf("expected sqlite path as dsn, got %q", got)
	}

	redis := RedisConfig{Host: "cache", Port: 6380}
	if got := redis.GetAddr(); got != "cache:6380" {
		t.Errorf("unexpected redis addr %q", got)
	}
}
