package database

import "testing"

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "20")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxOpenConns != 20 {
		t.Errorf("expected 20 open conns, got %d", cfg.MaxOpenConns)
	}
}

func TestNewConfig_InvalidPoolSize(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "zero")

	if _, err := NewConfig(); err == nil {
		t.Fatal("expected error for non-numeric pool size")
	}
}

func TestConfig_ConnectionStrings(t *testing.T) {
	cfg := &Config{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "budgets", SSLMode: "disable"}

	if got, want := cfg.DSN(), "host=db port=5432 user=u password=p dbname=budgets sslmode=disable"; got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
	if got, want := cfg.URL(), "postgres://u:p@db:5432/budgets?sslmode=disable"; got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}
