package utils

import "testing"

func TestBuildPostgresDSNDefaults(t *testing.T) {
	for _, k := range []string{"PG_HOST", "PG_PORT", "PG_USER", "PG_PASSWORD", "PG_DB", "PG_SSLMODE"} {
		t.Setenv(k, "")
	}
	want := "postgres://postgres@localhost:5432/treeadopt?sslmode=disable"
	if got := BuildPostgresDSNFromEnv(); got != want {
		t.Fatalf("dsn = %q, want %q", got, want)
	}
}

func TestBuildPostgresDSNEscapesPassword(t *testing.T) {
	t.Setenv("PG_HOST", "db")
	t.Setenv("PG_PORT", "6543")
	t.Setenv("PG_USER", "trees")
	t.Setenv("PG_PASSWORD", "p@ss/word")
	t.Setenv("PG_DB", "adopt")
	t.Setenv("PG_SSLMODE", "require")
	want := "postgres://trees:p%40ss%2Fword@db:6543/adopt?sslmode=require"
	if got := BuildPostgresDSNFromEnv(); got != want {
		t.Fatalf("dsn = %q, want %q", got, want)
	}
}

func TestOpenRedisFromEnvOptional(t *testing.T) {
	t.Setenv("REDIS_HOST", "")
	if c := OpenRedisFromEnv(); c != nil {
		t.Fatalf("client = %v, want nil without REDIS_HOST", c)
	}
	t.Setenv("REDIS_HOST", "127.0.0.1")
	t.Setenv("REDIS_DB", "3")
	c := OpenRedisFromEnv()
	if c == nil {
		t.Fatalf("client = nil")
	}
	defer c.Close()
	if o := c.Options(); o.Addr != "127.0.0.1:6379" || o.DB != 3 {
		t.Fatalf("options = %s db %d", o.Addr, o.DB)
	}
}
