package database

import (
	"reflect"
	"strings"
	"testing"
	"testing/fstest"
)

func TestListMigrationFilesFromFS(t *testing.T) {
	src := fstest.MapFS{
		"000002_b.up.sql":   {Data: []byte("select 2")},
		"000001_a.up.sql":   {Data: []byte("select 1")},
		"000001_a.down.sql": {Data: []byte("select 0")},
		"embed.go":          {Data: []byte("package x")},
	}
	got := listMigrationFiles(src)
	want := []string{"000001_a.up.sql", "000002_b.up.sql"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("files = %v, want %v", got, want)
	}
}

func TestSelectApplied(t *testing.T) {
	files := []string{"000001_a.up.sql", "000002_b.up.sql", "000003_c.up.sql", "junk.up.sql"}
	cases := []struct {
		from, to uint64
		want     []string
	}{
		{0, 3, []string{"000001_a.up.sql", "000002_b.up.sql", "000003_c.up.sql"}},
		{1, 2, []string{"000002_b.up.sql"}},
		{3, 3, nil},
	}
	for _, tc := range cases {
		got := selectApplied(files, tc.from, tc.to)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("selectApplied(%d, %d) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestConfigConnectionStrings(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "bot", Password: "p@ss word", Name: "tags", SSLMode: "disable"}

	dsn := cfg.DSN()
	if !strings.Contains(dsn, "password='p@ss word'") {
		t.Fatalf("password not quoted: %s", dsn)
	}
	if !strings.Contains(dsn, "host=db port=5432 dbname=tags sslmode=disable") {
		t.Fatalf("unexpected dsn: %s", dsn)
	}

	url := cfg.URL()
	if !strings.HasPrefix(url, "postgres://bot:p%40ss%20word@db:5432/tags?") {
		t.Fatalf("unexpected url: %s", url)
	}
	if !strings.HasSuffix(url, "sslmode=disable") {
		t.Fatalf("sslmode missing: %s", url)
	}
}

func TestQuoteValue(t *testing.T) {
	cases := map[string]string{
		"":      "''",
		"plain": "plain",
		`a'b`:   `'a\'b'`,
		`a\b`:   `'a\\b'`,
	}
	for in, want := range cases {
		if got := quoteValue(in); got != want {
			t.Fatalf("quoteValue(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{Port: "6543", MaxConnections: 3}
	cfg.ApplyDefaults()
	if cfg.Port != "6543" || cfg.MaxConnections != 3 {
		t.Fatalf("explicit values overwritten: %+v", cfg)
	}
	if cfg.SSLMode != "disable" {
		t.Fatalf("sslmode default = %q", cfg.SSLMode)
	}

	var empty Config
	empty.ApplyDefaults()
	if empty.Port != "5432" || empty.MaxConnections != 10 {
		t.Fatalf("defaults not applied: %+v", empty)
	}
}
