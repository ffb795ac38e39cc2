package database

import (
	"strings"
	"testing"
)

func TestMigrationFiles(t *testing.T) {
	names, err := migrationFiles()
	if err != nil {
		t.Fatalf("migrationFiles() error = %v", err)
	}

	want := []string{"001_market_lifecycles.sql", "002_market_data.sql"}
	if len(names) != len(want) {
		t.Fatalf("migrationFiles() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

// Every table the writers insert into is created, with the conflict target
// the writers rely on.
func TestMigrationsCoverWriterTables(t *testing.T) {
	names, err := migrationFiles()
	if err != nil {
		t.Fatal(err)
	}

	var all strings.Builder
	for _, name := range names {
		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			t.Fatalf("ReadFile(%s) error = %v", name, err)
		}
		all.Write(data)
	}
	sql := all.String()

	for _, fragment := range []string{
		"CREATE TABLE IF NOT EXISTS market_lifecycles",
		"PRIMARY KEY (exchange, ticker, state, status_ts)",
		"CREATE TABLE IF NOT EXISTS trades",
		"trade_id    UUID    PRIMARY KEY",
		"CREATE TABLE IF NOT EXISTS tickers",
		"CREATE TABLE IF NOT EXISTS orderbook_deltas",
		"UNIQUE (ticker, seq)",
		"CREATE TABLE IF NOT EXISTS orderbook_snapshots",
		"UNIQUE (ticker, snapshot_ts)",
	} {
		if !strings.Contains(sql, fragment) {
			t.Errorf("migrations missing %q", fragment)
		}
	}
}
