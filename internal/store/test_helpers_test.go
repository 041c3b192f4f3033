package store

import (
	"context"
	"path/filepath"
	"testing"
)

const fixtureSQL = `
CREATE TABLE companies (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE people (
	id INTEGER PRIMARY KEY,
	firstname TEXT,
	lastname TEXT,
	salary REAL,
	hired DATE,
	company_id INTEGER REFERENCES companies(id)
);
INSERT INTO companies VALUES (1, 'Acme'), (2, 'Globex');
INSERT INTO people VALUES
	(1, 'Ada', 'Lovelace', 1200.5, '2010-03-04', 1),
	(2, 'Grace', 'Hopper', 900, '2012-11-30', 2),
	(3, 'Alan', 'Turing', NULL, NULL, 1);
`

// createTestStore creates a store in a temp dir loaded with fixtureSQL.
func createTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Exec(context.Background(), fixtureSQL); err != nil {
		t.Fatalf("Exec(fixture) failed: %v", err)
	}
	return s, path
}
