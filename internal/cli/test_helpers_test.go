package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const peopleSchema = `
base: "people"

tables: companies: {join: "JOIN companies ON companies.id = people.company_id"}

columns: {
	firstname: {type: "string", sql: true, label: "First name"}
	lastname: {type: "string", sql: true, label: "Last name"}
	salary: {type: "number", sql: true, label: "Salary", format: "number"}
	hired: {type: "date", sql: true, label: "Hired"}
	company: {sql: {table: "companies", column: "name"}, label: "Company"}
}
`

const peopleSQL = `
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

// fixture holds the paths of a schema, an init script and a database
// (not yet created) in a temp dir.
type fixture struct {
	Schema string
	Init   string
	DB     string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		Schema: filepath.Join(dir, "people.cue"),
		Init:   filepath.Join(dir, "people.sql"),
		DB:     filepath.Join(dir, "people.db"),
	}
	writeFile(t, f.Schema, peopleSchema)
	writeFile(t, f.Init, peopleSQL)
	return f
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// clearEnv empties the configuration variables for the test.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvSchema, "")
	t.Setenv(EnvDatabase, "")
}

// unsetenv removes key; call t.Setenv(key, ...) first so the original
// value is restored after the test.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	require.NoError(t, os.Unsetenv(key))
}
