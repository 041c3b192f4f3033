package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `
base: "people"

columns: {
	name: {sql: true, label: "Name"}
	salary: {type: "number", sql: true, label: "Salary", format: "number"}
	// not in the setup table
	nickname: {sql: true, label: "Nickname"}
}
`

const testSetup = `
CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT, salary REAL);
INSERT INTO people VALUES (1, 'Ada', 1200.5), (2, 'Grace', 900);
`

// createTestSchema writes the test schema and setup script to dir.
func createTestSchema(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "people.cue"), []byte(testSchema), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "people.sql"), []byte(testSetup), 0644))
}

// writeScenario writes content as a scenario file next to the test schema.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	createTestSchema(t, dir)
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario for validation"
schema: people.cue
setup: people.sql
request_id: r1
flow:
  - query: "select name where name = 'Ada'"
    expect:
      where: "name = ?"
      args: [Ada]
      rows:
        - [Ada]
  - query: "select name"
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.Equal(t, filepath.Join(dir, "people.cue"), scenario.Schema)
	assert.Equal(t, filepath.Join(dir, "people.sql"), scenario.Setup)
	assert.Equal(t, "r1", scenario.RequestID)
	require.Len(t, scenario.Flow, 2)

	exp := scenario.Flow[0].Expect
	require.NotNil(t, exp)
	require.NotNil(t, exp.Where)
	assert.Equal(t, "name = ?", *exp.Where)
	assert.Equal(t, []any{"Ada"}, exp.Args)
	assert.Equal(t, [][]any{{"Ada"}}, exp.Rows)
	assert.Nil(t, exp.Select)
	assert.Nil(t, scenario.Flow[1].Expect)
}

func TestLoadScenario_Rows(t *testing.T) {
	path := writeScenario(t, `
name: rows
description: "Literal rows"
schema: people.cue
rows:
  - {name: Ada, salary: 1200.5}
flow:
  - query: "select name"
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	require.Len(t, scenario.Rows, 1)
	assert.Equal(t, "Ada", scenario.Rows[0]["name"])
	assert.Equal(t, 1200.5, scenario.Rows[0]["salary"])
	assert.Empty(t, scenario.Setup)
}

func TestLoadScenario_WithBasePath(t *testing.T) {
	base := t.TempDir()
	createTestSchema(t, base)

	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: based
description: "Paths relative to another directory"
schema: people.cue
flow:
  - query: "select name"
`), 0644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema not found")

	scenario, err := LoadScenarioWithBasePath(path, base)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "people.cue"), scenario.Schema)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing name",
			content: `
description: "Missing name"
schema: people.cue
flow:
  - query: "select name"
`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			content: `
name: test
schema: people.cue
flow:
  - query: "select name"
`,
			wantErr: "description is required",
		},
		{
			name: "missing schema",
			content: `
name: test
description: "Test"
flow:
  - query: "select name"
`,
			wantErr: "schema is required",
		},
		{
			name: "empty flow",
			content: `
name: test
description: "Test"
schema: people.cue
flow: []
`,
			wantErr: "flow list is required",
		},
		{
			name: "setup and rows",
			content: `
name: test
description: "Test"
schema: people.cue
setup: people.sql
rows:
  - {name: Ada}
flow:
  - query: "select name"
`,
			wantErr: "mutually exclusive",
		},
		{
			name: "schema not found",
			content: `
name: test
description: "Test"
schema: missing.cue
flow:
  - query: "select name"
`,
			wantErr: "schema not found",
		},
		{
			name: "setup not found",
			content: `
name: test
description: "Test"
schema: people.cue
setup: missing.sql
flow:
  - query: "select name"
`,
			wantErr: "setup script not found",
		},
		{
			name: "empty query",
			content: `
name: test
description: "Test"
schema: people.cue
flow:
  - query: ""
`,
			wantErr: "flow[0]: query is required",
		},
		{
			name: "unknown error kind",
			content: `
name: test
description: "Test"
schema: people.cue
flow:
  - query: "select name"
    expect:
      error: timeout
`,
			wantErr: `unknown error kind "timeout"`,
		},
		{
			name: "configuration is not a step error",
			content: `
name: test
description: "Test"
schema: people.cue
flow:
  - query: "select name"
    expect:
      error: configuration
`,
			wantErr: "unknown error kind",
		},
		{
			name: "unknown field",
			content: `
name: test
description: "Test"
schema: people.cue
flow:
  - query: "select name"
    expected:
      where: ""
`,
			wantErr: "failed to parse YAML",
		},
		{
			name:    "malformed yaml",
			content: "name: [unclosed",
			wantErr: "failed to parse YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFindScenarios(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yaml", "notes.txt", "c.yml"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	paths, err := FindScenarios(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.yaml")}, paths)

	paths, err = FindScenarios(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, paths)
}
