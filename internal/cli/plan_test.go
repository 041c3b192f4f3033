package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanJSON(t *testing.T) {
	f := newFixture(t)

	out, _, err := execute(t, "--format", "json", "--schema", f.Schema, "plan",
		"select firstname, company where company = 'Acme' order by salary desc limit 2")
	require.NoError(t, err)

	var resp struct {
		Status string   `json:"status"`
		Data   PlanView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	v := resp.Data
	assert.Equal(t, []string{"firstname", "company"}, v.Selection)
	assert.Equal(t, []string{"firstname", "company", "salary"}, v.Required)
	assert.Equal(t, "JOIN companies ON companies.id = people.company_id", v.Joins)
	assert.Equal(t, "companies.name = ?", v.Where)
	assert.Equal(t, []any{"Acme"}, v.Args)
	assert.Contains(t, v.SQL, "FROM people JOIN companies")
	assert.Contains(t, v.SQL, "ORDER BY")
	assert.True(t, v.Grouped)
	assert.True(t, v.Ordered)
	assert.True(t, v.Paged)
	assert.Empty(t, v.Unmapped)
}

func TestPlanText(t *testing.T) {
	f := newFixture(t)

	out, _, err := execute(t, "--schema", f.Schema, "plan", "select lastname where company = 'Acme'")
	require.NoError(t, err)
	assert.Contains(t, out, "required")
	assert.Contains(t, out, "companies.name = ?")
	assert.Contains(t, out, "[Acme]")
}

func TestPlanSchemaFromEnv(t *testing.T) {
	f := newFixture(t)
	t.Setenv(EnvSchema, f.Schema)

	_, _, err := execute(t, "plan", "select firstname")
	require.NoError(t, err)
}

func TestPlanErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		schema string
		query  string
		code   string
	}{
		{"no schema", "", "select firstname", ErrCodeNoSchema},
		{"missing schema", f.Schema + ".missing", "select firstname", ErrCodeNotFound},
		{"syntax", f.Schema, "select firstname lastname", ErrCodeSyntax},
		{"unsupported", f.Schema, "order by firstname, lastname", ErrCodeUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			out, _, err := execute(t, "--format", "json", "--schema", tt.schema, "plan", tt.query)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}
