package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: a schema, a data source and
// a flow of queries with the plan and rows each one must produce.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the CUE schema file or directory.
	// Relative paths are resolved against the scenario file location.
	Schema string `yaml:"schema"`

	// Setup is an optional SQL script loaded into a fresh in-memory SQLite
	// database that the queries run against.
	Setup string `yaml:"setup,omitempty"`

	// Rows stand in for the fetch result when there is no Setup script.
	// They are returned as-is for every query: no filtering, and SQL
	// ordering and paging are assumed done.
	Rows []map[string]any `yaml:"rows,omitempty"`

	// Flow contains the queries to plan and, when there is a data source,
	// execute.
	Flow []FlowStep `yaml:"flow"`

	// RequestID is the fixed request id of every execution, so golden
	// files are deterministic. Defaults to DefaultRequestID.
	RequestID string `yaml:"request_id,omitempty"`
}

// DefaultRequestID is used when a scenario names no request id.
const DefaultRequestID = "test-req-default"

// FlowStep is one query of a scenario.
type FlowStep struct {
	// Query is the query text.
	Query string `yaml:"query"`

	// Expect specifies the expected outcome. If nil, the query only has to
	// succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies expected plan and execution results. Only the
// fields that are set are checked.
type ExpectClause struct {
	// Error is the expected error kind (see ErrorKind). When set, no other
	// field is checked.
	Error string `yaml:"error,omitempty"`

	Selection []string `yaml:"selection,omitempty"`
	Required  []string `yaml:"required,omitempty"`
	Unmapped  []string `yaml:"unmapped,omitempty"`

	Select  *string `yaml:"select,omitempty"`
	Joins   *string `yaml:"joins,omitempty"`
	Where   *string `yaml:"where,omitempty"`
	Args    []any   `yaml:"args,omitempty"`
	GroupBy *string `yaml:"group_by,omitempty"`
	OrderBy *string `yaml:"order_by,omitempty"`
	SQL     *string `yaml:"sql,omitempty"`

	// Columns are the expected output column labels.
	Columns []string `yaml:"columns,omitempty"`

	// Rows are the expected output rows. Formatted cells compare by their
	// formatted text, other cells by their converted value.
	Rows [][]any `yaml:"rows,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Schema and setup
// paths are resolved against the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving schema and setup paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "expected:" vs "expect:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	scenario.Schema = resolvePath(basePath, scenario.Schema)
	scenario.Setup = resolvePath(basePath, scenario.Setup)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// FindScenarios returns the .yaml files in dir, sorted by name.
func FindScenarios(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func resolvePath(base, path string) string {
	if path == "" || filepath.IsAbs(path) || base == "" {
		return path
	}
	return filepath.Join(base, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if s.Setup != "" && len(s.Rows) > 0 {
		return fmt.Errorf("setup and rows are mutually exclusive")
	}

	if _, err := os.Stat(s.Schema); os.IsNotExist(err) {
		return fmt.Errorf("schema not found: %s", s.Schema)
	}
	if s.Setup != "" {
		if _, err := os.Stat(s.Setup); os.IsNotExist(err) {
			return fmt.Errorf("setup script not found: %s", s.Setup)
		}
	}

	for i, step := range s.Flow {
		if step.Query == "" {
			return fmt.Errorf("flow[%d]: query is required", i)
		}
		if step.Expect != nil && step.Expect.Error != "" && !validErrorKind(step.Expect.Error) {
			return fmt.Errorf("flow[%d]: unknown error kind %q (valid: %v)", i, step.Expect.Error, ErrorKinds)
		}
	}
	return nil
}
