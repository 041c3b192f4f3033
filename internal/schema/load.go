package schema

import (
	"fmt"
	"os"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/reportql/internal/format"
)

// Recognized keys of a schema file. Anything else is a ConfigurationError.
var (
	topLevelKeys  = []string{"base", "tables", "columns"}
	tableKeys     = []string{"join", "depends"}
	columnKeys    = []string{"type", "sql", "label", "requires", "format", "summable"}
	sqlMappingKey = []string{"table", "column"}
)

// Load reads a schema from a .cue file or a directory of .cue files.
func Load(path string) (*Registry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	return LoadFile(path)
}

// LoadFile reads a schema from a single CUE file.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	return LoadString(string(data), path)
}

// LoadDir reads a schema from the CUE package in dir.
func LoadDir(dir string) (*Registry, error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &ConfigurationError{Subject: "cue", Message: fmt.Sprintf("no CUE instances in %s", dir)}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fromCUEError(inst.Err)
	}
	return FromValue(cuecontext.New().BuildInstance(inst))
}

// LoadString compiles src as CUE. filename is used in error positions.
func LoadString(src, filename string) (*Registry, error) {
	b, err := DecodeString(src, filename)
	if err != nil {
		return nil, err
	}
	return b.Build()
}

// DecodeString compiles src as CUE and returns the unbuilt declarations.
func DecodeString(src, filename string) (*Builder, error) {
	return Decode(cuecontext.New().CompileString(src, cue.Filename(filename)))
}

// FromValue builds a Registry from an evaluated CUE value.
func FromValue(v cue.Value) (*Registry, error) {
	b, err := Decode(v)
	if err != nil {
		return nil, err
	}
	return b.Build()
}

// Decode turns a CUE value into Builder declarations without building, so
// that callers can add virtual columns and formatters in Go before Build.
//
//	base: "people"
//	tables: companies: {join: "JOIN companies ON ...", depends?: "..."}
//	columns: name: {type: "string", sql: true, label?: "Name", requires?: [...], format?: "number"}
func Decode(v cue.Value) (*Builder, error) {
	if err := v.Err(); err != nil {
		return nil, fromCUEError(err)
	}
	if err := checkKeys(v, "schema", topLevelKeys); err != nil {
		return nil, err
	}

	b := NewBuilder()

	if baseVal := v.LookupPath(cue.ParsePath("base")); baseVal.Exists() {
		base, err := baseVal.String()
		if err != nil {
			return nil, fromCUEError(err)
		}
		b.From(base)
	}

	if err := decodeTables(b, v.LookupPath(cue.ParsePath("tables"))); err != nil {
		return nil, err
	}
	if err := decodeColumns(b, v.LookupPath(cue.ParsePath("columns"))); err != nil {
		return nil, err
	}
	return b, nil
}

func decodeTables(b *Builder, v cue.Value) error {
	if !v.Exists() {
		return nil
	}
	iter, err := v.Fields()
	if err != nil {
		return fromCUEError(err)
	}
	for iter.Next() {
		name, tv := iter.Label(), iter.Value()
		if err := checkKeys(tv, "table."+name, tableKeys); err != nil {
			return err
		}
		var opts TableOptions
		if opts.Join, err = optionalString(tv, "join"); err != nil {
			return err
		}
		if opts.Depends, err = optionalString(tv, "depends"); err != nil {
			return err
		}
		if opts.Join == "" {
			return &ConfigurationError{Subject: "table." + name, Message: "join is required", Pos: tv.Pos()}
		}
		b.Table(name, opts)
	}
	return nil
}

func decodeColumns(b *Builder, v cue.Value) error {
	if !v.Exists() {
		return nil
	}
	iter, err := v.Fields()
	if err != nil {
		return fromCUEError(err)
	}
	for iter.Next() {
		id, cv := iter.Label(), iter.Value()
		subject := "column." + id
		if err := checkKeys(cv, subject, columnKeys); err != nil {
			return err
		}

		var opts ColumnOptions
		typ, err := optionalString(cv, "type")
		if err != nil {
			return err
		}
		opts.Type = ColumnType(typ)
		if opts.Type != "" && !opts.Type.Valid() {
			return &ConfigurationError{
				Subject: subject,
				Message: fmt.Sprintf("invalid type %q (valid: %v)", typ, ColumnTypes),
				Pos:     cv.LookupPath(cue.ParsePath("type")).Pos(),
			}
		}
		if opts.Label, err = optionalString(cv, "label"); err != nil {
			return err
		}
		if opts.Requires, err = optionalStrings(cv, "requires"); err != nil {
			return err
		}
		if opts.Summable, err = optionalBool(cv, "summable"); err != nil {
			return err
		}
		if opts.SQL, err = decodeSQL(cv.LookupPath(cue.ParsePath("sql")), subject); err != nil {
			return err
		}
		b.Column(id, opts)

		name, err := optionalString(cv, "format")
		if err != nil {
			return err
		}
		if name != "" {
			fn, ok := format.Lookup(name)
			if !ok {
				return &ConfigurationError{
					Subject: subject,
					Message: fmt.Sprintf("unknown format %q (valid: %v)", name, format.Names()),
					Pos:     cv.LookupPath(cue.ParsePath("format")).Pos(),
				}
			}
			b.Formatter(id, fn)
		}
	}
	return nil
}

// decodeSQL accepts `sql: true`, `sql: false` or `sql: {table?, column?}`.
func decodeSQL(v cue.Value, subject string) (*SQLMapping, error) {
	if !v.Exists() {
		return nil, nil
	}
	if on, err := v.Bool(); err == nil {
		if on {
			return SameName(), nil
		}
		return nil, nil
	}
	if v.IncompleteKind() != cue.StructKind {
		return nil, &ConfigurationError{
			Subject: subject,
			Message: "sql must be a bool or a {table, column} struct",
			Pos:     v.Pos(),
		}
	}
	if err := checkKeys(v, subject+".sql", sqlMappingKey); err != nil {
		return nil, err
	}
	table, err := optionalString(v, "table")
	if err != nil {
		return nil, err
	}
	column, err := optionalString(v, "column")
	if err != nil {
		return nil, err
	}
	return Mapped(table, column), nil
}

// checkKeys rejects fields of v that are not in allowed.
func checkKeys(v cue.Value, subject string, allowed []string) error {
	iter, err := v.Fields()
	if err != nil {
		return &ConfigurationError{Subject: subject, Message: "expected a struct", Pos: v.Pos()}
	}
	for iter.Next() {
		if !slices.Contains(allowed, iter.Label()) {
			return &ConfigurationError{
				Subject: subject,
				Message: fmt.Sprintf("unknown option %q (valid: %v)", iter.Label(), allowed),
				Pos:     iter.Value().Pos(),
			}
		}
	}
	return nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", fromCUEError(err)
	}
	return s, nil
}

func optionalBool(v cue.Value, field string) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return false, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, fromCUEError(err)
	}
	return b, nil
}

func optionalStrings(v cue.Value, field string) ([]string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.List()
	if err != nil {
		return nil, fromCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, fromCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}
