package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reportql/internal/schema"
)

type person struct {
	ID        int    `report:"person_id"`
	Name      string `json:"name,omitempty"`
	CreatedAt string
	Age       int
	secret    string
}

func (p person) Initials() string { return p.Name[:1] }

func (p *person) Shout(s string) string { return s }

func TestMapRow(t *testing.T) {
	row := MapRow{"a": 1, "b": nil}

	v, ok := row.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = row.Get("b")
	assert.True(t, ok)
	assert.Nil(t, v)

	_, ok = row.Get("c")
	assert.False(t, ok)
}

func TestStructRow(t *testing.T) {
	p := &person{ID: 7, Name: "Ada", CreatedAt: "2010-01-01", Age: 36, secret: "x"}
	row, err := NewStructRow(p)
	require.NoError(t, err)

	tests := []struct {
		id   string
		want any
		ok   bool
	}{
		{"person_id", 7, true},
		{"name", "Ada", true},
		{"created_at", "2010-01-01", true},
		{"Age", 36, true},
		{"age", 36, true},
		{"initials", "A", true},
		{"secret", nil, false},
		{"shout", nil, false},
		{"missing", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, ok := row.Get(tt.id)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStructRow_ByValue(t *testing.T) {
	row, err := NewStructRow(person{Name: "Bob"})
	require.NoError(t, err)

	v, ok := row.Get("initials")
	require.True(t, ok)
	assert.Equal(t, "B", v)
}

func TestNewStructRow_Errors(t *testing.T) {
	_, err := NewStructRow(42)
	assert.Error(t, err)

	var nilPerson *person
	_, err = NewStructRow(nilPerson)
	assert.Error(t, err)
}

func TestAccessor(t *testing.T) {
	row, err := Accessor(map[string]any{"a": 1})
	require.NoError(t, err)
	assert.IsType(t, MapRow{}, row)

	row, err = Accessor(MapRow{"a": 1})
	require.NoError(t, err)
	assert.IsType(t, MapRow{}, row)

	row, err = Accessor(map[string]string{"a": "x"})
	require.NoError(t, err)
	v, ok := row.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "x", v)
	_, ok = row.Get("b")
	assert.False(t, ok)

	row, err = Accessor(&person{Name: "Ada"})
	require.NoError(t, err)
	v, _ = row.Get("name")
	assert.Equal(t, "Ada", v)

	_, err = Accessor([]int{1})
	assert.Error(t, err)

	_, err = Accessors([]any{MapRow{}, "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")
}

var _ schema.Row = MapRow(nil)
var _ schema.Row = (*StructRow)(nil)
