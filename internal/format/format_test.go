package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestNumber(t *testing.T) {
	f := Number(language.English, 2)

	tests := []struct {
		name  string
		value any
		want  any
	}{
		{"int", 1234567, "1,234,567"},
		{"float", 1234.5, "1,234.5"},
		{"numeric string", "42", "42"},
		{"bytes", []byte("1000"), "1,000"},
		{"not a number", "n/a", "n/a"},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f(tt.value))
		})
	}
}

func TestPercent(t *testing.T) {
	f := Percent(language.English, 1)
	assert.Equal(t, "25%", f(0.25))
	assert.Equal(t, "true", f(true))
}

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		f, ok := Lookup(name)
		require.True(t, ok, name)
		require.NotNil(t, f)
	}

	integer, _ := Lookup(NameInteger)
	assert.Equal(t, "1,234", integer(1234.4))

	_, ok := Lookup("currency")
	assert.False(t, ok)
}
