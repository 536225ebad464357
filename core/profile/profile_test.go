package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	p := Default()
	assert.Equal(t, 50, p.DefaultToTake)
	assert.Equal(t, KeyCaseExact, p.KeyCase)
	assert.Empty(t, p.AllowedClauses)
}

func TestIsClauseAllowed(t *testing.T) {
	p := &Profile{}
	assert.True(t, p.IsClauseAllowed("filter"), "empty allow-list permits everything")

	p.AllowedClauses = []string{"select", "top"}
	assert.True(t, p.IsClauseAllowed("select"))
	assert.True(t, p.IsClauseAllowed("TOP"), "match is case-insensitive")
	assert.False(t, p.IsClauseAllowed("filter"))
}

func TestClampTake(t *testing.T) {
	p := &Profile{}
	assert.Equal(t, 500, p.ClampTake(500), "no cap without MaxToTake")

	max := 100
	p.MaxToTake = &max
	assert.Equal(t, 100, p.ClampTake(500))
	assert.Equal(t, 10, p.ClampTake(10))
}

func TestSelectableFrom(t *testing.T) {
	tests := []struct {
		name     string
		profile  *Profile
		columns  []string
		expected []string
	}{
		{
			name:     "no restrictions",
			profile:  &Profile{},
			columns:  []string{"id", "name", "secret"},
			expected: []string{"id", "name", "secret"},
		},
		{
			name:     "allow-list",
			profile:  &Profile{SelectableColumns: []string{"id", "name"}},
			columns:  []string{"id", "name", "secret"},
			expected: []string{"id", "name"},
		},
		{
			name:     "deny-list",
			profile:  &Profile{UnselectableColumns: []string{"secret"}},
			columns:  []string{"id", "name", "secret"},
			expected: []string{"id", "name"},
		},
		{
			name: "deny wins over allow",
			profile: &Profile{
				SelectableColumns:   []string{"id", "secret"},
				UnselectableColumns: []string{"secret"},
			},
			columns:  []string{"id", "name", "secret"},
			expected: []string{"id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.profile.SelectableFrom(tt.columns))
		})
	}
}

func TestOutputColumn(t *testing.T) {
	p := &Profile{KeyCase: KeyCaseExact}
	assert.Equal(t, "FirstName", p.OutputColumn("FirstName"))

	p.KeyCase = KeyCaseLower
	assert.Equal(t, "firstname", p.OutputColumn("FirstName"))

	p.KeyCase = KeyCaseCamel
	assert.Equal(t, "firstName", p.OutputColumn("FirstName"))
	assert.Equal(t, "", p.OutputColumn(""))
}
