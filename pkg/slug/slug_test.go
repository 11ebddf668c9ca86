package slug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	tests := map[string]string{
		"Running Shoes":        "running-shoes",
		"  Trail -- Runners  ": "trail-runners",
		"Crème Brûlée":         "creme-brulee",
		"50% off!":             "50-off",
		"snake_case_name":      "snake_case_name",
		"日本":                   "",
		"":                     "",
	}

	for in, want := range tests {
		assert.Equal(t, want, Make(in), "Make(%q)", in)
	}
}

func TestMake_Truncates(t *testing.T) {
	got := Make(strings.Repeat("ab ", 40))
	assert.LessOrEqual(t, len(got), MaxLength)
	assert.False(t, strings.HasSuffix(got, "-"))
}

func TestGenerateWithSuffix(t *testing.T) {
	g := NewRandomSuffixGenerator()

	a, err := g.GenerateWithSuffix("Running Shoes")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(a, "running-shoes-"))
	assert.Len(t, a, len("running-shoes-")+DefaultSuffixLength)

	long, err := g.GenerateWithSuffix(strings.Repeat("x", 80))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(long), MaxLength)

	bare, err := g.GenerateWithSuffix("!!!")
	require.NoError(t, err)
	assert.Len(t, bare, DefaultSuffixLength)
}
