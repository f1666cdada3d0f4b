package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTechniqueFunction(t *testing.T) {
	var named Named = TechniqueFunction("stack", "technique", func(_ context.Context, pair Pair) Outcome {
		var out Outcome
		out.Logf(false, "%s+%s", pair.FirstName, pair.SecondName)
		return out
	})
	assert.Equal(t, "stack", named.Name())
	assert.Equal(t, "technique", named.Kind())

	technique, ok := named.(Technique)
	assert.True(t, ok)
	out := technique.Apply(t.Context(), Pair{FirstName: "a", SecondName: "b"})
	assert.Equal(t, []Line{{Text: "a+b"}}, out.Lines)
}

func TestPair_Swap(t *testing.T) {
	p := Pair{FirstName: "image.png", SecondName: "archive.zip"}
	swapped := p.Swap()
	assert.Equal(t, "archive.zip", swapped.FirstName)
	assert.Equal(t, "image.png", swapped.SecondName)
	assert.Equal(t, p, swapped.Swap())
}
