package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func delayedTechnique(name string, delay time.Duration, running *atomic.Int32, peak *atomic.Int32) Technique {
	return TechniqueFunction(name, "test", func(ctx context.Context, pair Pair) Outcome {
		n := running.Add(1)
		defer running.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(delay)

		var out Outcome
		out.Logf(false, "%s: %s+%s", name, pair.First.Code(), pair.Second.Code())
		return out
	})
}

func TestPipeline_AddTechnique(t *testing.T) {
	p := NewPipeline("test", 1)
	noop := TechniqueFunction("noop", "test", func(context.Context, Pair) Outcome { return Outcome{} })

	require.NoError(t, p.AddTechnique("noop", noop))
	assert.ErrorContains(t, p.AddTechnique("noop", noop), "already exists")
	assert.Len(t, p.Techniques(), 1)
	assert.Equal(t, "test", p.Name())
}

func TestPipeline_Run(t *testing.T) {
	pair := Pair{First: &mockFileType{code: "A"}, Second: &mockFileType{code: "B"}}

	tests := []struct {
		name        string
		concurrency int
		maxPeak     int32
	}{
		{name: "sequential", concurrency: 1, maxPeak: 1},
		{name: "bounded concurrency", concurrency: 2, maxPeak: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var running, peak atomic.Int32
			p := NewPipeline("test", tt.concurrency)
			// later techniques finish first when run concurrently
			require.NoError(t, p.AddTechnique("one", delayedTechnique("one", 30*time.Millisecond, &running, &peak)))
			require.NoError(t, p.AddTechnique("two", delayedTechnique("two", 20*time.Millisecond, &running, &peak)))
			require.NoError(t, p.AddTechnique("three", delayedTechnique("three", 10*time.Millisecond, &running, &peak)))

			outcomes, err := p.Run(t.Context(), pair)
			require.NoError(t, err)
			require.Len(t, outcomes, 3)
			assert.Equal(t, "one: A+B", outcomes[0].Lines[0].Text)
			assert.Equal(t, "two: A+B", outcomes[1].Lines[0].Text)
			assert.Equal(t, "three: A+B", outcomes[2].Lines[0].Text)
			assert.LessOrEqual(t, peak.Load(), tt.maxPeak)
		})
	}
}

func TestPipeline_RunCancelled(t *testing.T) {
	p := NewPipeline("test", 1)
	require.NoError(t, p.AddTechnique("noop", TechniqueFunction("noop", "test", func(context.Context, Pair) Outcome {
		return Outcome{}
	})))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := p.Run(ctx, Pair{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorContains(t, err, "noop")
}
