package dqn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmai/trictrac/internal/randutil"
)

func transitionWithReward(r float64) Transition {
	return Transition{State: []float64{r}, Action: 0, Reward: r}
}

func TestReplayBufferEviction(t *testing.T) {
	buf := NewReplayBuffer(3)
	assert.Equal(t, 0, buf.Len())

	for i := 1; i <= 5; i++ {
		buf.Push(transitionWithReward(float64(i)))
	}
	assert.Equal(t, 3, buf.Len())

	// The two oldest transitions were evicted.
	rng := randutil.New(1)
	rewards := map[float64]bool{}
	for i := 0; i < 100; i++ {
		for _, tr := range buf.Sample(3, rng) {
			rewards[tr.Reward] = true
		}
	}
	assert.NotContains(t, rewards, 1.0)
	assert.NotContains(t, rewards, 2.0)
	assert.Contains(t, rewards, 5.0)
}

func TestReplayBufferSample(t *testing.T) {
	buf := NewReplayBuffer(10)
	for i := 0; i < 4; i++ {
		buf.Push(transitionWithReward(float64(i)))
	}

	rng := randutil.New(2)
	all := buf.Sample(8, rng)
	require.Len(t, all, 4, "fewer stored than requested returns all")

	batch := buf.Sample(2, rng)
	assert.Len(t, batch, 2)
}
