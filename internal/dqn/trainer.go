package dqn

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"gonum.org/v1/gonum/mat"

	"github.com/mmai/trictrac/internal/randutil"
	"github.com/mmai/trictrac/internal/rl"
)

// RunConfig drives the training loop around the hyperparameters.
type RunConfig struct {
	Episodes  int
	SaveEvery int
	MaxSteps  int
	ModelPath string
	Seed      int64
}

// EpisodeRecord is the JSON line emitted per episode. The "steps count"
// key is kept as-is for log compatibility.
type EpisodeRecord struct {
	Episode    int     `json:"episode"`
	Reward     float64 `json:"reward"`
	StepsCount int     `json:"steps count"`
	Epsilon    float64 `json:"epsilon"`
	Goodmoves  int     `json:"goodmoves"`
	Ratio      float64 `json:"ratio"`
	Rollpoints int     `json:"rollpoints"`
	Duration   float64 `json:"duration"`
}

// Trainer runs DQN over the environment: epsilon-greedy over the legal
// action mask, TD targets from a soft-updated target network, Adam with
// gradient clipping, and periodic atomic checkpoints.
type Trainer struct {
	Config Config
	Run    RunConfig

	env    *rl.Environment
	net    *Network
	target *Network
	opt    *Adam
	buffer *ReplayBuffer
	rng    *rand.Rand
	clock  quartz.Clock
	logger *log.Logger

	globalStep int
}

// NewTrainer wires a trainer; a nil clock falls back to the real one.
func NewTrainer(cfg Config, run RunConfig, env *rl.Environment, clock quartz.Clock, logger *log.Logger) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = quartz.NewReal()
	}
	rng := randutil.New(randutil.Derive(run.Seed, 1))
	net := NewNetwork(cfg.StateSize, cfg.HiddenSize, cfg.ActionSize, rng)
	return &Trainer{
		Config: cfg,
		Run:    run,
		env:    env,
		net:    net,
		target: net.Clone(),
		opt:    NewAdam(cfg.LearningRate),
		buffer: NewReplayBuffer(cfg.ReplaySize),
		rng:    rng,
		clock:  clock,
		logger: logger,
	}, nil
}

// Network exposes the online network (tests, evaluation).
func (t *Trainer) Network() *Network { return t.net }

// Epsilon returns the exploration rate at the current global step.
func (t *Trainer) Epsilon() float64 {
	c := t.Config
	return c.EpsEnd + (c.EpsStart-c.EpsEnd)*math.Exp(-float64(t.globalStep)/c.EpsDecay)
}

// SelectAction draws an epsilon-greedy action over the legal mask:
// exploration picks a uniform legal action, exploitation the legal argmax
// of the online network.
func (t *Trainer) SelectAction(state rl.State, legal []int) int {
	if len(legal) == 0 {
		return 0
	}
	if t.rng.Float64() < t.Epsilon() {
		return legal[t.rng.IntN(len(legal))]
	}
	values := t.net.Infer(state.Float64s())
	return maskedArgmax(values, legal)
}

// maskedArgmax returns the legal index with the highest value; illegal
// entries are treated as -Inf.
func maskedArgmax(values []float64, legal []int) int {
	best := legal[0]
	bestValue := math.Inf(-1)
	for _, idx := range legal {
		if idx >= 0 && idx < len(values) && values[idx] > bestValue {
			bestValue = values[idx]
			best = idx
		}
	}
	return best
}

// RunEpisode plays one episode, learning every step.
func (t *Trainer) RunEpisode() EpisodeRecord {
	start := t.clock.Now()
	state := t.env.Reset()
	reward := 0.0
	steps := 0

	for {
		steps++
		t.globalStep++
		legal := t.env.ValidActionIndices()
		action := t.SelectAction(state, legal)
		snapshot := t.env.Step(action)
		reward += snapshot.Reward

		transition := Transition{
			State:  state.Float64s(),
			Action: action,
			Reward: snapshot.Reward,
			Done:   snapshot.Done,
		}
		if !snapshot.Done {
			transition.NextState = snapshot.State.Float64s()
		}
		t.buffer.Push(transition)
		t.trainStep()
		t.target.SoftUpdate(t.net, t.Config.Tau)

		state = snapshot.State
		if snapshot.Done || (t.Run.MaxSteps > 0 && steps >= t.Run.MaxSteps) {
			break
		}
	}

	ratio := 0.0
	if steps > 0 {
		ratio = float64(t.env.GoodmovesCount) / float64(steps)
	}
	return EpisodeRecord{
		Reward:     reward,
		StepsCount: steps,
		Epsilon:    t.Epsilon(),
		Goodmoves:  t.env.GoodmovesCount,
		Ratio:      ratio,
		Rollpoints: t.env.PointrollsCount,
		Duration:   t.clock.Since(start).Seconds(),
	}
}

// trainStep samples a batch and takes one gradient step on the TD loss
// y = r + gamma * max_a' Qtarget(s', a') * (1 - done).
func (t *Trainer) trainStep() {
	if t.buffer.Len() < t.Config.BatchSize {
		return
	}
	batch := t.buffer.Sample(t.Config.BatchSize, t.rng)
	batchLen := len(batch)

	states := mat.NewDense(batchLen, t.Config.StateSize, nil)
	nextStates := mat.NewDense(batchLen, t.Config.StateSize, nil)
	for i, tr := range batch {
		states.SetRow(i, tr.State)
		if tr.NextState != nil {
			nextStates.SetRow(i, tr.NextState)
		}
	}

	targetOut := t.target.forwardBatch(nextStates).Out
	targets := make([]float64, batchLen)
	for i, tr := range batch {
		y := tr.Reward
		if !tr.Done {
			y += t.Config.Gamma * rowMax(targetOut, i)
		}
		targets[i] = y
	}

	cache := t.net.forwardBatch(states)
	dOut := mat.NewDense(batchLen, t.Config.ActionSize, nil)
	for i, tr := range batch {
		q := cache.Out.At(i, tr.Action)
		dOut.Set(i, tr.Action, 2*(q-targets[i])/float64(batchLen))
	}
	grads := t.net.backward(cache, dOut)
	t.opt.Step(t.net, grads, t.Config.ClipGrad)
}

// Train runs all episodes, streaming one JSON record per episode and
// checkpointing every SaveEvery episodes plus a final model.
func (t *Trainer) Train(out io.Writer) error {
	encoder := json.NewEncoder(out)
	for episode := 1; episode <= t.Run.Episodes; episode++ {
		record := t.RunEpisode()
		record.Episode = episode
		if err := encoder.Encode(record); err != nil {
			return err
		}
		if t.Run.SaveEvery > 0 && episode%t.Run.SaveEvery == 0 {
			path := fmt.Sprintf("%s_%d", t.Run.ModelPath, episode)
			if err := SaveCheckpoint(path, t.net, t.Config); err != nil {
				return err
			}
			t.logger.Info("checkpoint saved", "path", path, "episode", episode)
		}
	}
	final := t.Run.ModelPath + "_final"
	if err := SaveCheckpoint(final, t.net, t.Config); err != nil {
		return err
	}
	t.logger.Info("final model saved", "path", final)
	return nil
}

func rowMax(m *mat.Dense, row int) float64 {
	values := m.RawRowView(row)
	best := math.Inf(-1)
	for _, v := range values {
		if v > best {
			best = v
		}
	}
	return best
}
