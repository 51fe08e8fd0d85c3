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

// PPOConfig extends the shared hyperparameters with the clipped-surrogate
// knobs.
type PPOConfig struct {
	Config
	Lambda        float64 `json:"lambda"`
	EpsilonClip   float64 `json:"epsilon_clip"`
	CriticWeight  float64 `json:"critic_weight"`
	EntropyWeight float64 `json:"entropy_weight"`
	Epochs        int     `json:"epochs"`
}

// DefaultPPOConfig returns the recorded PPO defaults.
func DefaultPPOConfig() PPOConfig {
	return PPOConfig{
		Config:        DefaultConfig(),
		Lambda:        0.95,
		EpsilonClip:   0.2,
		CriticWeight:  0.5,
		EntropyWeight: 0.01,
		Epochs:        8,
	}
}

// ppoStep is one rollout entry: the data needed to recompute the clipped
// surrogate under the updated policy.
type ppoStep struct {
	state   []float64
	action  int
	legal   []int
	logProb float64
	reward  float64
	value   float64
	done    bool
}

// PPOTrainer is the actor-critic variant: a 514-way actor masked to
// legal actions and a scalar critic, each a separate Network of the same
// dense layout with no shared parameters, trained with the clipped surrogate objective, GAE advantages and an
// entropy bonus.
type PPOTrainer struct {
	Config PPOConfig
	Run    RunConfig

	env       *rl.Environment
	actor     *Network
	critic    *Network
	actorOpt  *Adam
	criticOpt *Adam
	rng       *rand.Rand
	clock     quartz.Clock
	logger    *log.Logger
}

// NewPPOTrainer wires a PPO trainer; a nil clock falls back to the real
// one.
func NewPPOTrainer(cfg PPOConfig, run RunConfig, env *rl.Environment, clock quartz.Clock, logger *log.Logger) (*PPOTrainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = quartz.NewReal()
	}
	rng := randutil.New(randutil.Derive(run.Seed, 2))
	return &PPOTrainer{
		Config:    cfg,
		Run:       run,
		env:       env,
		actor:     NewNetwork(cfg.StateSize, cfg.HiddenSize, cfg.ActionSize, rng),
		critic:    NewNetwork(cfg.StateSize, cfg.HiddenSize, 1, rng),
		actorOpt:  NewAdam(cfg.LearningRate),
		criticOpt: NewAdam(cfg.LearningRate),
		rng:       rng,
		clock:     clock,
		logger:    logger,
	}, nil
}

// Actor exposes the policy network.
func (t *PPOTrainer) Actor() *Network { return t.actor }

// maskedPolicy returns the softmax distribution restricted to legal
// actions, as a map from action index to probability.
func maskedPolicy(logits []float64, legal []int) map[int]float64 {
	maxLogit := math.Inf(-1)
	for _, idx := range legal {
		if logits[idx] > maxLogit {
			maxLogit = logits[idx]
		}
	}
	total := 0.0
	probs := make(map[int]float64, len(legal))
	for _, idx := range legal {
		p := math.Exp(logits[idx] - maxLogit)
		probs[idx] = p
		total += p
	}
	for idx := range probs {
		probs[idx] /= total
	}
	return probs
}

func samplePolicy(probs map[int]float64, legal []int, rng *rand.Rand) int {
	draw := rng.Float64()
	acc := 0.0
	for _, idx := range legal {
		acc += probs[idx]
		if draw <= acc {
			return idx
		}
	}
	return legal[len(legal)-1]
}

// collectEpisode runs one on-policy episode and returns its rollout.
func (t *PPOTrainer) collectEpisode() ([]ppoStep, EpisodeRecord) {
	start := t.clock.Now()
	state := t.env.Reset()
	var rollout []ppoStep
	reward := 0.0
	steps := 0

	for {
		steps++
		legal := t.env.ValidActionIndices()
		if len(legal) == 0 {
			legal = []int{0}
		}
		input := state.Float64s()
		logits := t.actor.Infer(input)
		probs := maskedPolicy(logits, legal)
		action := samplePolicy(probs, legal, t.rng)
		value := t.critic.Infer(input)[0]

		snapshot := t.env.Step(action)
		reward += snapshot.Reward
		rollout = append(rollout, ppoStep{
			state:   input,
			action:  action,
			legal:   legal,
			logProb: math.Log(probs[action] + 1e-12),
			reward:  snapshot.Reward,
			value:   value,
			done:    snapshot.Done,
		})

		state = snapshot.State
		if snapshot.Done || (t.Run.MaxSteps > 0 && steps >= t.Run.MaxSteps) {
			break
		}
	}

	ratio := 0.0
	if steps > 0 {
		ratio = float64(t.env.GoodmovesCount) / float64(steps)
	}
	record := EpisodeRecord{
		Reward:     reward,
		StepsCount: steps,
		Goodmoves:  t.env.GoodmovesCount,
		Ratio:      ratio,
		Rollpoints: t.env.PointrollsCount,
		Duration:   t.clock.Since(start).Seconds(),
	}
	return rollout, record
}

// computeGAE fills the advantage and return targets for a rollout.
func (t *PPOTrainer) computeGAE(rollout []ppoStep) (advantages, returns []float64) {
	n := len(rollout)
	advantages = make([]float64, n)
	returns = make([]float64, n)
	gae := 0.0
	for i := n - 1; i >= 0; i-- {
		step := rollout[i]
		nextValue := 0.0
		if !step.done && i+1 < n {
			nextValue = rollout[i+1].value
		}
		delta := step.reward + t.Config.Gamma*nextValue - step.value
		factor := 0.0
		if !step.done {
			factor = t.Config.Gamma * t.Config.Lambda
		}
		gae = delta + factor*gae
		advantages[i] = gae
		returns[i] = gae + step.value
	}
	// Normalized advantages keep the surrogate scale stable.
	mean, std := meanStd(advantages)
	if std > 1e-8 {
		for i := range advantages {
			advantages[i] = (advantages[i] - mean) / std
		}
	}
	return advantages, returns
}

// update runs the clipped-surrogate epochs over one rollout.
func (t *PPOTrainer) update(rollout []ppoStep, advantages, returns []float64) {
	n := len(rollout)
	states := mat.NewDense(n, t.Config.StateSize, nil)
	for i, step := range rollout {
		states.SetRow(i, step.state)
	}

	for epoch := 0; epoch < t.Config.Epochs; epoch++ {
		cache := t.actor.forwardBatch(states)
		dLogits := mat.NewDense(n, t.Config.ActionSize, nil)

		for i, step := range rollout {
			logits := cache.Out.RawRowView(i)
			probs := maskedPolicy(logits, step.legal)
			logProb := math.Log(probs[step.action] + 1e-12)
			ratio := math.Exp(logProb - step.logProb)

			// Gradient of the clipped surrogate w.r.t. log pi(a|s): zero
			// once the clip binds.
			grad := 0.0
			adv := advantages[i]
			clipped := ratio < 1-t.Config.EpsilonClip || ratio > 1+t.Config.EpsilonClip
			if !clipped || (adv > 0 && ratio < 1) || (adv < 0 && ratio > 1) {
				grad = adv * ratio
			}

			entropy := 0.0
			for _, p := range probs {
				if p > 0 {
					entropy -= p * math.Log(p)
				}
			}
			for _, idx := range step.legal {
				p := probs[idx]
				indicator := 0.0
				if idx == step.action {
					indicator = 1.0
				}
				policyGrad := -grad * (indicator - p)
				entropyGrad := t.Config.EntropyWeight * p * (math.Log(p+1e-12) + entropy)
				dLogits.Set(i, idx, (policyGrad+entropyGrad)/float64(n))
			}
		}
		grads := t.actor.backward(cache, dLogits)
		t.actorOpt.Step(t.actor, grads, t.Config.ClipGrad)

		// Critic regression towards the returns.
		criticCache := t.critic.forwardBatch(states)
		dValue := mat.NewDense(n, 1, nil)
		for i := range rollout {
			v := criticCache.Out.At(i, 0)
			dValue.Set(i, 0, t.Config.CriticWeight*2*(v-returns[i])/float64(n))
		}
		criticGrads := t.critic.backward(criticCache, dValue)
		t.criticOpt.Step(t.critic, criticGrads, t.Config.ClipGrad)
	}
}

// Train runs all episodes, emitting one JSON record per episode and
// checkpointing the actor.
func (t *PPOTrainer) Train(out io.Writer) error {
	encoder := json.NewEncoder(out)
	for episode := 1; episode <= t.Run.Episodes; episode++ {
		rollout, record := t.collectEpisode()
		advantages, returns := t.computeGAE(rollout)
		t.update(rollout, advantages, returns)
		record.Episode = episode
		if err := encoder.Encode(record); err != nil {
			return err
		}
		if t.Run.SaveEvery > 0 && episode%t.Run.SaveEvery == 0 {
			path := fmt.Sprintf("%s_%d", t.Run.ModelPath, episode)
			if err := SaveCheckpoint(path, t.actor, t.Config.Config); err != nil {
				return err
			}
			t.logger.Info("checkpoint saved", "path", path, "episode", episode)
		}
	}
	final := t.Run.ModelPath + "_final"
	if err := SaveCheckpoint(final, t.actor, t.Config.Config); err != nil {
		return err
	}
	t.logger.Info("final model saved", "path", final)
	return nil
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}
