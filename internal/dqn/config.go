package dqn

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/mmai/trictrac/internal/rl"
)

// Config holds the DQN hyperparameters. It is serialized as JSON next to
// every checkpoint and can also be loaded from an HCL training file; CLI
// flags override file values.
type Config struct {
	StateSize    int     `json:"state_size" hcl:"state_size,optional"`
	ActionSize   int     `json:"action_size" hcl:"action_size,optional"`
	HiddenSize   int     `json:"hidden_size" hcl:"hidden_size,optional"`
	LearningRate float64 `json:"learning_rate" hcl:"learning_rate,optional"`
	Gamma        float64 `json:"gamma" hcl:"gamma,optional"`
	Tau          float64 `json:"tau" hcl:"tau,optional"`
	EpsStart     float64 `json:"eps_start" hcl:"eps_start,optional"`
	EpsEnd       float64 `json:"eps_end" hcl:"eps_end,optional"`
	EpsDecay     float64 `json:"eps_decay" hcl:"eps_decay,optional"`
	BatchSize    int     `json:"batch_size" hcl:"batch_size,optional"`
	ReplaySize   int     `json:"replay_buffer_size" hcl:"replay_buffer_size,optional"`
	ClipGrad     float64 `json:"clip_grad" hcl:"clip_grad,optional"`
}

// DefaultConfig returns the recorded hyperparameter defaults.
func DefaultConfig() Config {
	return Config{
		StateSize:    rl.StateSize,
		ActionSize:   rl.ActionSpaceSize,
		HiddenSize:   256,
		LearningRate: 1e-3,
		Gamma:        0.999,
		Tau:          0.005,
		EpsStart:     0.9,
		EpsEnd:       0.05,
		EpsDecay:     1000,
		BatchSize:    32,
		ReplaySize:   8192,
		ClipGrad:     100,
	}
}

// applyDefaults fills unset (zero) values with the defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.StateSize == 0 {
		c.StateSize = defaults.StateSize
	}
	if c.ActionSize == 0 {
		c.ActionSize = defaults.ActionSize
	}
	if c.HiddenSize == 0 {
		c.HiddenSize = defaults.HiddenSize
	}
	if c.LearningRate == 0 {
		c.LearningRate = defaults.LearningRate
	}
	if c.Gamma == 0 {
		c.Gamma = defaults.Gamma
	}
	if c.Tau == 0 {
		c.Tau = defaults.Tau
	}
	if c.EpsStart == 0 {
		c.EpsStart = defaults.EpsStart
	}
	if c.EpsEnd == 0 {
		c.EpsEnd = defaults.EpsEnd
	}
	if c.EpsDecay == 0 {
		c.EpsDecay = defaults.EpsDecay
	}
	if c.BatchSize == 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.ReplaySize == 0 {
		c.ReplaySize = defaults.ReplaySize
	}
	if c.ClipGrad == 0 {
		c.ClipGrad = defaults.ClipGrad
	}
}

// Validate rejects configurations the environment cannot serve.
func (c Config) Validate() error {
	if c.StateSize != rl.StateSize {
		return fmt.Errorf("state size %d does not match environment size %d", c.StateSize, rl.StateSize)
	}
	if c.ActionSize != rl.ActionSpaceSize {
		return fmt.Errorf("action size %d does not match action space %d", c.ActionSize, rl.ActionSpaceSize)
	}
	if c.HiddenSize <= 0 {
		return fmt.Errorf("hidden size must be positive, got %d", c.HiddenSize)
	}
	return nil
}

// LoadConfigFile reads an HCL training file, filling anything unset with
// the defaults.
func LoadConfigFile(path string) (Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return Config{}, fmt.Errorf("parsing training config %s: %s", path, diags.Error())
	}
	var cfg Config
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return Config{}, fmt.Errorf("decoding training config %s: %s", path, diags.Error())
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
