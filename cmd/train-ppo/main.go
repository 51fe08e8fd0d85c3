// Command train-ppo trains the PPO actor-critic policy by self-play
// against a random opponent, with the same output surface as train-dqn.
package main

import (
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/mmai/trictrac/internal/bot"
	"github.com/mmai/trictrac/internal/dqn"
	"github.com/mmai/trictrac/internal/randutil"
	"github.com/mmai/trictrac/internal/rl"
	"github.com/mmai/trictrac/trictrac"
)

// CLI holds the command-line surface.
type CLI struct {
	Episodes  int    `help:"Number of training episodes." default:"1000"`
	SaveEvery int    `name:"save-every" help:"Checkpoint the model every N episodes." default:"100"`
	MaxSteps  int    `name:"max-steps" help:"Hard cap on steps per episode." default:"2000"`
	ModelPath string `name:"model-path" help:"Base path for model checkpoints." default:"models/ppo_model"`
	Config    string `help:"Optional HCL training config file." type:"existingfile" optional:""`
	Seed      int64  `help:"Base seed for dice, opponent and exploration." default:"42"`
	Debug     bool   `help:"Enable debug logging."`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("train-ppo"),
		kong.Description("Self-play PPO trainer for the Trictrac engine"),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(run(cli))
}

func run(cli CLI) error {
	logger := setupLogger(cli.Debug)

	cfg := dqn.DefaultPPOConfig()
	if cli.Config != "" {
		loaded, err := dqn.LoadConfigFile(cli.Config)
		if err != nil {
			return err
		}
		cfg.Config = loaded
	}

	if err := os.MkdirAll(filepath.Dir(cli.ModelPath), 0o755); err != nil {
		return err
	}

	roller := trictrac.NewDiceRoller(cli.Seed)
	opponent := bot.NewRandomStrategy(randutil.Derive(cli.Seed, 100))
	env := rl.NewEnvironment(roller, opponent, logger)

	trainer, err := dqn.NewPPOTrainer(cfg, dqn.RunConfig{
		Episodes:  cli.Episodes,
		SaveEvery: cli.SaveEvery,
		MaxSteps:  cli.MaxSteps,
		ModelPath: cli.ModelPath,
		Seed:      cli.Seed,
	}, env, nil, logger)
	if err != nil {
		return err
	}

	logger.Info("starting PPO training",
		"episodes", cli.Episodes,
		"save-every", cli.SaveEvery,
		"max-steps", cli.MaxSteps,
		"model-path", cli.ModelPath,
	)
	return trainer.Train(os.Stdout)
}

func setupLogger(debug bool) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		if parsed, err := log.ParseLevel(env); err == nil {
			level = parsed
		}
	}
	logger.SetLevel(level)
	return logger
}
