// Command selfplay evaluates strategies against each other: it plays N
// full games in parallel with per-game derived seeds and reports win
// counts and game-length statistics.
package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/mmai/trictrac/internal/bot"
	"github.com/mmai/trictrac/internal/dqn"
	"github.com/mmai/trictrac/internal/randutil"
	"github.com/mmai/trictrac/trictrac"
)

// CLI holds the command-line surface.
type CLI struct {
	Games    int      `help:"Number of games to play." default:"100"`
	Bots     []string `help:"White and black strategies (first, random, dqn:<path>)." default:"random,first"`
	Seed     int64    `help:"Base seed; each game derives its own." default:"42"`
	Parallel int      `help:"Concurrent games." default:"4"`
	MaxTurns int      `name:"max-turns" help:"Turn cap per game." default:"2000"`
	Debug    bool     `help:"Enable debug logging."`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("selfplay"),
		kong.Description("Bot-vs-bot evaluation for the Trictrac engine"),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(run(cli))
}

func run(cli CLI) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if cli.Debug {
		logger.SetLevel(log.DebugLevel)
	}
	if len(cli.Bots) != 2 {
		return fmt.Errorf("exactly two strategies required, got %d", len(cli.Bots))
	}

	var (
		mu      sync.Mutex
		wins    = map[trictrac.PlayerID]int{}
		lengths []float64
		capped  int
	)

	group := errgroup.Group{}
	group.SetLimit(cli.Parallel)
	for i := 0; i < cli.Games; i++ {
		game := i
		group.Go(func() error {
			seed := randutil.Derive(cli.Seed, int64(game))
			white, err := newStrategy(cli.Bots[0], seed)
			if err != nil {
				return err
			}
			black, err := newStrategy(cli.Bots[1], seed+1)
			if err != nil {
				return err
			}
			runner := bot.NewRunner(white, black, trictrac.NewDiceRoller(seed), cli.MaxTurns, logger)
			result, err := runner.Play()
			if err != nil {
				return fmt.Errorf("game %d (seed %d): %w", game, seed, err)
			}
			mu.Lock()
			defer mu.Unlock()
			if result.Winner == 0 {
				capped++
			} else {
				wins[result.Winner]++
			}
			lengths = append(lengths, float64(result.Turns))
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	mean, std := stat.MeanStdDev(lengths, nil)
	fmt.Printf("games: %d\n", cli.Games)
	fmt.Printf("white (%s) wins: %d\n", cli.Bots[0], wins[1])
	fmt.Printf("black (%s) wins: %d\n", cli.Bots[1], wins[2])
	fmt.Printf("capped games: %d\n", capped)
	fmt.Printf("game length: mean %.1f turns, stddev %.1f\n", mean, std)
	return nil
}

// newStrategy resolves a strategy spec: "first", "random" or
// "dqn:<checkpoint path>".
func newStrategy(spec string, seed int64) (bot.Strategy, error) {
	switch {
	case spec == "first":
		return bot.NewFirstStrategy(), nil
	case spec == "random":
		return bot.NewRandomStrategy(seed), nil
	case len(spec) > 4 && spec[:4] == "dqn:":
		return dqn.LoadStrategy(spec[4:])
	default:
		return nil, fmt.Errorf("unknown strategy %q", spec)
	}
}
