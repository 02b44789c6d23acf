// Package play holds the terminal game commands: an interactive interrogation
// loop and an automated playthrough driven by the AI detective.
package play

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/myrjola/blackwood/internal/ai"
	"github.com/myrjola/blackwood/internal/cases"
	"github.com/myrjola/blackwood/internal/envstruct"
	"github.com/myrjola/blackwood/internal/errors"
	"github.com/myrjola/blackwood/internal/filter"
	"github.com/myrjola/blackwood/internal/game"
	"github.com/myrjola/blackwood/internal/logging"
	"github.com/myrjola/blackwood/internal/suspect"
	"github.com/myrjola/blackwood/internal/verdict"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "game",
	Title: "Game operations",
}

type config struct {
	APIKey       string `env:"OPENAI_API_KEY"`
	CaseDir      string `env:"BLACKWOOD_CASE_DIR" envDefault:""`
	MaxTurns     int    `env:"BLACKWOOD_MAX_TURNS" envDefault:"30"`
	SuspectModel string `env:"BLACKWOOD_SUSPECT_MODEL" envDefault:"gpt-4o"`
	UtilityModel string `env:"BLACKWOOD_UTILITY_MODEL" envDefault:"gpt-4o-mini"`
}

type engine struct {
	logger     *slog.Logger
	cfg        config
	client     *ai.Client
	repo       *cases.Repository
	controller *game.Controller
}

// newEngine wires the full game stack against the real inference backend.
// Logs go to stderr so the interrogation itself owns stdout.
func newEngine() (*engine, error) {
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		AddSource: false,
		Level:     slog.LevelWarn,
	})))

	var cfg config
	if err := envstruct.Populate(&cfg, os.LookupEnv); err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}

	repo, err := cases.NewRepository(logger)
	if err != nil {
		return nil, errors.Wrap(err, "initialise case repository")
	}
	if cfg.CaseDir != "" {
		if err = repo.LoadDir(cfg.CaseDir); err != nil {
			return nil, errors.Wrap(err, "load case directory", slog.String("dir", cfg.CaseDir))
		}
	}

	client := ai.NewClient(cfg.APIKey, logger)
	controller := game.NewController(
		repo,
		suspect.NewResponder(client, cfg.SuspectModel, logger),
		filter.New(client, cfg.UtilityModel, logger),
		verdict.NewJudge(client, cfg.UtilityModel, logger),
		cfg.MaxTurns,
		logger,
	)

	return &engine{
		logger:     logger,
		cfg:        cfg,
		client:     client,
		repo:       repo,
		controller: controller,
	}, nil
}

func fail(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
	os.Exit(1)
}

var Cases = &cobra.Command{
	Use:     "cases",
	GroupID: "game",
	Short:   "List available cases",
	Run: func(_ *cobra.Command, _ []string) {
		e, err := newEngine()
		if err != nil {
			fail(err)
		}
		for _, summary := range e.repo.List() {
			fmt.Printf("%-24s %s\n", summary.ID, summary.Title)
		}
	},
}
