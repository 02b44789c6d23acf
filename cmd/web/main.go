package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
	"github.com/myrjola/blackwood/internal/ai"
	"github.com/myrjola/blackwood/internal/cases"
	"github.com/myrjola/blackwood/internal/envstruct"
	"github.com/myrjola/blackwood/internal/errors"
	"github.com/myrjola/blackwood/internal/filter"
	"github.com/myrjola/blackwood/internal/game"
	"github.com/myrjola/blackwood/internal/logging"
	"github.com/myrjola/blackwood/internal/pprofserver"
	"github.com/myrjola/blackwood/internal/suspect"
	"github.com/myrjola/blackwood/internal/verdict"
)

type application struct {
	logger         *slog.Logger
	sessionManager *scs.SessionManager
	controller     *game.Controller
	sessions       *game.Manager
	cases          *cases.Repository
}

type config struct {
	Addr string `env:"BLACKWOOD_ADDR" envDefault:"localhost:4000"`
	// APIKey authenticates against the inference backend.
	APIKey string `env:"OPENAI_API_KEY"`
	// CaseDir optionally points at extra case YAML files loaded on top of the
	// embedded case.
	CaseDir       string `env:"BLACKWOOD_CASE_DIR" envDefault:""`
	MaxTurns      int    `env:"BLACKWOOD_MAX_TURNS" envDefault:"30"`
	SuspectModel  string `env:"BLACKWOOD_SUSPECT_MODEL" envDefault:"gpt-4o"`
	UtilityModel  string `env:"BLACKWOOD_UTILITY_MODEL" envDefault:"gpt-4o-mini"`
	PprofEnabled  bool   `env:"BLACKWOOD_PPROF" envDefault:"false"`
	PprofPort     string `env:"BLACKWOOD_PPROF_PORT" envDefault:":6060"`
	SessionHours  int    `env:"BLACKWOOD_SESSION_EXPIRY_HOURS" envDefault:"12"`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var cfg config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "parse environment")
	}

	if cfg.PprofEnabled {
		pprofserver.Launch(cfg.PprofPort, logger)
	}

	repo, err := cases.NewRepository(logger)
	if err != nil {
		return errors.Wrap(err, "initialise case repository")
	}
	if cfg.CaseDir != "" {
		if err = repo.LoadDir(cfg.CaseDir); err != nil {
			return errors.Wrap(err, "load case directory", slog.String("dir", cfg.CaseDir))
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

	sessionManager := scs.New()
	sessionManager.Lifetime = time.Duration(cfg.SessionHours) * time.Hour

	app := application{
		logger:         logger,
		sessionManager: sessionManager,
		controller:     controller,
		sessions:       game.NewManager(),
		cases:          repo,
	}

	return app.configureAndStartServer(ctx, cfg.Addr)
}

func main() {
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}))
	logger := slog.New(loggerHandler)

	// Missing .env is fine, the environment may be set by other means.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Error(err.Error())
		os.Exit(1)
	}

	if err := run(context.Background(), logger, os.LookupEnv); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}
