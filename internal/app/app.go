package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/cognify-backend/internal/convstate"
	"github.com/yungbote/cognify-backend/internal/db"
	"github.com/yungbote/cognify-backend/internal/evaluation"
	"github.com/yungbote/cognify-backend/internal/observability"
	"github.com/yungbote/cognify-backend/internal/platform/envutil"
	"github.com/yungbote/cognify-backend/internal/platform/logger"
	"github.com/yungbote/cognify-backend/internal/platform/openai"
	"github.com/yungbote/cognify-backend/internal/prompts"
	"github.com/yungbote/cognify-backend/internal/realtime/bus"
	"github.com/yungbote/cognify-backend/internal/repos"
	"github.com/yungbote/cognify-backend/internal/usercontext"
)

type Repos struct {
	Users       repos.UserRepo
	Challenges  repos.ChallengeRepo
	Evaluations repos.EvaluationRepo
}

// App holds the assembled dependency graph. Built once at startup; Close
// releases everything in reverse order.
type App struct {
	Log         *logger.Logger
	DB          *gorm.DB
	Repos       Repos
	States      convstate.Store
	Registry    *prompts.Registry
	AI          openai.Client
	Bus         bus.EvalBus
	UserContext usercontext.Service
	Evaluations evaluation.Service

	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	logMode := envutil.String("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "cognify-evaluation",
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", "dev"),
	})

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	reposet := Repos{
		Users:       repos.NewUserRepo(theDB, log),
		Challenges:  repos.NewChallengeRepo(theDB, log),
		Evaluations: repos.NewEvaluationRepo(theDB, log),
	}

	var weights *prompts.WeightTable
	if path := strings.TrimSpace(os.Getenv("EVAL_WEIGHTS_FILE")); path != "" {
		weights, err = prompts.LoadWeightTable(path)
		if err != nil {
			log.Sync()
			return nil, fmt.Errorf("load weight table: %w", err)
		}
		log.Info("category weight overrides loaded", "path", path)
	}

	registry, err := prompts.NewDefaultRegistry(log, weights)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init prompt registry: %w", err)
	}

	ai, err := openai.NewClient(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init openai client: %w", err)
	}

	var evalBus bus.EvalBus
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		evalBus, err = bus.NewRedisBus(log)
		if err != nil {
			log.Sync()
			return nil, fmt.Errorf("init redis bus: %w", err)
		}
	} else {
		log.Info("REDIS_ADDR unset, realtime delivery disabled")
	}

	states := convstate.NewGormStore(theDB, log)
	contextSvc := usercontext.NewService(reposet.Users, reposet.Challenges, reposet.Evaluations, log)

	evalSvc, err := evaluation.NewService(evaluation.Deps{
		Registry:    registry,
		UserContext: contextSvc,
		AI:          ai,
		States:      states,
		Evaluations: reposet.Evaluations,
		Bus:         evalBus,
	}, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init evaluation service: %w", err)
	}

	return &App{
		Log:          log,
		DB:           theDB,
		Repos:        reposet,
		States:       states,
		Registry:     registry,
		AI:           ai,
		Bus:          evalBus,
		UserContext:  contextSvc,
		Evaluations:  evalSvc,
		otelShutdown: otelShutdown,
	}, nil
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil {
			a.Log.Warn("redis bus close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	a.Log.Sync()
}
