package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"quiz-game-service/internal/config"
	"quiz-game-service/internal/domain"
	"quiz-game-service/internal/game"
	"quiz-game-service/internal/infra/memory"
	pgstore "quiz-game-service/internal/infra/postgres"
	redisinfra "quiz-game-service/internal/infra/redis"
	transport "quiz-game-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.Duration(cfg.Redis.TTL, 4*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pgstore.NewQuizLoader(pool)
	}

	quizTTL := config.Duration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo game.QuizRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var registry game.SessionRegistry
	if redisClient != nil {
		registry = redisinfra.NewSessionRegistry(redisClient, redisTTL)
	} else {
		registry = memory.NewSessionRegistry()
	}

	var store game.GameStore = memory.NewGameStore()
	if pool != nil {
		store = pgstore.NewGameStore(pool)
	}

	hub := transport.NewHub(log)
	service := game.NewService(registry, quizRepo, store, hub, clockwork.NewRealClock(), game.Config{
		GraceDelay:       config.Duration(cfg.Game.GraceDelay, 3*time.Second),
		DefaultTimeLimit: cfg.Game.DefaultTimeLimit,
		AllowLateJoin:    cfg.AllowLateJoin(),
		CodeAttempts:     cfg.Game.CodeAttempts,
	}, log)

	wsHandler := transport.NewWSHandler(service, hub, log)
	restHandler := transport.NewRESTHandler(service, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	restHandler.Register(mux)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: websocket connections outlive any sane deadline.
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting quiz game service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes seeds a demo quiz when no database is configured.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:          "quiz-1",
			Title:       "General knowledge warmup",
			Description: "A short demo quiz",
			TimeLimit:   30,
			MinPlayers:  2,
			MaxPlayers:  20,
			Questions: []domain.Question{
				{
					ID:   "q1",
					Text: "What is 2x + 5 = 15 solved for x?",
					Answers: []domain.Answer{
						{ID: "a", Text: "x = 5", Correct: true},
						{ID: "b", Text: "x = 10"},
						{ID: "c", Text: "x = 15"},
						{ID: "d", Text: "x = 20"},
					},
					TimeLimit: 30,
				},
				{
					ID:   "q2",
					Text: "What is the area of a square with side 5?",
					Answers: []domain.Answer{
						{ID: "a", Text: "10"},
						{ID: "b", Text: "20"},
						{ID: "c", Text: "25", Correct: true},
						{ID: "d", Text: "50"},
					},
					TimeLimit: 30,
				},
			},
		},
	}
}
