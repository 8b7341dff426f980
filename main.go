package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"amendvote-be/internal/config"
	"amendvote-be/internal/handler"
	"amendvote-be/internal/middleware"
	"amendvote-be/internal/repository"
	"amendvote-be/internal/service"
	"amendvote-be/pkg/database"
	"amendvote-be/pkg/logger"
	"amendvote-be/pkg/redis"
)

// Resources holds everything that needs cleanup on shutdown.
type Resources struct {
	db          *database.PostgresDB
	redisClient *redis.Client
	server      *http.Server
	log         *logger.Logger
	mu          sync.Mutex
	closed      bool
}

// Cleanup gracefully closes all resources, HTTP server first so no new
// requests arrive while stores shut down.
func (r *Resources) Cleanup(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error

	if r.server != nil {
		if err := r.server.Shutdown(ctx); err != nil {
			r.log.WithError(err).Error("Failed to shutdown HTTP server")
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		}
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			r.log.WithError(err).Error("Failed to close Redis connection")
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}

	if r.db != nil {
		r.db.Close()
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup completed with %d errors: %v", len(errs), errs)
	}

	r.log.Info("Graceful shutdown completed")
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.WithFields(map[string]interface{}{
		"port":        cfg.Port,
		"log_level":   cfg.LogLevel,
		"environment": cfg.Environment,
	}).Info("Starting amendvote server")

	ctx := context.Background()
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	redisClient, err := redis.NewClient(cfg.RedisURL, cfg.Environment)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}

	// Repositories and services
	repos := repository.Repositories{
		User:      repository.NewUserRepository(db),
		Amendment: repository.NewAmendmentRepository(db),
		Vote:      repository.NewVoteRepository(db),
	}

	sessionStore := service.NewSessionService(redisClient, cfg.SessionTTL)
	tallyCache := service.NewRedisTallyCache(redisClient, log)

	authService := service.NewAuthService(repos.User, sessionStore, log)
	votingService := service.NewVotingService(repos.Vote, repos.Amendment, tallyCache, log)
	amendmentService := service.NewAmendmentService(repos.Amendment, tallyCache, log)

	router := setupRouter(cfg, log, authService, votingService, amendmentService)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	resources := &Resources{
		db:          db,
		redisClient: redisClient,
		server:      server,
		log:         log,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := resources.Cleanup(cleanupCtx); err != nil {
			log.WithError(err).Error("Cleanup completed with errors")
		}
	}()

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("Server starting on port " + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErrChan:
		log.WithError(err).Error("Server failed, initiating shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := resources.Cleanup(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown completed with errors")
		os.Exit(1)
	}
}

// setupRouter configures and returns the HTTP router.
func setupRouter(
	cfg *config.Config,
	log *logger.Logger,
	authService *service.AuthService,
	votingService *service.VotingService,
	amendmentService *service.AmendmentService,
) *chi.Mux {
	r := chi.NewRouter()

	corsConfig := &middleware.CORSConfig{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization"},
		ExposedHeaders:   []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           86400,
	}

	r.Use(middleware.CORS(corsConfig, log))
	r.Use(middleware.RequestID(log))
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Compress(5))
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	healthHandler := handler.NewHealthHandler("amendvote-be")
	authHandler := handler.NewAuthHandler(authService, log)
	votingHandler := handler.NewVotingHandler(votingService, log)
	amendmentHandler := handler.NewAmendmentHandler(amendmentService, log)

	requireAuth := middleware.Auth(authService, log)
	requireAdmin := middleware.RequireAdmin(log)

	r.Get("/health", healthHandler.Check)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/logout", authHandler.Logout)
			r.Get("/check", authHandler.Check)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Post("/create-admin", authHandler.CreateAdmin)
			})
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/amendments", amendmentHandler.List)
	})

	r.Route("/vote", func(r chi.Router) {
		// The one public, unauthenticated read: result transparency is a
		// product requirement independent of voter identity.
		r.Get("/public/{amendmentId}", amendmentHandler.PublicTally)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			// chi requires a single wildcard name per level, so {id} is an
			// amendment id everywhere except DELETE, where it is a vote id.
			r.Post("/", votingHandler.SubmitVote)
			r.Get("/{id}/has-voted", votingHandler.HasVoted)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)

				r.Get("/{id}", votingHandler.ListVotes)
				r.Put("/{id}/toggle-voting", amendmentHandler.ToggleVoting)
				r.Put("/{id}/toggle-results", amendmentHandler.ToggleResults)
				r.Post("/{id}/reconcile", amendmentHandler.Reconcile)
				r.Delete("/{id}", votingHandler.DeleteVote)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"not_found","message":"Endpoint not found"}}`))
	})

	log.Info("Router configured")
	return r
}
