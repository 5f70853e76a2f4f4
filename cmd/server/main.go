package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"glp/internal/adapters/email"
	web "glp/internal/adapters/http"
	"glp/internal/adapters/http/perf"
	"glp/internal/adapters/storage"
	activityStore "glp/internal/adapters/storage/activity"
	assignmentStore "glp/internal/adapters/storage/assignment"
	notificationStore "glp/internal/adapters/storage/notification"
	projectStore "glp/internal/adapters/storage/project"
	surveyStore "glp/internal/adapters/storage/survey"
	trainingStore "glp/internal/adapters/storage/training"
	userStore "glp/internal/adapters/storage/user"
	"glp/internal/application/orchestrators"
	"glp/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))

	// WAL mode, foreign keys and busy timeout on every connection
	dsn := cfg.DatabasePath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.MigrateDB(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	collector := perf.NewCollector(perf.DefaultWindow)
	timedDB := storage.NewTimedDB(db, cfg.SlowQuery()).WithRecorder(collector)

	stores := web.Stores{
		Users:         userStore.NewSQLiteStore(timedDB),
		Projects:      projectStore.NewSQLiteStore(timedDB),
		Surveys:       surveyStore.NewSQLiteStore(timedDB),
		Training:      trainingStore.NewSQLiteStore(timedDB),
		Assignments:   assignmentStore.NewSQLiteStore(timedDB),
		Notifications: notificationStore.NewSQLiteStore(timedDB),
		Activity:      activityStore.NewSQLiteStore(timedDB),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	created, err := orchestrators.ExecuteSeedAdmin(ctx, orchestrators.SeedAdminInput{
		Username: cfg.Admin.Username,
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
	}, orchestrators.SeedAdminDeps{UserStore: stores.Users, Now: time.Now})
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	if created {
		slog.Warn("admin_seeded", "event", "seed", "username", cfg.Admin.Username)
	}
	if cfg.SeedDemo {
		if err := orchestrators.ExecuteSeedDemo(ctx, orchestrators.SeedDemoDeps{
			UserStore:       stores.Users,
			ProjectStore:    stores.Projects,
			SurveyStore:     stores.Surveys,
			TrainingStore:   stores.Training,
			AssignmentStore: stores.Assignments,
			Now:             time.Now,
		}); err != nil {
			log.Fatalf("failed to seed demo data: %v", err)
		}
	}

	var sender email.Sender = email.NewLogSender()
	if cfg.Email.ResendKey != "" {
		sender = email.NewResendSender(cfg.Email.ResendKey, cfg.Email.From, cfg.Email.ReplyTo)
	}

	csrfKey, err := cfg.CSRFKeyBytes()
	if err != nil {
		log.Fatalf("invalid csrf key: %v", err)
	}
	server, err := web.NewServer(stores, web.Options{
		CSRFKey:            csrfKey,
		Secure:             cfg.IsProduction(),
		SessionLifetime:    cfg.SessionLifetime,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		SlowRequest:        cfg.SlowRequest(),
		Email:              sender,
		BaseURL:            cfg.BaseURL,
		Collector:          collector,
	})
	if err != nil {
		log.Fatalf("failed to build server: %v", err)
	}
	defer server.Close()

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown_failed", "event", "shutdown", "error", err)
		}
	}()

	slog.Info("server_starting", "event", "startup",
		"version", version, "addr", cfg.Addr, "env", cfg.Env, "schema", storage.LatestSchemaVersion())
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
	slog.Info("server_stopped", "event", "shutdown")
}
