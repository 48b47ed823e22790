// Command server runs the Jiran community-portal registration service:
// the signup wizard, the registration orchestrator, sign-in, and the
// district directory, over either in-memory stores (local development)
// or PostgreSQL/Redis/Kafka when configured.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	appstore "jiran/internal/application/store"
	"jiran/internal/audit"
	directoryhandler "jiran/internal/directory/handler"
	dirmodels "jiran/internal/directory/models"
	dirstore "jiran/internal/directory/store"
	httpapi "jiran/internal/http"
	identityhandler "jiran/internal/identity/handler"
	idservice "jiran/internal/identity/service"
	identitystore "jiran/internal/identity/store"
	"jiran/internal/platform/config"
	"jiran/internal/platform/httpserver"
	"jiran/internal/platform/logger"
	"jiran/internal/platform/postgres"
	"jiran/internal/platform/redis"
	profilestore "jiran/internal/profile/store"
	rolestore "jiran/internal/roles/store"
	signuphandler "jiran/internal/signup/handler"
	signupmetrics "jiran/internal/signup/metrics"
	"jiran/internal/signup/orchestrator"
	"jiran/internal/signup/wizard"
	"jiran/internal/storage"
	id "jiran/pkg/domain"
)

const attemptTTL = 24 * time.Hour

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.Postgres.URL)
	if err != nil {
		log.Error("postgres unavailable", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	registry := prometheus.NewRegistry()
	metrics := signupmetrics.New(registry)

	stores := buildStores(db, log)
	objects := buildObjectStore(cfg.Storage)

	publisher := audit.NewChannelPublisher(256, log)
	sinks := []audit.Sink{audit.NewLogSink(log)}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			log.Error("kafka unavailable", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
	}
	go func() {
		_ = audit.NewWorker(publisher.Inbox(), log, sinks...).Run(ctx)
	}()

	identity, err := idservice.New(stores.users, stores.sessions, stores.profiles, cfg.Server.JWTSigningKey,
		idservice.WithLogger(log))
	if err != nil {
		log.Error("identity service init failed", "error", err)
		os.Exit(1)
	}

	var attempts orchestrator.AttemptStore = orchestrator.NewInMemoryAttempts()
	if redisClient != nil {
		attempts = orchestrator.NewRedisAttempts(redisClient.Client, attemptTTL)
	}

	orch, err := orchestrator.New(orchestrator.Params{
		Identity:     identity,
		Objects:      objects,
		Profiles:     stores.profiles,
		Applications: stores.applications,
		Roles:        stores.roles,
		Attempts:     attempts,
	},
		orchestrator.WithLogger(log),
		orchestrator.WithAudit(publisher),
		orchestrator.WithMetrics(metrics),
		orchestrator.WithProfileWait(cfg.Signup.ProfileWait, cfg.Signup.ProfilePollInterval),
		orchestrator.WithUploadConcurrency(cfg.Signup.UploadConcurrency),
	)
	if err != nil {
		log.Error("orchestrator init failed", "error", err)
		os.Exit(1)
	}

	wizardSessions := wizard.NewSessionStore(cfg.Signup.SessionTTL, log)
	go wizardSessions.Sweep(ctx, time.Minute)

	wizardService, err := wizard.New(wizardSessions, stores.profiles, stores.directory, orch,
		wizard.WithLogger(log),
		wizard.WithAudit(publisher),
		wizard.WithMetrics(metrics),
	)
	if err != nil {
		log.Error("wizard init failed", "error", err)
		os.Exit(1)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:    log,
		Signup:    signuphandler.New(wizardService, log),
		Identity:  identityhandler.New(identity, publisher, log),
		Directory: directoryhandler.New(stores.directory, log),
		Registry:  registry,
		Health:    healthChecks(db, redisClient),
	})

	srv := httpserver.New(cfg.Server.Addr, router)
	go func() {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

type storeSet struct {
	users        identitystore.UserStore
	sessions     identitystore.SessionStore
	profiles     profilestore.Store
	applications appstore.Store
	roles        rolestore.Store
	directory    dirstore.Store
}

// buildStores selects PostgreSQL-backed stores when a database is
// configured, in-memory stores otherwise. The in-memory directory is
// seeded with demo localities so the wizard is usable out of the box.
func buildStores(db *sql.DB, log *slog.Logger) storeSet {
	if db != nil {
		return storeSet{
			users:        identitystore.NewPostgresUsers(db),
			sessions:     identitystore.NewPostgresSessions(db),
			profiles:     profilestore.NewPostgres(db),
			applications: appstore.NewPostgres(db),
			roles:        rolestore.NewPostgres(db),
			directory:    dirstore.NewPostgres(db),
		}
	}

	log.Info("no DATABASE_URL configured, using in-memory stores")
	directory := dirstore.NewInMemory()
	seedDirectory(directory)
	return storeSet{
		users:        identitystore.NewInMemoryUsers(),
		sessions:     identitystore.NewInMemorySessions(),
		profiles:     profilestore.NewInMemory(),
		applications: appstore.NewInMemory(),
		roles:        rolestore.NewInMemory(),
		directory:    directory,
	}
}

func seedDirectory(directory *dirstore.InMemory) {
	petaling := dirmodels.District{ID: id.NewDistrictID(), Name: "Petaling"}
	klang := dirmodels.District{ID: id.NewDistrictID(), Name: "Klang"}
	directory.SeedDistrict(petaling)
	directory.SeedDistrict(klang)
	directory.SeedCommunity(dirmodels.Community{ID: id.NewCommunityID(), DistrictID: petaling.ID, Name: "Taman Megah"})
	directory.SeedCommunity(dirmodels.Community{ID: id.NewCommunityID(), DistrictID: petaling.ID, Name: "Bukit Indah"})
	directory.SeedCommunity(dirmodels.Community{ID: id.NewCommunityID(), DistrictID: klang.ID, Name: "Bandar Botanic"})
}

func buildObjectStore(cfg config.Storage) storage.Store {
	if cfg.BaseDir != "" {
		return storage.NewFilesystem(cfg.BaseDir, cfg.PublicBaseURL)
	}
	return storage.NewInMemory(cfg.PublicBaseURL)
}

func healthChecks(db *sql.DB, redisClient *redis.Client) []httpapi.HealthCheck {
	var checks []httpapi.HealthCheck
	if db != nil {
		checks = append(checks, httpapi.HealthCheck{Name: "postgres", Check: db.PingContext})
	}
	if redisClient != nil {
		checks = append(checks, httpapi.HealthCheck{Name: "redis", Check: redisClient.Health})
	}
	return checks
}
