// Command server runs the session and invitation core: credential exchange,
// session artifact verification, invitation lifecycle, platform settings,
// and the audit trail behind all of it.
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

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"crewbase/internal/audit"
	auditrelay "crewbase/internal/audit/relay"
	auditpg "crewbase/internal/audit/store/postgres"
	authservice "crewbase/internal/auth/service"
	"crewbase/internal/auth/store/epoch"
	"crewbase/internal/auth/verifier"
	"crewbase/internal/invite"
	invitepg "crewbase/internal/invite/store/postgres"
	"crewbase/internal/platform/config"
	"crewbase/internal/platform/httpserver"
	"crewbase/internal/platform/logger"
	"crewbase/internal/platform/metrics"
	platformredis "crewbase/internal/platform/redis"
	"crewbase/internal/roles"
	"crewbase/internal/settings"
	httptransport "crewbase/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(slog.LevelInfo)
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// optional backends: absent config selects the in-memory stores
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var db *sql.DB
	if cfg.Postgres.DSN != "" {
		db, err = sql.Open("postgres", cfg.Postgres.DSN)
		if err == nil {
			err = db.PingContext(ctx)
		}
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	// audit pipeline: buffered recorder -> worker -> store (-> kafka relay)
	var auditStore audit.Store
	var outbox *auditpg.Store
	if db != nil {
		outbox = auditpg.New(db)
		auditStore = outbox
	} else {
		auditStore = audit.NewInMemoryStore()
	}
	recorder := audit.NewBufferedRecorder(1024, m.AuditEventsDropped, log)
	auditWorker := audit.NewWorker(auditStore, recorder.Inbox(), log)

	var epochs epoch.Store
	var settingsStore settings.Store
	switch {
	case redisClient != nil:
		epochs = epoch.NewRedisStore(redisClient.Client)
		settingsStore = settings.NewRedisStore(redisClient.Client)
	case db != nil:
		epochs = epoch.NewPostgresStore(db)
		settingsStore = settings.NewPostgresStore(db)
	default:
		epochs = epoch.NewInMemoryStore()
		settingsStore = settings.NewInMemoryStore()
	}

	var inviteStore invite.Store
	if db != nil {
		inviteStore = invitepg.New(db)
	} else {
		inviteStore = invite.NewInMemoryStore()
	}

	var operators roles.OperatorRegistry
	var members roles.MemberRegistry
	if db != nil {
		operators = roles.NewPostgresOperatorRegistry(db)
		members = roles.NewPostgresMemberRegistry(db)
	} else {
		memOps := roles.NewInMemoryOperatorRegistry()
		bootstrapID := roles.SeedBootstrapOperator(memOps)
		log.Info("seeded bootstrap operator", "principal_id", bootstrapID.String())
		operators = memOps
		members = roles.NewInMemoryMemberRegistry()
	}

	v := verifier.New(cfg.IdentitySigningKey, cfg.IdentityIssuer, cfg.ArtifactSigningKey)
	sessions := authservice.New(v, roles.NewResolver(operators, members), epochs, recorder, log, m, cfg.SessionTTL)
	invites := invite.NewService(inviteStore, recorder, log, m)
	settingsSvc := settings.NewService(settingsStore, recorder, log)

	auditReader, ok := auditStore.(httptransport.AuditReader)
	if !ok {
		log.Error("audit store does not support listing")
		os.Exit(1)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Sessions:      sessions,
		Invites:       invites,
		Settings:      settingsSvc,
		AuditLog:      auditReader,
		Logger:        log,
		Metrics:       m,
		SecureCookies: cfg.SecureCookies,
		SessionTTL:    cfg.SessionTTL,
		Health: func() error {
			hctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if redisClient != nil {
				if err := redisClient.Health(hctx); err != nil {
					return err
				}
			}
			if db != nil {
				if err := db.PingContext(hctx); err != nil {
					return err
				}
			}
			return nil
		},
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return auditWorker.Run(gctx)
	})

	sweeper := invite.NewSweeper(invites, cfg.InviteSweepInterval, 100, log)
	g.Go(func() error {
		return sweeper.Run(gctx)
	})

	if outbox != nil && len(cfg.Kafka.Brokers) > 0 {
		relay, err := auditrelay.New(outbox, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, log)
		if err != nil {
			log.Error("audit relay setup failed", "error", err)
			os.Exit(1)
		}
		g.Go(func() error {
			return relay.Run(gctx)
		})
	}

	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
