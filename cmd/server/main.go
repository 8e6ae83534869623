package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"ashram/internal/admin"
	"ashram/internal/audit"
	"ashram/internal/authstate"
	"ashram/internal/content"
	"ashram/internal/email"
	"ashram/internal/gate"
	"ashram/internal/identity"
	"ashram/internal/identity/local"
	profilestore "ashram/internal/identity/store/profile"
	rolestore "ashram/internal/identity/store/role"
	sessionstore "ashram/internal/identity/store/session"
	userstore "ashram/internal/identity/store/user"
	"ashram/internal/legacyadmin"
	"ashram/internal/notify"
	"ashram/internal/platform/config"
	"ashram/internal/platform/httpserver"
	"ashram/internal/platform/logger"
	"ashram/internal/platform/metrics"
	platformredis "ashram/internal/platform/redis"
	httptransport "ashram/internal/transport/http"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	m := metrics.New()

	// Postgres is optional; an empty DSN selects the in-memory stores.
	var db *sql.DB
	if cfg.Postgres.DSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			log.Error("postgres open failed", "error", err)
			os.Exit(1)
		}
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres ping failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	var (
		users    local.UserStore
		profiles local.ProfileStore
		roles    admin.RoleStore
		sessions local.SessionStore
		auditDB  audit.Store
	)
	if db != nil {
		users = userstore.NewPostgres(db)
		profiles = profilestore.NewPostgres(db)
		roles = rolestore.NewPostgres(db)
		sessions = sessionstore.NewPostgres(db)
		auditDB = audit.NewPostgresStore(db)
	} else {
		users = userstore.New()
		profiles = profilestore.New()
		roles = rolestore.New()
		sessions = sessionstore.New()
		auditDB = audit.NewInMemoryStore()
	}

	// Redis, when configured, replaces the session store with TTL-enforced
	// records.
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connect failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		sessions = sessionstore.NewRedis(redisClient.Client)
		defer redisClient.Close()
	}

	var sinks []audit.Sink
	if len(cfg.Audit.Brokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(ctx, cfg.Audit.Brokers, cfg.Audit.Topic)
		if err != nil {
			log.Error("audit sink connect failed", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
	}
	auditor := audit.NewPublisher(auditDB, log, sinks...)

	var sender email.Sender
	if cfg.Email.ResendAPIKey != "" {
		sender = email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.From, log)
	} else {
		sender = email.NewNoopSender(log)
	}

	tokens := identity.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	provider := local.New(users, profiles, roles, sessions, tokens, sender, auditor, log,
		local.WithSessionTTL(cfg.SessionTTL),
	)

	notifier := notify.NewSlogNotifier(log)

	auth := authstate.New(provider, notifier, m, log)
	auth.Initialize(ctx, "")
	defer auth.Close()

	checker := legacyadmin.NewChecker(
		cfg.BreakGlassEmail,
		cfg.BreakGlassPasswordHash,
		legacyadmin.NewFileMarkerStore(cfg.MarkerPath),
		auditor,
		log,
	)
	if !checker.Enabled() {
		log.Warn("break-glass credentials not configured, admin routes are unreachable")
	}

	authGate := gate.New(auth, checker, notifier, m, auditor, log, cfg.GateReadyTimeout)
	roleService := admin.NewService(provider, roles, auditor, m, log)
	library := content.NewLibrary(cfg.ContentDir)

	router := httptransport.NewRouter(httptransport.Deps{
		Auth:     auth,
		Verifier: provider,
		Roles:    roleService,
		Checker:  checker,
		Gate:     authGate,
		Library:  library,
		Logger:   log,
	})

	srv := httpserver.New(cfg.Addr, router)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
