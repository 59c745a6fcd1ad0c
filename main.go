package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/unified-feedback/unified/backend/handlers"
	"github.com/unified-feedback/unified/backend/internal/accounts"
	"github.com/unified-feedback/unified/backend/internal/config"
	"github.com/unified-feedback/unified/backend/internal/database"
	"github.com/unified-feedback/unified/backend/internal/export"
	"github.com/unified-feedback/unified/backend/internal/feedback"
	"github.com/unified-feedback/unified/backend/internal/oidc"
	"github.com/unified-feedback/unified/backend/internal/projects"
	"github.com/unified-feedback/unified/backend/internal/sessions"
	"github.com/unified-feedback/unified/backend/internal/storage"
	"github.com/unified-feedback/unified/backend/internal/summary"
	"github.com/unified-feedback/unified/backend/internal/tokens"
	"github.com/unified-feedback/unified/backend/internal/widget"
	"github.com/unified-feedback/unified/backend/pkg/logger"
	"github.com/unified-feedback/unified/backend/pkg/metrics"
	"github.com/unified-feedback/unified/backend/pkg/middleware"
)

var startTime = time.Now()

// stores are the persistence backends picked at startup.
type stores struct {
	accounts  accounts.Repository
	projects  projects.Repository
	feedback  feedback.Repository
	summaries summary.Store
	sessions  sessions.Repository
}

func memoryStores() stores {
	return stores{
		accounts:  accounts.NewMemoryRepository(),
		projects:  projects.NewMemoryRepository(),
		feedback:  feedback.NewMemoryRepository(),
		summaries: summary.NewMemoryStore(),
		sessions:  sessions.NewMemoryRepository(),
	}
}

func mongoStores(ctx context.Context, db *mongo.Database) (stores, error) {
	var s stores
	var err error
	if s.accounts, err = accounts.NewMongoRepository(ctx, db.Collection("users")); err != nil {
		return s, err
	}
	if s.projects, err = projects.NewMongoRepository(ctx, db.Collection("projects")); err != nil {
		return s, err
	}
	if s.feedback, err = feedback.NewMongoRepository(ctx, db.Collection("feedbacks")); err != nil {
		return s, err
	}
	if s.sessions, err = sessions.NewMongoRepository(ctx, db.Collection("sessions")); err != nil {
		return s, err
	}
	s.summaries = summary.NewMongoStore(db.Collection("summaries"))
	return s, nil
}

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: env=%s mongo=%v redis=%v identity=%v minio=%v summarizer=%v",
		cfg.Server.Environment, cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Identity.Issuer != "",
		cfg.MinIO.Enabled(), cfg.Summarizer.APIKey != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis backs the token blacklist, refresh sessions and the shared rate limiter.
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("redis %s unreachable, continuing without it: %v", cfg.Redis.Addr(), err)
			_ = rdb.Close()
			rdb = nil
		} else {
			sessions.SetBlacklistClient(rdb)
			defer func() { _ = rdb.Close() }()
			logger.Infof("connected to redis at %s", cfg.Redis.Addr())
		}
	}

	st := memoryStores()
	var mongoClient *mongo.Client
	if cfg.MongoDB.URI != "" {
		mongoClient, err = database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5, time.Second)
		if err != nil {
			logger.Fatalf("mongodb: %v", err)
		}
		defer func() { _ = mongoClient.Disconnect(context.Background()) }()
		if st, err = mongoStores(ctx, mongoClient.Database(cfg.MongoDB.Database)); err != nil {
			logger.Fatalf("mongodb: prepare collections: %v", err)
		}
		logger.Infof("using mongodb database %q", cfg.MongoDB.Database)
	} else {
		logger.Warn("MONGODB_URI not set: all data is kept in memory")
	}
	if rdb != nil {
		st.sessions = sessions.NewRedisRepository(rdb, "session:")
	}

	// Services. Exports read responses through the feedback service, which
	// itself needs projects, so the exporter joins the cascade afterwards.
	projectSvc := projects.NewService(st.projects, st.feedback, st.summaries)
	feedbackSvc := feedback.NewService(st.feedback, projectSvc)
	accountSvc := accounts.NewService(st.accounts, projectSvc)
	sessionSvc := sessions.NewService(st.sessions)

	var uploader export.Uploader
	if cfg.MinIO.Enabled() {
		s3, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			logger.Warnf("minio unavailable, exports disabled: %v", err)
		} else {
			uploader = s3
		}
	}
	exporter := export.NewExporter(feedbackSvc, uploader, cfg.MinIO.URLExpiry)
	projectSvc.OnDelete(exporter)

	var summarizer *summary.Summarizer
	if cfg.Summarizer.APIKey != "" {
		gen, err := summary.NewGenAIGenerator(ctx, cfg.Summarizer.APIKey, cfg.Summarizer.Model)
		if err != nil {
			logger.Warnf("summarizer disabled: %v", err)
		} else {
			summarizer = summary.NewSummarizer(gen, gen.Model()).WithTimeout(cfg.Summarizer.Timeout)
		}
	}
	summarySvc := summary.NewService(feedbackSvc, projectSvc, st.summaries, summarizer)

	// App tokens are tried first; identity-provider ID tokens second.
	var chain middleware.ChainVerifier
	if cfg.JWT.Secret != "" {
		tv, err := tokens.NewVerifier(cfg)
		if err != nil {
			logger.Fatalf("app token verifier: %v", err)
		}
		chain = append(chain, tv)
	}
	if cfg.Identity.Issuer != "" {
		iv, err := oidc.NewVerifier(ctx, cfg.Identity.Issuer, cfg.Identity.Audience)
		switch {
		case err == nil:
			chain = append(chain, iv)
		case cfg.Identity.AllowInsecureToken:
			logger.Warnf("OIDC discovery failed (%v); enabling insecure ID token parsing", err)
			chain = append(chain, oidc.NewInsecureVerifier(cfg.Identity.Audience))
		default:
			logger.Errorf("OIDC discovery failed, ID tokens will be rejected: %v", err)
		}
	} else if cfg.Identity.AllowInsecureToken {
		logger.Warn("enabling insecure ID token parsing (integration mode)")
		chain = append(chain, oidc.NewInsecureVerifier(cfg.Identity.Audience))
	}
	if cfg.Identity.TrustUIDHeader {
		logger.Warnf("trusting the %s header as identity", middleware.UIDHeader)
	}
	guards := handlers.Guards{
		Identity: middleware.AuthMiddleware(chain, middleware.WithUIDHeader(cfg.Identity.TrustUIDHeader)),
		Account:  middleware.RequireAccount(accountSvc),
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.SetHTMLTemplate(widget.Templates())

	var submitLimit gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
		if cfg.RateLimit.UseRedis && rdb != nil {
			r.Use(middleware.RedisRateLimitMiddleware(rdb, "api", cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
			submitLimit = middleware.RedisRateLimitMiddleware(rdb, "submit", cfg.RateLimit.SubmitRPS, cfg.RateLimit.SubmitBurst, win)
		} else {
			r.Use(middleware.RateLimitMiddleware("api", cfg.RateLimit.RPS, cfg.RateLimit.Burst))
			submitLimit = middleware.RateLimitMiddleware("submit", cfg.RateLimit.SubmitRPS, cfg.RateLimit.SubmitBurst)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: 200 only when the configured backends answer
	r.GET("/ready", func(c *gin.Context) {
		pctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		ready := true
		deps := gin.H{}
		if mongoClient != nil {
			ok := mongoClient.Ping(pctx, nil) == nil
			deps["mongodb"] = ok
			ready = ready && ok
		}
		if rdb != nil {
			ok := rdb.Ping(pctx).Err() == nil
			deps["redis"] = ok
			ready = ready && ok
		}
		deps["identity"] = len(chain) > 0 || cfg.Identity.TrustUIDHeader
		ready = ready && deps["identity"].(bool)
		deps["summarizer"] = summarySvc.Configured()
		deps["exports"] = exporter.Configured()

		status, label := http.StatusOK, "ready"
		if !ready {
			status, label = http.StatusServiceUnavailable, "not_ready"
		}
		c.JSON(status, gin.H{"status": label, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterSwagger(r)

	api := r.Group("/api")
	handlers.NewAuthHandler(cfg, accountSvc, sessionSvc).Register(api, guards)
	handlers.NewProjectsHandler(projectSvc, summarySvc, exporter, cfg.Server.PublicURL).Register(api, guards)
	handlers.NewFeedbackHandler(feedbackSvc, submitLimit).Register(api, guards)
	handlers.NewEmbedHandler(projectSvc, feedbackSvc, submitLimit).Register(r)

	// The widget is embedded on third-party sites, so CORS is open unless
	// origins are configured.
	origins := cfg.CORS.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.UIDHeader},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      corsHandler.Handler(r),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
