package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"campusportal/internal/api/v1/handler"
	"campusportal/internal/auth"
	"campusportal/internal/catalog"
	"campusportal/internal/chat"
	"campusportal/internal/config"
	"campusportal/internal/middleware"
	"campusportal/internal/portal"
	"campusportal/internal/pubsub"
	"campusportal/internal/ratelimit"
	"campusportal/internal/realtime"
	"campusportal/internal/repository"
	"campusportal/internal/service"
	"campusportal/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Resources are the long-lived clients behind the router. Close releases them
// in reverse order of creation.
type Resources struct {
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Portal  *portal.Registry
	closers []func() error
	logger  zerolog.Logger
}

func (r *Resources) onClose(fn func() error) {
	r.closers = append(r.closers, fn)
}

func (r *Resources) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to close resource")
		}
	}
	r.closers = nil
}

func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (http.Handler, *Resources, error) {
	logger.Info().Str("environment", cfg.Environment).Msg("App environment loaded")
	res := &Resources{logger: logger}
	h, err := build(ctx, cfg, logger, res)
	if err != nil {
		res.Close()
		return nil, nil, err
	}
	return h, res, nil
}

func build(ctx context.Context, cfg *config.Config, logger zerolog.Logger, res *Resources) (http.Handler, error) {
	// 1. Database
	pool, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	res.DB = pool
	res.onClose(func() error { pool.Close(); return nil })
	if err := repository.Migrate(ctx, pool); err != nil {
		return nil, err
	}

	// 2. Token verification key, from Secret Manager when a secret name is set
	var secrets service.SecretManagerService
	if cfg.JWTSecretName != "" {
		secrets, err = service.NewSecretManagerService(ctx, cfg)
		if err != nil {
			return nil, err
		}
		res.onClose(secrets.Close)
	}
	var getter service.SecretGetter
	if secrets != nil {
		getter = secrets
	}
	key, err := service.ResolveJWTKey(ctx, cfg, getter)
	if err != nil {
		return nil, err
	}
	verifier, err := auth.NewVerifier(key)
	if err != nil {
		return nil, fmt.Errorf("building token verifier: %w", err)
	}

	// 3. Realtime chat store and send limiter
	store, limiter, err := chatBackends(ctx, cfg, logger, res)
	if err != nil {
		return nil, err
	}
	if cfg.GCPProjectID != "" {
		publisher, err := pubsub.NewPublisher(ctx, cfg)
		if err != nil {
			return nil, err
		}
		res.onClose(publisher.Close)
		store = chat.NewEventStore(store, publisher, cfg.ChatEventsTopic, logger)
		logger.Info().Str("topic", cfg.ChatEventsTopic).Msg("Publishing chat events to Pub/Sub")
	}

	// 4. Object storage for product images
	objects, err := objectStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	// 5. Validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 6. Repositories & services & handlers
	catalogRepo := repository.NewCatalogRepo(pool)
	forumRepo := repository.NewForumRepo(pool)
	productRepo := repository.NewProductRepo(pool)
	reviewRepo := repository.NewReviewRepo(pool)

	catalogSvc := service.NewCatalogService(catalogSource(cfg, catalogRepo), catalogRepo, logger)
	logger.Info().Int("sections", catalogSvc.Reload(ctx)).Msg("Catalog loaded")
	chatSvc := service.NewChatService(store, limiter, cfg.ChatBackendTimeout(), logger)
	forumSvc := service.NewForumService(forumRepo, logger)
	productSvc := service.NewProductService(productRepo, objects, logger)
	reviewSvc := service.NewReviewService(reviewRepo, logger)

	registry := portal.NewRegistry(catalogSvc, chatSvc, cfg.PortalSessionTTL(), logger)
	res.Portal = registry
	res.onClose(func() error { registry.Close(); return nil })

	catalogHandler := handler.NewCatalogHandler(catalogSvc, validate, logger)
	chatHandler := handler.NewChatHandler(chatSvc, validate, logger)
	forumHandler := handler.NewForumHandler(forumSvc, validate, logger)
	productHandler := handler.NewProductHandler(productSvc, validate, logger)
	reviewHandler := handler.NewReviewHandler(reviewSvc, validate, logger)
	portalHandler := handler.NewPortalHandler(registry, validate, cfg.AllowedOrigins, logger)
	userHandler := handler.NewUserHandler()

	// 7. Middleware
	authMiddleware := middleware.AuthMiddleware(verifier, logger)
	optionalAuth := middleware.OptionalAuth(verifier, logger)

	// 8. ServeMux router
	mux := http.NewServeMux()

	apiV1Mux := http.NewServeMux()
	catalogHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	chatHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	forumHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	productHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	reviewHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	userHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	portalHandler.RegisterRoutes(apiV1Mux, optionalAuth)

	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))
	mux.HandleFunc("/healthz", healthz(pool, res.Redis))

	// Redirect /api/* to /v1/* for backward compatibility
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/")
		http.Redirect(w, r, "/v1/"+rest, http.StatusMovedPermanently)
	})

	// 9. CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(logger)(c.Handler(mux)), nil
}

// chatBackends picks Redis when an address is configured and the in-memory
// store otherwise. The memory store only suits a single instance.
func chatBackends(ctx context.Context, cfg *config.Config, logger zerolog.Logger, res *Resources) (realtime.Store, ratelimit.Limiter, error) {
	window := cfg.ChatSendWindow()
	if cfg.RedisAddr == "" {
		logger.Warn().Msg("REDIS_ADDR not set, using the in-memory chat store")
		limiter, err := ratelimit.NewMemoryFixedWindowLimiter(cfg.ChatSendLimit, window)
		if err != nil {
			return nil, nil, err
		}
		return realtime.NewMemoryStore(), limiter, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	res.Redis = client
	res.onClose(client.Close)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, nil, fmt.Errorf("pinging redis: %w", err)
	}
	store := realtime.NewRedisStore(client, cfg.RedisPrefix, cfg.ChatBackendTimeout(), logger)
	limiter, err := ratelimit.NewRedisFixedWindowLimiter(client, cfg.RedisPrefix+":ratelimit", cfg.ChatSendLimit, window)
	if err != nil {
		return nil, nil, err
	}
	logger.Info().Str("addr", cfg.RedisAddr).Msg("Redis chat store connected")
	return store, limiter, nil
}

// objectStore returns nil when no driver is configured; image uploads are
// then rejected by the product service.
func objectStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (storage.ObjectStore, error) {
	switch cfg.StorageDriver {
	case "s3":
		if cfg.S3URL == "" {
			logger.Warn().Msg("S3_URL not set, product image uploads are disabled")
			return nil, nil
		}
		return storage.NewS3Store(ctx, storage.S3Config{
			Endpoint:  cfg.S3URL,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			PublicURL: cfg.S3PublicURL,
		})
	case "minio":
		return storage.NewMinioStore(cfg.MinioEndpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicURL, cfg.MinioUseSSL)
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}

func catalogSource(cfg *config.Config, repo repository.CatalogRepository) catalog.Source {
	if cfg.CatalogSource == "http" {
		return catalog.NewJSONSource(cfg.CatalogURL, 15*time.Second)
	}
	return repo
}

func healthz(pool *pgxpool.Pool, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		var errs []error
		if err := pool.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				errs = append(errs, fmt.Errorf("redis: %w", err))
			}
		}
		if err := errors.Join(errs...); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}
}
