package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fluentphrases/internal/api/v1/handler"
	"fluentphrases/internal/config"
	"fluentphrases/internal/middleware"
	"fluentphrases/internal/notify"
	"fluentphrases/internal/payment"
	"fluentphrases/internal/pubsub"
	"fluentphrases/internal/repository"
	"fluentphrases/internal/service"
	"fluentphrases/internal/token"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Config      *config.Config
	Logger      zerolog.Logger
	Users       repository.UserRepository
	Phrases     repository.PhraseRepository
	Readings    repository.ReadingRepository
	DeadLetters repository.DeadLetterRepository
	Codec       *token.Codec
	Sender      notify.Sender
	Preferences payment.PreferenceCreator
	Limiter     middleware.RateLimiter

	// NotificationDeadLetters enables the /dlq/record push endpoint.
	NotificationDeadLetters repository.NotificationDeadLetterRepository
	// PushTokenValidator defaults to Google ID token validation.
	PushTokenValidator middleware.IDTokenValidator
	// Now defaults to time.Now.
	Now func() time.Time
}

// New builds the infrastructure described by cfg and returns the root
// handler. The returned closer releases connections and must be called on
// shutdown.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (http.Handler, func(), error) {
	logger.Info().Str("environment", cfg.Environment).Str("store_driver", cfg.StoreDriver).Msg("Building router")

	var closers []func() error
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Error().Err(err).Msg("Failed to release resource")
			}
		}
	}
	fail := func(err error) (http.Handler, func(), error) {
		closeAll()
		return nil, nil, err
	}

	deps := Deps{Config: cfg, Logger: logger}

	// 1. Storage
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Warn().Msg("Using in-memory store; data is lost on restart")
		content := repository.NewMemoryContentRepo(nil, nil)
		deadLetters := repository.NewMemoryDeadLetterRepo()
		deps.Users = repository.NewMemoryUserRepo()
		deps.Phrases = content
		deps.Readings = content
		deps.DeadLetters = deadLetters
		deps.NotificationDeadLetters = deadLetters
	default:
		db, err := repository.OpenPostgres(ctx, cfg.DBConnectionString, cfg.IsDevelopment(), logger)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, db.Close)
		deps.Users = repository.NewUserRepo(db)
		deps.Phrases = repository.NewPhraseRepo(db)
		deps.Readings = repository.NewReadingRepo(db)
		deps.DeadLetters = repository.NewDeadLetterRepo(db)
		deps.NotificationDeadLetters = repository.NewNotificationDeadLetterRepo(db)
	}

	// 2. Signing secret
	var secrets service.SecretSource
	if cfg.JWTSecretResource != "" {
		sm, err := service.NewSecretManagerService(ctx, cfg.GCPProjectID)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, sm.Close)
		secrets = sm
	}
	secret, err := service.LoadSigningSecret(ctx, secrets, cfg.JWTSecretResource, cfg.JWTSecret)
	if err != nil {
		return fail(err)
	}
	deps.Codec, err = token.NewCodec(secret, cfg.JWTIssuer)
	if err != nil {
		return fail(err)
	}

	// 3. Notifications
	if cfg.GCPProjectID != "" {
		publisher, err := pubsub.NewPublisher(ctx, cfg.GCPProjectID, cfg.PubSubEmulatorHost)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, publisher.Close)
		deps.Sender = notify.NewPubSubSender(publisher, cfg.PubSubResetEmailTopic, cfg.FrontendURL, logger)
	} else {
		logger.Warn().Msg("GCP_PROJECT_ID not set; password reset links are logged instead of emailed")
		deps.Sender = notify.NewLogSender(cfg.FrontendURL, logger)
	}

	// 4. Payments
	deps.Preferences = payment.NewMercadoPagoClient(cfg.MPAPIBaseURL, cfg.MPAccessToken, nil)

	// 5. Rate limiting
	if cfg.RedisAddr != "" {
		client, err := middleware.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return fail(fmt.Errorf("connect redis: %w", err))
		}
		closers = append(closers, client.Close)
		deps.Limiter = middleware.NewRedisRateLimiter(client, logger)
	} else {
		deps.Limiter = middleware.NewMemoryRateLimiter()
	}

	h, err := NewHandler(deps)
	if err != nil {
		return fail(err)
	}
	return h, closeAll, nil
}

// NewHandler assembles services, handlers and middleware over deps.
func NewHandler(d Deps) (http.Handler, error) {
	if d.Config == nil || d.Codec == nil || d.Users == nil || d.Sender == nil {
		return nil, errors.New("router: config, codec, users and sender are required")
	}
	cfg, logger := d.Config, d.Logger
	dev := cfg.IsDevelopment()

	// 1. Services
	authSvc, err := service.NewAuthService(d.Users, d.Codec, d.Sender, service.AuthConfig{
		SessionTTL:    cfg.SessionTokenTTL,
		ResetTTL:      cfg.ResetTokenTTL,
		NotifyTimeout: cfg.NotifyTimeout,
	}, d.Now, logger)
	if err != nil {
		return nil, err
	}
	entitlementSvc := service.NewEntitlementService(d.Users, d.Phrases, service.EntitlementConfig{
		FreeCategories: cfg.FreeCategories,
		DailyLimit:     cfg.FreeDailyPhraseLimit,
		Location:       cfg.QuotaLocation(),
	}, d.Now, logger)
	readingSvc := service.NewReadingService(d.Readings)
	paymentSvc := service.NewPaymentService(d.Users, d.DeadLetters, d.Preferences, service.PaymentConfig{
		FrontendURL:   cfg.FrontendURL,
		BackendURL:    cfg.BackendURL,
		WebhookSecret: cfg.MPWebhookSecret,
	}, logger)

	// 2. Handlers
	validate := handler.NewValidator()
	authHandler := handler.NewAuthHandler(authSvc, validate, logger, dev)
	phraseHandler := handler.NewPhraseHandler(entitlementSvc, logger, dev)
	readingHandler := handler.NewReadingHandler(readingSvc, logger, dev)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, validate, logger, dev)

	// 3. Middleware
	authenticator := middleware.NewAuthenticator(d.Codec, d.Users, logger)
	limit := middleware.RateLimit(d.Limiter, cfg.AuthRateLimit, cfg.AuthRateWindow, logger)

	// 4. Routes
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Route("/api", func(r chi.Router) {
		r.Get("/test", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"message":"Backend is working!"}`))
		})
		authHandler.RegisterRoutes(r, authenticator, limit)
		phraseHandler.RegisterRoutes(r, authenticator)
		readingHandler.RegisterRoutes(r, authenticator)
		paymentHandler.RegisterRoutes(r, authenticator)
		if d.NotificationDeadLetters != nil {
			pushAuth := middleware.PubSubAuthMiddleware(
				cfg.PubSubEmulatorHost != "",
				cfg.DLQEndpointURL,
				cfg.PubSubPushServiceAccountEmail,
				d.PushTokenValidator,
				logger,
			)
			dlqHandler := handler.NewDLQHandler(service.NewDLQService(d.NotificationDeadLetters), logger)
			dlqHandler.RegisterRoutes(r, pushAuth)
		}
	})

	// 5. CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	return middleware.RequestLogger(logger)(c.Handler(r)), nil
}
