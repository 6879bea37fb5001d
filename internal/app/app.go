package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/discount"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/payment"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/shipping"
	"github.com/xenking/storefront/internal/events"
	"github.com/xenking/storefront/internal/handler"
	"github.com/xenking/storefront/internal/storage/memory"
	"github.com/xenking/storefront/internal/storage/postgres"
	"github.com/xenking/storefront/internal/storage/redis"
	"github.com/xenking/storefront/pkg/health"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// deliveryCountry is the only country the shipping service delivers to.
const deliveryCountry = "IN"

// stores are the persistence dependencies of one backend.
type stores struct {
	products product.Repository
	codes    discount.Repository
	carts    cart.Repository
	orders   order.Repository
	keys     auth.Repository
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("backend", cfg.Backend),
	)

	svc, err := build(ctx, lg, m, cfg)
	if err != nil {
		return err
	}
	defer svc.close()

	healthSvc := svc.health
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           svc.handler,
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// service is the assembled application: its HTTP handler, health probes and
// the resources to release on shutdown.
type service struct {
	handler http.Handler
	health  *health.Health
	closers []func()
}

func (s *service) onClose(fn func()) {
	s.closers = append(s.closers, fn)
}

// close releases resources in reverse acquisition order.
func (s *service) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// build wires storage, domain services and the HTTP stack for cfg. The
// health probes are registered but not started.
func build(ctx context.Context, lg *zap.Logger, tel httpmiddleware.TelemetryProvider, cfg *Config) (_ *service, rerr error) {
	pricingCfg, err := cfg.Pricing.Config()
	if err != nil {
		return nil, errors.Wrap(err, "pricing config")
	}

	svc := &service{health: health.New()}
	defer func() {
		if rerr != nil {
			svc.close()
		}
	}()
	svc.health.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	svc.health.AddLivenessCheck("gc_pause", time.Second, health.GCMaxPauseCheck(time.Second))

	sim := memory.NewSimulator(cfg.Simulation.memory())

	var st stores
	switch cfg.Backend {
	case BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		svc.onClose(pool.Close)

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return nil, errors.Wrap(err, "run migrations")
		}
		svc.health.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))

		st = stores{
			products: postgres.NewProductRepository(pool),
			codes:    postgres.NewDiscountRepository(pool),
			carts:    postgres.NewCartRepository(pool),
			orders:   postgres.NewOrderRepository(pool),
			keys:     postgres.NewAPIKeyRepository(pool),
		}
	default:
		keys := memory.NewAPIKeyStore()
		if cfg.Admin.SeedKey != "" {
			if err := keys.Create(ctx, &auth.APIKey{
				ID:      "seed",
				Name:    "seed-admin",
				KeyHash: auth.HashKey([]byte(cfg.Admin.Pepper), cfg.Admin.SeedKey),
				Scopes:  []string{auth.ScopeProductsWrite},
			}); err != nil {
				return nil, errors.Wrap(err, "seed api key")
			}
		}
		st = stores{
			products: memory.NewProductStore(sim, product.DefaultCatalog()),
			codes:    memory.NewDiscountStore(sim, discount.DefaultCodes()),
			carts:    memory.NewCartStore(sim),
			orders:   memory.NewOrderStore(sim),
			keys:     keys,
		}
	}

	if cfg.Redis.Addr != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		svc.onClose(func() { _ = client.Close() })

		svc.health.AddReadinessCheck("redis", 2*time.Second, func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		cache := redis.NewCartCache(client, cfg.Redis.Prefix, cfg.Redis.TTL, cfg.Redis.Jitter)
		st.carts = redis.NewCachedCartRepository(st.carts, cache)
		lg.Info("Cart cache enabled", zap.String("redis", cfg.Redis.Addr))
	}

	var publisher checkout.Publisher = events.LogPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(events.NewKafkaWriter(cfg.Kafka.Topic, cfg.Kafka.Brokers...))
		svc.onClose(func() {
			if err := kp.Close(); err != nil {
				lg.Warn("Close kafka publisher", zap.Error(err))
			}
		})
		publisher = kp
		lg.Info("Publishing order events to kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	sessions := memory.NewSessionStore(cfg.Session.TTL, cfg.Session.SweepInterval)
	svc.onClose(sessions.Close)

	// Domain services.
	codes := discount.NewLookup(st.codes)
	ship := memory.NewShippingService(sim, shipping.DefaultMethods(), deliveryCountry)
	payments := payment.NewBreakerProcessor(memory.NewPaymentGateway(sim), cfg.Breaker.payment())
	carts := cart.NewService(st.carts, st.products, codes, ship, pricingCfg)
	checkoutSvc, err := checkout.NewService(sessions, carts, codes, ship, payments, st.orders, publisher, pricingCfg,
		checkout.WithTracerProvider(tel.TracerProvider()),
		checkout.WithMeterProvider(tel.MeterProvider()),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create checkout service")
	}

	h := handler.New(handler.Config{ImageBaseURL: cfg.ImageBaseURL}, handler.Services{
		Products: st.products,
		Carts:    carts,
		Codes:    codes,
		Shipping: ship,
		Checkout: checkoutSvc,
		Orders:   st.orders,
		Auth:     auth.NewAuthenticator(st.keys, []byte(cfg.Admin.Pepper)),
	})

	r := chi.NewRouter()
	r.Use(
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", "Authorization", handler.APIKeyHeader, handler.IdempotencyKeyHeader, httpmiddleware.RequestIDHeader},
			ExposeHeaders:    []string{httpmiddleware.RequestIDHeader, "Retry-After"},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
			Skip: func(r *http.Request) bool {
				return r.URL.Path == "/livez" || r.URL.Path == "/readyz"
			},
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.Instrument("storefront-api", tel),
		httpmiddleware.LogRequests(),
		middleware.Timeout(cfg.RequestTimeout),
		middleware.Compress(5),
	)
	r.Get("/livez", svc.health.LiveEndpoint)
	r.Get("/readyz", svc.health.ReadyEndpoint)
	h.Routes(r)

	svc.handler = r
	return svc, nil
}
