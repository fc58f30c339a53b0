package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cricketxpert/checkout-service/docs"
	"github.com/cricketxpert/checkout-service/internal/api/handlers"
	"github.com/cricketxpert/checkout-service/internal/api/middleware"
	"github.com/cricketxpert/checkout-service/internal/cache"
	"github.com/cricketxpert/checkout-service/internal/cart"
	"github.com/cricketxpert/checkout-service/internal/checkout"
	"github.com/cricketxpert/checkout-service/internal/config"
	"github.com/cricketxpert/checkout-service/internal/events"
	"github.com/cricketxpert/checkout-service/internal/health"
	"github.com/cricketxpert/checkout-service/internal/metrics"
	"github.com/cricketxpert/checkout-service/internal/pricing"
	repository "github.com/cricketxpert/checkout-service/internal/repositories"
	service "github.com/cricketxpert/checkout-service/internal/services"
	"github.com/cricketxpert/checkout-service/internal/telemetry"
	"github.com/cricketxpert/checkout-service/pkg/client"
	"github.com/cricketxpert/checkout-service/pkg/gateway"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

//	@title						CricketXpert Checkout API
//	@version					1.0
//	@description				Cart, draft order, payment and checkout endpoints of the CricketXpert store.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the JWT.
func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	shutdownTracer, err := telemetry.InitTracer(context.Background(), &cfg.Otel)
	if err != nil {
		slog.Error("❌ Error initializing tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Database setup
	repos, err := repository.New(cfg)
	if err != nil {
		slog.Error("❌ Error accessing the database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Redis setup
	redisClient, err := repository.NewRedisClient(cfg)
	if err != nil {
		slog.Error("❌ Error accessing the redis instance", slog.String("error", err.Error()))
		os.Exit(1)
	}

	redisCache := cache.NewRedisCache(redisClient, &cfg.Cache)
	rateLimitRepo := repository.NewRateLimitRepo(redisClient, &cfg.RateConfig, logger)

	deliveryFee, err := cfg.Checkout.DeliveryFeeAmount()
	if err != nil {
		slog.Error("❌ Invalid checkout configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Server-side APIs
	var gw gateway.Gateway = gateway.NewMock()
	if cfg.Stripe.Enabled {
		gw = gateway.NewStripe(cfg.Stripe.APIKey)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	productService := service.NewProductService(repos.Product, redisCache, &cfg.Cache)
	orderService := service.NewOrderService(repos.Order, publisher)
	paymentService := service.NewPaymentService(repos.Payment, gw, cfg.Checkout.Currency)

	// Cart session collaborators, in-process unless an upstream API is configured
	var (
		drafts   checkout.DraftOrderAPI = orderService
		payments checkout.PaymentAPI    = paymentService
		catalog  checkout.Catalog       = productService
	)

	if cfg.Upstream.BaseURL != "" {
		upstream := client.New(cfg.Upstream.BaseURL, cfg.Upstream.ServiceToken, cfg.Upstream.Timeout)
		drafts, payments, catalog = upstream, upstream, upstream
		slog.Info("Cart session uses upstream checkout API", slog.String("baseUrl", cfg.Upstream.BaseURL))
	}

	quoter := checkout.NewQuoter(catalog, pricing.NewCalculator(pricing.NewFixedFee(deliveryFee)), cfg.Checkout.CatalogTimeout)
	synchronizer := checkout.NewSynchronizer(drafts, quoter, cfg.Checkout.SyncTimeout, logger)
	dispatcher := cart.NewDispatcher(cfg.Checkout.DispatchShards, synchronizer.HandleCartChanged, logger)
	finalizer := checkout.NewFinalizer(drafts, payments, quoter, dispatcher, logger)

	carts := cart.NewManager(cart.Options{
		Storage:  redisCache,
		Stock:    checkout.NewStockChecker(catalog, cfg.Checkout.CatalogTimeout),
		Notifier: dispatcher,
		TTL:      cfg.Cache.CartTTL,
		Logger:   logger,
	})

	cartService := service.NewCartSessionService(carts, quoter, finalizer, rateLimitRepo)

	productHandler := handlers.NewProductHandler(productService)
	orderHandler := handlers.NewOrderHandler(orderService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	cartHandler := handlers.NewCartHandler(cartService)
	authMiddleware := middleware.NewAuthMiddleware([]byte(cfg.Security.JWTKey))

	healthHandler, err := health.NewHealthHandler(cfg, &health.Endpoints{})
	if err != nil {
		slog.Error("❌ Error creating health checks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	docs.SwaggerInfo.Host = ""

	slog.Info("storage initialized", slog.String("env", cfg.Env), slog.String("version", "1.0.0"))

	// Setup router
	routerMux := http.NewServeMux()

	protected := func(pattern string, h http.HandlerFunc) {
		routerMux.Handle(pattern, metrics.Middleware(authMiddleware.Authenticate(h)))
	}

	protected("GET /api/v1/products", productHandler.ListProducts())
	protected("GET /api/v1/products/{id}", productHandler.GetProduct())

	protected("POST /api/v1/orders/cart", orderHandler.UpsertDraft())
	protected("PUT /api/v1/orders/cart/complete", orderHandler.CompleteDraft())
	protected("GET /api/v1/orders/cart/{customerId}", orderHandler.GetDraft())
	protected("DELETE /api/v1/orders/cart/{customerId}", orderHandler.DeleteDraft())
	protected("GET /api/v1/orders", orderHandler.ListOrders())
	protected("GET /api/v1/orders/{id}", orderHandler.GetOrder())
	protected("PATCH /api/v1/orders/{id}/status", orderHandler.UpdateOrderStatus())

	protected("POST /api/v1/payments", paymentHandler.CreatePayment())
	protected("GET /api/v1/payments", paymentHandler.ListPayments())
	protected("GET /api/v1/payments/{id}", paymentHandler.GetPayment())

	protected("GET /api/v1/cart", cartHandler.GetCart())
	protected("DELETE /api/v1/cart", cartHandler.ClearCart())
	protected("POST /api/v1/cart/items", cartHandler.AddItem())
	protected("DELETE /api/v1/cart/items/{productId}", cartHandler.RemoveItem())
	protected("PUT /api/v1/cart/address", cartHandler.SetAddress())
	protected("POST /api/v1/checkout", cartHandler.Checkout())

	routerMux.Handle("GET /health", healthHandler.Handler())
	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// Middleware chaining
	var handler http.Handler = routerMux
	handler = middleware.Logging(handler)
	handler = otelhttp.NewHandler(handler, cfg.Otel.ServiceName)

	// Setup http server
	server := http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("❌ Failed to start server", slog.String("error", err.Error()))
			done <- syscall.SIGTERM
		}
	}()

	<-done

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

	// pending cart changes still reach the draft orders
	if err := dispatcher.Close(shutdownCtx); err != nil {
		slog.Error("⚠️ Cart dispatcher did not drain", slog.String("error", err.Error()))
	}

	if err := publisher.Close(); err != nil {
		slog.Error("⚠️ Error closing event publisher", slog.String("error", err.Error()))
	}

	if err := shutdownTracer(shutdownCtx); err != nil {
		slog.Error("⚠️ Error flushing traces", slog.String("error", err.Error()))
	}

	if err := redisClient.Close(); err != nil {
		slog.Error("⚠️ Error closing redis connection", slog.String("error", err.Error()))
	}

	if err := repos.Close(); err != nil {
		slog.Error("⚠️ Error closing database connection", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Database connection closed")
	}
}
