package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"ticketbari/config"
	"ticketbari/internal/api"
	"ticketbari/internal/auth"
	"ticketbari/internal/booking"
	"ticketbari/internal/broker"
	"ticketbari/internal/cache"
	"ticketbari/internal/checkout"
	"ticketbari/internal/client"
	"ticketbari/internal/dashboard"
	"ticketbari/internal/fakeapi"
	"ticketbari/internal/imagehost"
	"ticketbari/internal/listing"
	"ticketbari/internal/moderation"
	"ticketbari/internal/stats"
	"ticketbari/internal/vendor"
)

func main() {
	cfg := config.LoadConfig()
	if err := cfg.ValidateWeb(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	var store cache.Store = cache.NewMemoryStore()
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		redisClient = rc
		store = cache.NewRedisStore(rc, "ticketbari:")
	} else {
		log.Println("REDIS_URL not set, keeping sessions in memory")
	}

	var events broker.Publisher = broker.LogPublisher{}
	var b *broker.Broker
	if cfg.RabbitMQURL != "" {
		var err error
		b, err = broker.NewBroker(cfg.RabbitMQURL, cfg.Exchange, "topic")
		if err != nil {
			log.Printf("Warning: Failed to create broker, events will only be logged: %v", err)
		} else {
			events = b
		}
	}

	apiURL := cfg.APIBaseURL
	if cfg.FakeAPI {
		fake := httptest.NewServer(fakeapi.New().Handler())
		defer fake.Close()
		apiURL = fake.URL
		log.Printf("Using in-memory ticketing API at %s", apiURL)
	}
	upstream := client.New(apiURL, cfg.APITimeout)

	provider := auth.NewFirebaseProvider(cfg.FirebaseAPIKey, cfg.PublicURL, nil)
	manager := auth.NewManager(provider, store, upstream, auth.NewCookieCodec(cfg.SessionSecret, cfg.SessionTTL))

	var google *auth.GoogleSignIn
	if cfg.GoogleClientID != "" {
		google = auth.NewGoogleSignIn(cfg.OAuth2())
	}

	var verifier checkout.Verifier
	if cfg.StripeSecretKey != "" {
		verifier = checkout.NewStripeVerifier(cfg.StripeSecretKey)
	}

	images := imagehost.NewImgBB(cfg.ImgBBAPIKey, nil)
	lists := listing.NewService(upstream, store, cfg.ListCacheTTL, cfg.PageSize)

	handler := api.NewHandler(api.Options{
		Auth:         manager,
		Google:       google,
		Images:       images,
		Listing:      lists,
		Booking:      booking.NewService(upstream, lists, events),
		Roles:        dashboard.NewRoleResolver(upstream, manager),
		Vendor:       vendor.NewService(upstream, images, events, lists),
		Moderation:   moderation.NewService(upstream, moderation.NewBoard(), lists),
		Checkout:     checkout.NewService(upstream, store, events, verifier),
		Stats:        stats.NewService(upstream),
		CookieSecure: cfg.CookieSecure,
		Metrics:      cfg.EnableMetrics,
		Health: func(ctx context.Context) error {
			if redisClient == nil {
				return nil
			}
			return cache.HealthCheck(ctx, redisClient)
		},
	})

	router := gin.Default()
	api.SetupRoutes(router, handler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("TicketBari web service listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shut down: %v", err)
	}

	if b != nil {
		if err := b.Close(); err != nil {
			log.Printf("Error closing broker: %v", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis: %v", err)
		}
	}
}
