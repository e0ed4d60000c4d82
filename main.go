package main

import (
	"context"
	"errors"
	"log"
	"meetup-server/config"
	"meetup-server/handlers"
	"meetup-server/middleware"
	"meetup-server/services"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()
	var opts []services.StoreOption
	repo, err := newRepository(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize %s storage: %v", cfg.StoreBackend, err)
	}
	if repo != nil {
		opts = append(opts, services.WithRepository(repo))
	}

	store := services.NewMeetupStore(opts...)
	if err := store.Load(ctx); err != nil {
		log.Fatalf("Failed to load meetups: %v", err)
	}
	qrService := services.NewQRService(cfg.QRSecret)

	r := handlers.NewRouter(store, qrService)
	r.Use(middleware.LoggingMiddleware())

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (storage: %s)", cfg.Port, cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
	log.Println("Server stopped")
}

func newRepository(ctx context.Context, cfg *config.Config) (services.MeetupRepository, error) {
	switch cfg.StoreBackend {
	case config.BackendMongo:
		var redisClient *redis.Client
		if cfg.RedisAddr != "" {
			redisClient = redis.NewClient(&redis.Options{
				Addr: cfg.RedisAddr,
				DB:   cfg.RedisDB,
			})
			if err := redisClient.Ping(ctx).Err(); err != nil {
				log.Printf("Redis unavailable, meetup cache disabled: %v", err)
				redisClient = nil
			}
		}
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return services.NewMongoRepository(connectCtx, cfg.MongoURI, cfg.MongoDatabase, redisClient)
	case config.BackendDynamoDB:
		return services.NewDynamoRepository(ctx, cfg.AWSRegion, cfg.DynamoDBTable)
	}
	return nil, nil
}
