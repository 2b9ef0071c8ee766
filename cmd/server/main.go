package main

import (
	"churchhealth/internal/app"
	"churchhealth/internal/config"
	"churchhealth/internal/transport/rest"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// @title Church Health Assessment API
// @version 1.0
// @description Church health self-assessment scoring and state reconciliation
// @host localhost:8080
// @BasePath /v1
func main() {
	log.Println("started")
	ctx := context.Background()

	cfg := config.Load()
	log.Printf("Config:")
	log.Printf("  Cache debounce:   %s", cfg.Debounce.Cache)
	log.Printf("  Draft debounce:   %s", cfg.Debounce.Draft)
	log.Printf("  Section debounce: %s", cfg.Debounce.SectionChange)
	log.Printf("  Cache TTL:        %s", cfg.CacheTTL)
	log.Printf("  Session idle:     %s", cfg.SessionIdle)

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	// Ping MongoDB
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	// Ping Redis
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	a := app.New(cfg, db, rdb)
	if err := a.Init(ctx); err != nil {
		log.Fatal("Failed to initialize question bank:", err)
	}

	router := rest.NewRouter(a.Container())

	evictCtx, stopEvictor := context.WithCancel(ctx)
	defer stopEvictor()
	go a.Sessions.RunEvictor(evictCtx, time.Minute, cfg.SessionIdle)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		log.Println("Endpoints:")
		log.Println("  POST /v1/assessment/start")
		log.Println("  GET/DELETE /v1/assessment")
		log.Println("  PUT  /v1/assessment/answers/{id}")
		log.Println("  PUT  /v1/assessment/reflections/{id}")
		log.Println("  POST /v1/assessment/submit")
		log.Println("  GET/PUT /v1/questions")
		log.Println("  GET  /v1/assessments")
		log.Println("  WS   /v1/ws/assessment")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	stopEvictor()
	// Write pending cache entries and drafts before the stores go away
	if err := a.Sessions.FlushAll(shutdownCtx); err != nil {
		log.Printf("Failed to flush sessions: %v", err)
	}

	log.Println("Server exited")
}
